package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateISO(t *testing.T) {
	got, ok := ParseDate("2024-01-15")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateAmbiguousDayMonth(t *testing.T) {
	// 03/04/2024 resolves as day=03, month=04 (day-month-year tried first).
	got, ok := ParseDate("03/04/2024")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateBlank(t *testing.T) {
	for _, in := range []string{"", "NAN", "NaT", "none", "NULL"} {
		_, ok := ParseDate(in)
		require.False(t, ok, "expected %q to be missing", in)
	}
}

func TestParseDateConsistentAcrossTables(t *testing.T) {
	a, okA := ParseDate("03/04/2024")
	b, okB := ParseDate("03/04/2024")
	require.True(t, okA)
	require.True(t, okB)
	require.Equal(t, a, b)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 2, DaysBetween(a, b))
	require.Equal(t, -2, DaysBetween(b, a))
}

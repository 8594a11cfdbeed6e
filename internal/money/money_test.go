package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want Cents
	}{
		{"500.00", 50000},
		{"$500.00", 50000},
		{"R 1,234.56", 123456},
		{"(100.00)", -10000},
		{"-25000.00", -2500000},
		{"", 0},
		{"not a number", 0},
		{"  250  ", 25000},
		{"£99.99", 9999},
	}

	for _, tc := range cases {
		got := ParseAmount(tc.in)
		require.Equalf(t, tc.want, got, "ParseAmount(%q)", tc.in)
	}
}

func TestFormatAmountRoundTrip(t *testing.T) {
	require.Equal(t, "500.00", FormatAmount(ParseAmount("500.00")))
	require.Equal(t, "-100.00", FormatAmount(ParseAmount("(100.00)")))
	require.Equal(t, "1234.56", FormatAmount(ParseAmount("1,234.56")))
}

func TestParseAmountIdempotent(t *testing.T) {
	once := ParseAmount("1,234.56")
	twice := ParseAmount(FormatAmount(once))
	require.Equal(t, once, twice)
}

package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScoreIdentical(t *testing.T) {
	c := NewCache()
	require.Equal(t, 100, c.Score("JOHN SMITH", "john smith"))
}

func TestScoreTransposition(t *testing.T) {
	c := NewCache()
	s := c.Score("JOHN SMITH", "JHON SMITH")
	require.GreaterOrEqual(t, s, 85)
	require.Less(t, s, 100)
}

func TestScoreSymmetric(t *testing.T) {
	c := NewCache()
	require.Equal(t, c.Score("ABC123", "ABD123"), c.Score("ABD123", "ABC123"))
}

func TestScoreEmpty(t *testing.T) {
	c := NewCache()
	require.Equal(t, 100, c.Score("", ""))
	require.Equal(t, 0, c.Score("", "X"))
}

func TestCacheHitStats(t *testing.T) {
	c := NewCache()
	c.Score("INVOICE 77", "invoice 77 ")
	c.Score("invoice 77", "INVOICE 77")
	hits, misses := c.Stats()
	require.Equal(t, 1, hits)
	require.Equal(t, 1, misses)
}

func TestCacheEquivalence(t *testing.T) {
	// Turning the cache "off" (fresh cache per call) must not change the
	// score, only timing/diagnostics (spec.md §8, property 6).
	cached := NewCache()
	a := cached.Score("SARAH ADAMS", "S ADAMS")
	fresh := NewCache()
	b := fresh.Score("SARAH ADAMS", "S ADAMS")
	require.Equal(t, a, b)
}

package reconcile

import "reconcile-engine/internal/money"

// sumItem is one candidate in a subset-sum search: an id paired with the
// absolute amount (already resolved to the correct side) it contributes.
type sumItem[T comparable] struct {
	ID    T
	Cents money.Cents
}

// subsetSum finds a subset of items whose amounts sum to within
// [minTarget, maxTarget], per spec.md §4.7.3: a fast greedy pass over
// pairs, then a DP pass extending those pairs up to maxCardinality items.
// Returns the ids of the first qualifying subset found, preferring
// smaller subsets, and within a size preferring the combination built
// from the lowest item indices. Returns nil if no subset qualifies.
func subsetSum[T comparable](items []sumItem[T], minTarget, maxTarget money.Cents, maxCardinality int) []T {
	n := len(items)
	if n < 2 {
		return nil
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum := items[i].Cents + items[j].Cents
			if sum >= minTarget && sum <= maxTarget {
				return []T{items[i].ID, items[j].ID}
			}
		}
	}

	if maxCardinality < 3 {
		return nil
	}

	type combo struct {
		sum     money.Cents
		ids     []T
		lastIdx int
	}

	level := make([]combo, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			level = append(level, combo{
				sum:     items[i].Cents + items[j].Cents,
				ids:     []T{items[i].ID, items[j].ID},
				lastIdx: j,
			})
		}
	}

	for size := 3; size <= maxCardinality && size <= n; size++ {
		next := make([]combo, 0, len(level))
		for _, st := range level {
			for j := st.lastIdx + 1; j < n; j++ {
				sum := st.sum + items[j].Cents
				if sum > maxTarget {
					// Item magnitudes are always positive (sumItem
					// always carries an absolute amount), so sums only
					// grow; prune branches that have overshot.
					continue
				}
				ids := make([]T, len(st.ids)+1)
				copy(ids, st.ids)
				ids[len(st.ids)] = items[j].ID
				next = append(next, combo{sum: sum, ids: ids, lastIdx: j})
			}
		}
		for _, st := range next {
			if st.sum >= minTarget && st.sum <= maxTarget {
				return st.ids
			}
		}
		level = next
		if len(level) == 0 {
			break
		}
	}

	return nil
}

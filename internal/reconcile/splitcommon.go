package reconcile

import (
	"sort"

	"reconcile-engine/internal/fuzzy"
	"reconcile-engine/internal/money"
)

// splitCandidate is one row under consideration for a split subset, with
// its reference canonicalized and its amount already resolved to the
// side/magnitude relevant for this target.
type splitCandidate[T comparable] struct {
	ID     T
	Ref    string // canonical
	Amount money.Cents
}

// groupByRef partitions candidates into groups sharing an exact canonical
// reference, dropping blank-reference rows entirely — a blank reference
// can never anchor a split group (spec.md §8 boundary behaviours).
func groupByRef[T comparable](cands []splitCandidate[T]) map[string][]splitCandidate[T] {
	groups := make(map[string][]splitCandidate[T])
	for _, c := range cands {
		if IsBlankRef(c.Ref) {
			continue
		}
		groups[c.Ref] = append(groups[c.Ref], c)
	}
	return groups
}

// pickWinningGroup scores each candidate group's (shared) reference
// against targetRef and returns the highest-scoring group at or above
// threshold, with at least 2 members. Ties are broken by the
// lexicographically-lowest reference string, for determinism.
func pickWinningGroup[T comparable](
	groups map[string][]splitCandidate[T],
	targetRef string,
	threshold int,
	scorer *fuzzy.Cache,
) []splitCandidate[T] {
	if IsBlankRef(targetRef) {
		return nil
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bestKey := ""
	bestScore := -1
	for _, k := range keys {
		if len(groups[k]) < 2 {
			continue
		}
		score := scorer.Score(k, targetRef)
		if score >= threshold && score > bestScore {
			bestScore = score
			bestKey = k
		}
	}
	if bestScore < 0 {
		return nil
	}
	return groups[bestKey]
}

// boundByCloseness keeps at most n candidates, the ones whose amount is
// closest to target, sorted by closeness then by id order as supplied
// (spec.md §4.7.1 step 4 caps the DP's input group at 20 candidates).
func boundByCloseness[T comparable](cands []splitCandidate[T], target money.Cents, n int) []splitCandidate[T] {
	if len(cands) <= n {
		return cands
	}
	sorted := make([]splitCandidate[T], len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		di := diffAbs(sorted[i].Amount, target)
		dj := diffAbs(sorted[j].Amount, target)
		return di < dj
	})
	return sorted[:n]
}

func diffAbs(a, b money.Cents) money.Cents {
	d := a - b
	return d.Abs()
}

// toSumItems converts candidates into subset-sum inputs.
func toSumItems[T comparable](cands []splitCandidate[T]) []sumItem[T] {
	items := make([]sumItem[T], len(cands))
	for i, c := range cands {
		items[i] = sumItem[T]{ID: c.ID, Cents: c.Amount}
	}
	return items
}

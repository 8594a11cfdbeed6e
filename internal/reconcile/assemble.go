package reconcile

import "sort"

// assemble builds the final Result from the accumulated matches, splits,
// and whatever remains in the unmatched sets (spec.md §4.9).
func assemble(
	matches []Match,
	splits []Split,
	unmatchedLedger map[LedgerID]bool,
	unmatchedStatement map[StatementID]bool,
	diag Diagnostics,
) Result {
	counts := Counts{}
	for _, m := range matches {
		switch m.Kind {
		case Perfect:
			counts.Perfect++
		case Fuzzy:
			counts.Fuzzy++
		case ForeignCredit:
			counts.ForeignCredit++
		}
	}
	counts.Split = len(splits)
	counts.TotalMatched = len(matches) + len(splits)

	ul := make([]LedgerID, 0, len(unmatchedLedger))
	for id := range unmatchedLedger {
		ul = append(ul, id)
	}
	sort.Slice(ul, func(i, j int) bool { return ul[i] < ul[j] })

	us := make([]StatementID, 0, len(unmatchedStatement))
	for id := range unmatchedStatement {
		us = append(us, id)
	}
	sort.Slice(us, func(i, j int) bool { return us[i] < us[j] })

	counts.UnmatchedLedger = len(ul)
	counts.UnmatchedStatement = len(us)

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].StatementID != matches[j].StatementID {
			return matches[i].StatementID < matches[j].StatementID
		}
		return matches[i].LedgerID < matches[j].LedgerID
	})

	return Result{
		Matched:            matches,
		Splits:             splits,
		UnmatchedLedger:    ul,
		UnmatchedStatement: us,
		Counts:             counts,
		Diagnostics:        diag,
	}
}

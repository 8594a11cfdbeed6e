package reconcile

import (
	"sort"

	"reconcile-engine/internal/fuzzy"
)

// splitOneToMany is Phase 2B (spec.md §4.7.2), the mirror of Phase 2: for
// each still-unmatched ledger row, find a subset of still-unmatched
// statement rows on the same day, sharing a single normalized reference,
// whose amounts sum to within one cent of the ledger row's amount.
func splitOneToMany(
	ledger []LedgerRow,
	statementByID map[StatementID]StatementRow,
	settings Settings,
	scorer *fuzzy.Cache,
	unmatchedLedger map[LedgerID]bool,
	unmatchedStatement map[StatementID]bool,
	matchRate float64,
	diag *Diagnostics,
) []Split {
	if len(unmatchedLedger) < 1 || len(unmatchedStatement) < 2 {
		return nil
	}
	if !settings.DisableSplitHeuristic && matchRate > 0.95 {
		diag.Notices = append(diag.Notices, "phase-2b one-to-many split skipped: match rate already exceeds 95%")
		return nil
	}

	byDate := make(map[int64][]StatementID)
	byWord := make(map[string]map[StatementID]bool)
	for id := range unmatchedStatement {
		s, ok := statementByID[id]
		if !ok {
			continue
		}
		if s.HasDate {
			day := dayNumber(s.Date)
			byDate[day] = append(byDate[day], id)
		}
		for _, tok := range wordTokens(s.Reference) {
			set, ok := byWord[tok]
			if !ok {
				set = make(map[StatementID]bool)
				byWord[tok] = set
			}
			set[id] = true
		}
	}
	for _, ids := range byDate {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	var splits []Split
	for _, l := range ledger {
		if !unmatchedLedger[l.ID] {
			continue
		}
		if len(splits) >= settings.MaxManyToOneSplits {
			diag.Notices = append(diag.Notices, "phase-2b: global cap of one-to-many splits reached")
			break
		}
		if !l.HasDate {
			continue
		}
		canonRef := CanonicalRef(l.Reference)
		if IsBlankRef(canonRef) {
			continue
		}

		var targetSide side
		switch {
		case l.Debit != 0:
			targetSide = sideDebit
		case l.Credit != 0:
			targetSide = sideCredit
		default:
			continue
		}
		target := l.Debit.Abs()
		if targetSide == sideCredit {
			target = l.Credit.Abs()
		}

		day := dayNumber(l.Date)
		dayIDs := byDate[day]
		if len(dayIDs) < 2 {
			continue
		}

		cands := make([]splitCandidate[StatementID], 0, len(dayIDs))
		for _, id := range dayIDs {
			if !unmatchedStatement[id] {
				continue
			}
			s := statementByID[id]
			if wantedSide(settings.AmountMode, s.Amount) != targetSide {
				continue
			}
			cands = append(cands, splitCandidate[StatementID]{ID: id, Ref: CanonicalRef(s.Reference), Amount: s.Amount.Abs()})
		}
		if len(cands) < 2 {
			continue
		}

		if settings.MatchReferences && settings.FuzzyRef {
			cands = narrowStatementsByWordToken(cands, byWord, canonRef)
		}
		if len(cands) < 2 {
			continue
		}

		groups := groupByRef(cands)
		winner := pickWinningGroup(groups, canonRef, settings.SimilarityThreshold, scorer)
		if len(winner) < 2 {
			continue
		}

		bounded := boundByCloseness(winner, target, settings.MaxGroupSize)
		items := toSumItems(bounded)

		ids := subsetSum(items, target-amountTolerance, target+amountTolerance, settings.MaxSplitCardinality)
		if ids == nil {
			continue
		}

		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		splits = append(splits, Split{Kind: SplitOneToMany, Score: 100, LedgerID: l.ID, StatementIDs: ids})
		delete(unmatchedLedger, l.ID)
		for _, sid := range ids {
			delete(unmatchedStatement, sid)
		}
	}
	return splits
}

func narrowStatementsByWordToken(cands []splitCandidate[StatementID], byWord map[string]map[StatementID]bool, targetRef string) []splitCandidate[StatementID] {
	targetTokens := wordTokens(targetRef)
	if len(targetTokens) == 0 {
		return nil
	}
	var kept []splitCandidate[StatementID]
	for _, c := range cands {
		matched := false
		for _, tok := range targetTokens {
			if byWord[tok][c.ID] {
				matched = true
				break
			}
		}
		if matched {
			kept = append(kept, c)
		}
	}
	return kept
}

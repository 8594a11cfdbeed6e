package reconcile

import (
	"sort"

	"reconcile-engine/internal/fuzzy"
	"reconcile-engine/internal/money"
)

// wantedSide returns which ledger column a statement amount should be
// compared against, per spec.md §3's amount_mode semantics.
func wantedSide(mode AmountMode, amount money.Cents) side {
	switch mode {
	case AmountDebitsOnly:
		return sideDebit
	case AmountCreditsOnly:
		return sideCredit
	default:
		if amount >= 0 {
			return sideDebit
		}
		return sideCredit
	}
}

// matchRegular is Phase 1 (spec.md §4.5): for each statement row in input
// order, narrow ledger candidates by date and/or amount per settings, then
// resolve a reference (exact, then fuzzy, then none) and take the
// lowest-id candidate as the match. Matched ids are removed from the
// candidate pool as soon as they're claimed, so later statement rows never
// re-use an already-matched ledger row.
func matchRegular(
	statements []StatementRow,
	ledgerByID map[LedgerID]LedgerRow,
	idx *Index,
	settings Settings,
	scorer *fuzzy.Cache,
	unmatchedLedger map[LedgerID]bool,
	unmatchedStatement map[StatementID]bool,
) []Match {
	var matches []Match

	for i, s := range statements {
		if settings.OnProgress != nil && settings.ProgressEvery > 0 && i > 0 && i%settings.ProgressEvery == 0 {
			settings.OnProgress(i*100/len(statements), "phase1")
		}
		candidates := regularCandidates(s, idx, settings, unmatchedLedger)
		if len(candidates) == 0 {
			continue
		}

		chosenID, score, found := resolveReference(s.Reference, candidates, ledgerByID, settings, scorer)
		if !found {
			continue
		}

		kind := Fuzzy
		if score == 100 {
			kind = Perfect
		}
		matches = append(matches, Match{Kind: kind, Score: score, LedgerID: chosenID, StatementID: s.ID})
		delete(unmatchedLedger, chosenID)
		delete(unmatchedStatement, s.ID)
	}

	return matches
}

// regularCandidates intersects the date and amount filters that are
// enabled, restricted to rows still unmatched. When neither filter is
// enabled every unmatched ledger row is a candidate.
func regularCandidates(s StatementRow, idx *Index, settings Settings, unmatchedLedger map[LedgerID]bool) map[LedgerID]bool {
	var dateSet map[LedgerID]bool
	if settings.MatchDates {
		dateSet = make(map[LedgerID]bool)
		if s.HasDate {
			day := dayNumber(s.Date)
			days := []int64{day}
			if settings.DateTolerance {
				days = []int64{day - 1, day, day + 1}
			}
			for _, d := range days {
				for _, id := range idx.ByDate[d] {
					dateSet[id] = true
				}
			}
		}
	}

	var amountSet map[LedgerID]bool
	if settings.MatchAmounts {
		amountSet = make(map[LedgerID]bool)
		wantSide := wantedSide(settings.AmountMode, s.Amount)
		for _, e := range idx.ByAmount[s.Amount.Abs()] {
			if e.Side == wantSide {
				amountSet[e.ID] = true
			}
		}
	}

	result := make(map[LedgerID]bool)
	switch {
	case settings.MatchDates && settings.MatchAmounts:
		for id := range dateSet {
			if amountSet[id] {
				result[id] = true
			}
		}
	case settings.MatchDates:
		for id := range dateSet {
			result[id] = true
		}
	case settings.MatchAmounts:
		for id := range amountSet {
			result[id] = true
		}
	default:
		for id := range unmatchedLedger {
			result[id] = true
		}
	}

	for id := range result {
		if !unmatchedLedger[id] {
			delete(result, id)
		}
	}
	return result
}

// resolveReference picks the winning ledger id among candidates:
// exact canonical-reference match first, then (if enabled) the highest
// fuzzy score at/above threshold, then (if references aren't being
// matched at all) the lowest-id candidate. Ties always go to the lowest
// ledger id, by iterating candidates in ascending order.
func resolveReference(
	stmtRef string,
	candidates map[LedgerID]bool,
	ledgerByID map[LedgerID]LedgerRow,
	settings Settings,
	scorer *fuzzy.Cache,
) (LedgerID, int, bool) {
	sorted := sortedIDs(candidates)

	canonStmt := CanonicalRef(stmtRef)

	// References aren't being matched at all, or the statement side has
	// none to match against: take the first candidate, but only when it
	// actually has a reference to offer (two blank references must never
	// resolve to a match, spec.md §8 boundary behaviours). Mirrors
	// fnb_workflow_gui_engine.py:354-394, whose else branch fires whenever
	// match_references is false or stmt_ref is blank, not only the former.
	if !settings.MatchReferences || IsBlankRef(canonStmt) {
		for _, id := range sorted {
			if !settings.MatchReferences || !IsBlankRef(CanonicalRef(ledgerByID[id].Reference)) {
				return id, 100, true
			}
		}
		return 0, 0, false
	}

	for _, id := range sorted {
		if CanonicalRef(ledgerByID[id].Reference) == canonStmt {
			return id, 100, true
		}
	}
	if settings.FuzzyRef {
		best := LedgerID(0)
		bestScore := -1
		found := false
		for _, id := range sorted {
			ref := ledgerByID[id].Reference
			if IsBlankRef(CanonicalRef(ref)) {
				continue
			}
			score := scorer.Score(canonStmt, CanonicalRef(ref))
			if score >= settings.SimilarityThreshold && score > bestScore {
				bestScore = score
				best = id
				found = true
			}
		}
		if found {
			return best, bestScore, true
		}
	}
	return 0, 0, false
}

func sortedIDs(set map[LedgerID]bool) []LedgerID {
	ids := make([]LedgerID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

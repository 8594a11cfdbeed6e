package reconcile

import (
	"fmt"

	"reconcile-engine/internal/fuzzy"
	"reconcile-engine/internal/money"
)

// amountTolerance is the maximum allowed |sum - target| for a split to
// qualify, one cent (spec.md §4.7.1 step 5: tolerance 0.01).
const amountTolerance = money.Cents(1)

// splitManyToOne is Phase 2 (spec.md §4.7.1): for each still-unmatched
// statement row, find a subset of still-unmatched ledger rows on the same
// day, sharing a single normalized reference, whose amounts sum to within
// one cent of the statement amount.
func splitManyToOne(
	statements []StatementRow,
	ledgerByID map[LedgerID]LedgerRow,
	settings Settings,
	scorer *fuzzy.Cache,
	unmatchedLedger map[LedgerID]bool,
	unmatchedStatement map[StatementID]bool,
	matchRate float64,
	diag *Diagnostics,
) []Split {
	if len(unmatchedStatement) < 1 || len(unmatchedLedger) < 2 {
		return nil
	}
	if !settings.DisableSplitHeuristic && matchRate > 0.95 {
		diag.Notices = append(diag.Notices, "phase-2 many-to-one split skipped: match rate already exceeds 95%")
		return nil
	}
	if len(unmatchedStatement) > 500 {
		diag.Notices = append(diag.Notices, fmt.Sprintf("phase-2: large unmatched statement set (%d rows)", len(unmatchedStatement)))
	}
	if len(unmatchedLedger) > 1000 {
		diag.Notices = append(diag.Notices, fmt.Sprintf("phase-2: large unmatched ledger set (%d rows)", len(unmatchedLedger)))
	}

	splitIdx := BuildSplitIndex(ledgerByID, unmatchedLedger)

	var splits []Split
	for _, s := range statements {
		if !unmatchedStatement[s.ID] {
			continue
		}
		if len(splits) >= settings.MaxManyToOneSplits {
			diag.Notices = append(diag.Notices, "phase-2: global cap of many-to-one splits reached")
			break
		}
		if !s.HasDate {
			continue
		}
		canonRef := CanonicalRef(s.Reference)
		if IsBlankRef(canonRef) {
			continue
		}

		day := dayNumber(s.Date)
		dayIDs := splitIdx.ByDate[day]
		if len(dayIDs) < 2 {
			continue
		}

		wantSide := wantedSide(settings.AmountMode, s.Amount)

		cands := make([]splitCandidate[LedgerID], 0, len(dayIDs))
		for _, id := range dayIDs {
			if !unmatchedLedger[id] {
				continue
			}
			row := ledgerByID[id]
			amt, ok := sideAmount(row, wantSide)
			if !ok {
				continue
			}
			cands = append(cands, splitCandidate[LedgerID]{ID: id, Ref: CanonicalRef(row.Reference), Amount: amt.Abs()})
		}
		if len(cands) < 2 {
			continue
		}

		if settings.MatchReferences && settings.FuzzyRef {
			cands = narrowByWordToken(cands, splitIdx, canonRef)
		}
		if len(cands) < 2 {
			continue
		}

		groups := groupByRef(cands)
		winner := pickWinningGroup(groups, canonRef, settings.SimilarityThreshold, scorer)
		if len(winner) < 2 {
			continue
		}

		bounded := boundByCloseness(winner, s.Amount.Abs(), settings.MaxGroupSize)
		items := toSumItems(bounded)

		target := s.Amount.Abs()
		ids := subsetSum(items, target-amountTolerance, target+amountTolerance, settings.MaxSplitCardinality)
		if ids == nil {
			continue
		}

		splits = append(splits, Split{Kind: SplitManyToOne, Score: 100, StatementID: s.ID, LedgerIDs: ids})
		delete(unmatchedStatement, s.ID)
		for _, lid := range ids {
			delete(unmatchedLedger, lid)
		}
	}

	return splits
}

// narrowByWordToken keeps only candidates sharing at least one reference
// word token (len >= 3) with targetRef (spec.md §4.7.1 step 1).
func narrowByWordToken(cands []splitCandidate[LedgerID], idx *SplitIndex, targetRef string) []splitCandidate[LedgerID] {
	targetTokens := wordTokens(targetRef)
	if len(targetTokens) == 0 {
		return nil
	}
	var kept []splitCandidate[LedgerID]
	for _, c := range cands {
		matched := false
		for _, tok := range targetTokens {
			if idx.ByWord[tok][c.ID] {
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

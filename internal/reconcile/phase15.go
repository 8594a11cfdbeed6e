package reconcile

import "reconcile-engine/internal/money"

// matchForeignCredits is Phase 1.5 (spec.md §4.6): catches large-value rows
// (strictly greater than the foreign-credit threshold) that carry no
// usable reference, by requiring amount equality and, if MatchDates is
// on, exact date equality (no tolerance, regardless of DateTolerance).
// Scored internally on a 0/50/100 scale to pick the best remaining
// candidate, but every accepted match is reported at score 100 — spec.md
// §3 fixes ForeignCredit's reported score at 100 unconditionally.
func matchForeignCredits(
	statements []StatementRow,
	ledgerByID map[LedgerID]LedgerRow,
	settings Settings,
	unmatchedLedger map[LedgerID]bool,
	unmatchedStatement map[StatementID]bool,
) []Match {
	var matches []Match

	for _, s := range statements {
		if !unmatchedStatement[s.ID] {
			continue
		}
		if s.Amount.Abs() <= settings.ForeignCreditThreshold {
			continue
		}

		wantSide := wantedSide(settings.AmountMode, s.Amount)

		bestID := LedgerID(0)
		bestScore := -1
		found := false
		for _, id := range sortedIDs(unmatchedLedger) {
			row := ledgerByID[id]
			amt, ok := sideAmount(row, wantSide)
			if !ok || amt.Abs() != s.Amount.Abs() {
				continue
			}

			score := 50
			if settings.MatchDates {
				if !s.HasDate || !row.HasDate || dayNumber(s.Date) != dayNumber(row.Date) {
					continue
				}
				score = 100
			}
			if score > bestScore {
				bestScore = score
				bestID = id
				found = true
			}
		}

		if found {
			matches = append(matches, Match{Kind: ForeignCredit, Score: 100, LedgerID: bestID, StatementID: s.ID})
			delete(unmatchedLedger, bestID)
			delete(unmatchedStatement, s.ID)
		}
	}

	return matches
}

func sideAmount(row LedgerRow, s side) (money.Cents, bool) {
	if s == sideDebit {
		if row.Debit == 0 {
			return 0, false
		}
		return row.Debit, true
	}
	if row.Credit == 0 {
		return 0, false
	}
	return row.Credit, true
}

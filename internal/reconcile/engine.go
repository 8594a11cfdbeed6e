package reconcile

import (
	"time"

	"reconcile-engine/internal/fuzzy"
)

// Reconcile runs the full four-phase match (spec.md §4): Phase 1 regular
// matching, Phase 1.5 foreign-credit matching, Phase 2 many-to-one
// splitting, and Phase 2B one-to-many splitting. Always returns a Result,
// even on an engine-level configuration problem (Diagnostics.FailureReason
// set, spec.md §7 category 1) — reconciliation never panics on bad input.
func Reconcile(ledger []LedgerRow, statement []StatementRow, settings Settings) Result {
	settings = settings.normalized()

	diag := Diagnostics{PhaseDurations: make(map[string]time.Duration)}

	if !settings.MatchDates && !settings.MatchReferences && !settings.MatchAmounts {
		diag.FailureReason = "at least one of match_dates, match_references, match_amounts must be enabled"
		unmatchedLedger := make([]LedgerID, len(ledger))
		for i, l := range ledger {
			unmatchedLedger[i] = l.ID
		}
		unmatchedStatement := make([]StatementID, len(statement))
		for i, s := range statement {
			unmatchedStatement[i] = s.ID
		}
		return Result{
			UnmatchedLedger:    unmatchedLedger,
			UnmatchedStatement: unmatchedStatement,
			Counts: Counts{
				UnmatchedLedger:    len(unmatchedLedger),
				UnmatchedStatement: len(unmatchedStatement),
			},
			Diagnostics: diag,
		}
	}

	ledgerByID := make(map[LedgerID]LedgerRow, len(ledger))
	unmatchedLedger := make(map[LedgerID]bool, len(ledger))
	for _, l := range ledger {
		ledgerByID[l.ID] = l
		unmatchedLedger[l.ID] = true
	}

	statementByID := make(map[StatementID]StatementRow, len(statement))
	unmatchedStatement := make(map[StatementID]bool, len(statement))
	for _, s := range statement {
		statementByID[s.ID] = s
		unmatchedStatement[s.ID] = true
	}

	scorer := fuzzy.NewCache()
	report := func(stage string, percent int) {
		if settings.OnProgress != nil {
			settings.OnProgress(percent, stage)
		}
	}

	report("phase1", 0)
	t0 := time.Now()
	matches := matchRegular(statement, ledgerByID, BuildIndex(ledger), settings, scorer, unmatchedLedger, unmatchedStatement)
	diag.PhaseDurations["phase1"] = time.Since(t0)
	report("phase1", 100)

	report("phase1.5", 0)
	t1 := time.Now()
	matches = append(matches, matchForeignCredits(statement, ledgerByID, settings, unmatchedLedger, unmatchedStatement)...)
	diag.PhaseDurations["phase1.5"] = time.Since(t1)
	report("phase1.5", 100)

	totalRows := len(ledger) + len(statement)
	matchedRows := (len(ledger) - len(unmatchedLedger)) + (len(statement) - len(unmatchedStatement))
	matchRate := 0.0
	if totalRows > 0 {
		matchRate = float64(matchedRows) / float64(totalRows)
	}

	report("phase2", 0)
	t2 := time.Now()
	splits := splitManyToOne(statement, ledgerByID, settings, scorer, unmatchedLedger, unmatchedStatement, matchRate, &diag)
	diag.PhaseDurations["phase2"] = time.Since(t2)
	report("phase2", 100)

	report("phase2b", 0)
	t3 := time.Now()
	splits = append(splits, splitOneToMany(ledger, statementByID, settings, scorer, unmatchedLedger, unmatchedStatement, matchRate, &diag)...)
	diag.PhaseDurations["phase2b"] = time.Since(t3)
	report("phase2b", 100)

	diag.FuzzyCacheHits, diag.FuzzyCacheMisses = scorer.Stats()

	return assemble(matches, splits, unmatchedLedger, unmatchedStatement, diag)
}

// Package workflow wraps the core reconciliation engine with per-bank
// reference extraction and column conventions (spec.md §4.2, C10). Four
// of the five variants are thin: extract, then hand off to the generic
// phased engine. Corporate replaces the engine entirely with a five-batch
// same-reference pairing algorithm (spec.md §4.8), implemented in corporate.go.
package workflow

import (
	"reconcile-engine/internal/extract"
	"reconcile-engine/internal/reconcile"
)

// Workflow is a named bank variant: a reference extractor plus the
// Settings it expects the generic engine to run with.
type Workflow struct {
	Name     string
	Settings reconcile.Settings

	// ExtractStatementRef derives a statement row's reference from its
	// free-text description column.
	ExtractStatementRef func(description string) string
	// ExtractLedgerRef derives a ledger row's reference from its
	// free-text comment column.
	ExtractLedgerRef func(comment string) string
}

// FNB wraps the generic engine with FNB's statement-description pattern
// catalogue (spec.md §4.2). FNB ledgers carry references directly.
func FNB() Workflow {
	return Workflow{
		Name:                "fnb",
		Settings:            reconcile.DefaultSettings(),
		ExtractStatementRef: extract.FNBReference,
	}
}

// ABSA wraps the generic engine with ABSA's statement and ledger
// extractors. The statement extractor also yields a fee, which callers
// needing it should invoke extract.ABSAReferenceAndFee directly; the
// Workflow-level hook only exposes the reference.
func ABSA() Workflow {
	return Workflow{
		Name:     "absa",
		Settings: reconcile.DefaultSettings(),
		ExtractStatementRef: func(description string) string {
			ref, _ := extract.ABSAReferenceAndFee(description)
			return ref
		},
		ExtractLedgerRef: func(comment string) string {
			_, payRef := extract.RJAndRef(comment)
			return payRef
		},
	}
}

// Bidvest wraps the generic engine with Bidvest's RJ-number ledger
// extractor; Bidvest statements carry references directly.
func Bidvest() Workflow {
	return Workflow{
		Name:             "bidvest",
		Settings:         reconcile.DefaultSettings(),
		ExtractLedgerRef: extract.BidvestReference,
	}
}

// Kazang wraps the generic engine with Kazang's ledger extractor.
func Kazang() Workflow {
	return Workflow{
		Name:     "kazang",
		Settings: reconcile.DefaultSettings(),
		ExtractLedgerRef: func(comment string) string {
			return extract.KazangPaymentRef(comment)
		},
	}
}

// Run applies the workflow's extractors (where the caller hasn't already
// populated References) and executes the generic four-phase engine. If
// ledger/statement references are already set (extraction already ran
// upstream, e.g. as a separate column-add step before the user confirms
// column mappings), Run leaves them untouched.
func (w Workflow) Run(ledger []reconcile.LedgerRow, statement []reconcile.StatementRow) reconcile.Result {
	if w.ExtractLedgerRef != nil {
		for i, row := range ledger {
			if row.Reference == "" {
				ledger[i].Reference = w.ExtractLedgerRef(row.Extra["comment"])
			}
		}
	}
	if w.ExtractStatementRef != nil {
		for i, row := range statement {
			if row.Reference == "" {
				statement[i].Reference = w.ExtractStatementRef(row.Extra["description"])
			}
		}
	}
	return reconcile.Reconcile(ledger, statement, w.Settings)
}

package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reconcile-engine/internal/money"
	"reconcile-engine/internal/reconcile"
)

func TestFNBWorkflow_ExtractsThenMatches(t *testing.T) {
	ledger := []reconcile.LedgerRow{
		{ID: 1, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), HasDate: true, Reference: "John Dube", Debit: money.ParseAmount("500.00")},
	}
	statement := []reconcile.StatementRow{
		{ID: 1, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), HasDate: true, Extra: map[string]string{"description": "FNB APP PAYMENT FROM John Dube"}, Amount: money.ParseAmount("500.00")},
	}
	res := FNB().Run(ledger, statement)
	require.Len(t, res.Matched, 1)
}

func TestCorporate_B1CorrectingJournal(t *testing.T) {
	rows := []CorporateRow{
		{ID: 1, Reference: "INV100", Journal: "157158", ForeignDebit: money.ParseAmount("100.00")},
		{ID: 2, Reference: "Correcting J157158", Journal: "", ForeignCredit: money.ParseAmount("100.00")},
	}
	res := RunCorporate(rows)
	require.Len(t, res.Pairs, 1)
	require.Equal(t, BatchCorrecting, res.Pairs[0].Batch)
	require.Equal(t, [2]uint32{1, 2}, res.Pairs[0].RowIDs)
	require.Empty(t, res.Unmatched)
	require.True(t, ValidateCorporate(rows, res))
}

func TestCorporate_B2ExactMatch(t *testing.T) {
	rows := []CorporateRow{
		{ID: 1, Reference: "ACME", ForeignDebit: money.ParseAmount("250.00")},
		{ID: 2, Reference: "ACME", ForeignCredit: money.ParseAmount("250.00")},
	}
	res := RunCorporate(rows)
	require.Len(t, res.Pairs, 1)
	require.Equal(t, BatchExact, res.Pairs[0].Batch)
}

func TestCorporate_B3FDPlusCommission(t *testing.T) {
	rows := []CorporateRow{
		{ID: 1, Reference: "ACME", ForeignDebit: money.ParseAmount("255.00")},
		{ID: 2, Reference: "ACME", ForeignCredit: money.ParseAmount("250.00")},
	}
	res := RunCorporate(rows)
	require.Len(t, res.Pairs, 1)
	require.Equal(t, BatchFDCommission, res.Pairs[0].Batch)
}

func TestCorporate_B5RateDifference(t *testing.T) {
	rows := []CorporateRow{
		{ID: 1, Reference: "ACME", ForeignDebit: money.ParseAmount("250.50")},
		{ID: 2, Reference: "ACME", ForeignCredit: money.ParseAmount("250.00")},
	}
	res := RunCorporate(rows)
	require.Len(t, res.Pairs, 1)
	require.Equal(t, BatchRateDifference, res.Pairs[0].Batch)
}

func TestCorporate_BlankReferencesNeverMatchEachOther(t *testing.T) {
	rows := []CorporateRow{
		{ID: 1, Reference: "", ForeignDebit: money.ParseAmount("100.00")},
		{ID: 2, Reference: "", ForeignCredit: money.ParseAmount("100.00")},
	}
	res := RunCorporate(rows)
	require.Empty(t, res.Pairs)
	require.ElementsMatch(t, []uint32{1, 2}, res.Unmatched)
}

func TestCorporate_DataIntegrityPreserved(t *testing.T) {
	rows := []CorporateRow{
		{ID: 1, Reference: "ACME", ForeignDebit: money.ParseAmount("100.00")},
		{ID: 2, Reference: "ACME", ForeignCredit: money.ParseAmount("100.00")},
		{ID: 3, Reference: "BETA", ForeignDebit: money.ParseAmount("40.00")},
	}
	res := RunCorporate(rows)
	require.True(t, ValidateCorporate(rows, res))
	require.Len(t, res.Unmatched, 1)
}

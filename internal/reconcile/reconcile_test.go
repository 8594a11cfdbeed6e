package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reconcile-engine/internal/dateparse"
	"reconcile-engine/internal/money"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cents(v string) money.Cents {
	return money.ParseAmount(v)
}

// Scenario A (spec.md §8): a basic perfect match — same date, same
// reference, same amount.
func TestScenarioA_PerfectMatch(t *testing.T) {
	ledger := []LedgerRow{
		{ID: 1, Date: day(2024, 3, 1), HasDate: true, Reference: "INV1001", Debit: cents("500.00")},
	}
	statement := []StatementRow{
		{ID: 1, Date: day(2024, 3, 1), HasDate: true, Reference: "INV1001", Amount: cents("500.00")},
	}
	res := Reconcile(ledger, statement, DefaultSettings())
	require.Len(t, res.Matched, 1)
	require.Equal(t, Perfect, res.Matched[0].Kind)
	require.Equal(t, 100, res.Matched[0].Score)
	require.Empty(t, res.UnmatchedLedger)
	require.Empty(t, res.UnmatchedStatement)
}

// Boundary: Perfect match survives trailing whitespace and case differences.
func TestPerfectMatch_CaseAndWhitespaceInsensitive(t *testing.T) {
	ledger := []LedgerRow{
		{ID: 1, Date: day(2024, 3, 1), HasDate: true, Reference: "  inv1001 ", Debit: cents("500.00")},
	}
	statement := []StatementRow{
		{ID: 1, Date: day(2024, 3, 1), HasDate: true, Reference: "INV1001", Amount: cents("500.00")},
	}
	res := Reconcile(ledger, statement, DefaultSettings())
	require.Len(t, res.Matched, 1)
	require.Equal(t, Perfect, res.Matched[0].Kind)
}

// Scenario B (spec.md §8): a fuzzy reference match within threshold.
func TestScenarioB_FuzzyReference(t *testing.T) {
	ledger := []LedgerRow{
		{ID: 1, Date: day(2024, 3, 1), HasDate: true, Reference: "JOHN SMITH", Debit: cents("120.00")},
	}
	statement := []StatementRow{
		{ID: 1, Date: day(2024, 3, 1), HasDate: true, Reference: "JHON SMITH", Amount: cents("120.00")},
	}
	res := Reconcile(ledger, statement, DefaultSettings())
	require.Len(t, res.Matched, 1)
	require.Equal(t, Fuzzy, res.Matched[0].Kind)
	require.GreaterOrEqual(t, res.Matched[0].Score, 85)
	require.Less(t, res.Matched[0].Score, 100)
}

// Scenario C (spec.md §8): a large-value foreign credit with no usable
// reference still matches on amount+date.
func TestScenarioC_ForeignCredit(t *testing.T) {
	ledger := []LedgerRow{
		{ID: 1, Date: day(2024, 3, 5), HasDate: true, Reference: "", Debit: cents("25000.00")},
	}
	statement := []StatementRow{
		{ID: 1, Date: day(2024, 3, 5), HasDate: true, Reference: "", Amount: cents("25000.00")},
	}
	res := Reconcile(ledger, statement, DefaultSettings())
	require.Len(t, res.Matched, 1)
	require.Equal(t, ForeignCredit, res.Matched[0].Kind)
	require.Equal(t, 100, res.Matched[0].Score)
}

// Boundary: exactly 10,000.00 is strictly excluded from foreign-credit
// eligibility (spec.md §8).
func TestForeignCredit_ThresholdIsStrictlyGreaterThan(t *testing.T) {
	ledger := []LedgerRow{
		{ID: 1, Date: day(2024, 3, 5), HasDate: true, Reference: "", Debit: cents("10000.00")},
	}
	statement := []StatementRow{
		{ID: 1, Date: day(2024, 3, 5), HasDate: true, Reference: "", Amount: cents("10000.00")},
	}
	res := Reconcile(ledger, statement, DefaultSettings())
	require.Empty(t, res.Matched)
	require.Len(t, res.UnmatchedLedger, 1)
	require.Len(t, res.UnmatchedStatement, 1)
}

// Scenario D (spec.md §8): many-to-one split — two ledger debits on the
// same day, same reference, summing to one statement amount.
func TestScenarioD_ManyToOneSplit(t *testing.T) {
	ledger := []LedgerRow{
		{ID: 1, Date: day(2024, 3, 10), HasDate: true, Reference: "RENT MARCH", Debit: cents("300.00")},
		{ID: 2, Date: day(2024, 3, 10), HasDate: true, Reference: "RENT MARCH", Debit: cents("200.00")},
	}
	statement := []StatementRow{
		{ID: 1, Date: day(2024, 3, 10), HasDate: true, Reference: "RENT MARCH", Amount: cents("500.00")},
	}
	res := Reconcile(ledger, statement, DefaultSettings())
	require.Empty(t, res.Matched)
	require.Len(t, res.Splits, 1)
	sp := res.Splits[0]
	require.Equal(t, SplitManyToOne, sp.Kind)
	require.ElementsMatch(t, []LedgerID{1, 2}, sp.LedgerIDs)
	require.Empty(t, res.UnmatchedLedger)
	require.Empty(t, res.UnmatchedStatement)
}

// Scenario E (spec.md §8): a split is rejected when candidate rows don't
// share a normalized reference, even though the amounts sum correctly.
func TestScenarioE_SplitRejectedOnReferenceMismatch(t *testing.T) {
	ledger := []LedgerRow{
		{ID: 1, Date: day(2024, 3, 10), HasDate: true, Reference: "ALPHA CO", Debit: cents("300.00")},
		{ID: 2, Date: day(2024, 3, 10), HasDate: true, Reference: "BETA LTD", Debit: cents("200.00")},
	}
	statement := []StatementRow{
		{ID: 1, Date: day(2024, 3, 10), HasDate: true, Reference: "GAMMA INC", Amount: cents("500.00")},
	}
	res := Reconcile(ledger, statement, DefaultSettings())
	require.Empty(t, res.Matched)
	require.Empty(t, res.Splits)
	require.Len(t, res.UnmatchedLedger, 2)
	require.Len(t, res.UnmatchedStatement, 1)
}

// Boundary: a zero-amount row never contributes to a split (zero amounts
// are excluded from indexing entirely).
func TestSplit_ZeroAmountNeverParticipates(t *testing.T) {
	ledger := []LedgerRow{
		{ID: 1, Date: day(2024, 3, 10), HasDate: true, Reference: "RENT MARCH", Debit: cents("500.00")},
		{ID: 2, Date: day(2024, 3, 10), HasDate: true, Reference: "RENT MARCH", Debit: cents("0.00")},
	}
	statement := []StatementRow{
		{ID: 1, Date: day(2024, 3, 10), HasDate: true, Reference: "RENT MARCH", Amount: cents("500.00")},
	}
	res := Reconcile(ledger, statement, DefaultSettings())
	require.Len(t, res.Matched, 1)
	require.Equal(t, LedgerID(1), res.Matched[0].LedgerID)
	require.Empty(t, res.Splits)
}

// Boundary: blank references never match each other.
func TestBlankReferencesNeverMatch(t *testing.T) {
	ledger := []LedgerRow{
		{ID: 1, Date: day(2024, 3, 1), HasDate: true, Reference: "", Debit: cents("50.00")},
	}
	statement := []StatementRow{
		{ID: 1, Date: day(2024, 3, 1), HasDate: true, Reference: "", Amount: cents("50.00")},
	}
	res := Reconcile(ledger, statement, DefaultSettings())
	require.Empty(t, res.Matched)
	require.Len(t, res.UnmatchedLedger, 1)
	require.Len(t, res.UnmatchedStatement, 1)
}

// Boundary: a blank statement reference still takes the first candidate
// with a non-blank ledger reference, matching fnb_workflow_gui_engine.py's
// else-branch condition (match_references false OR stmt_ref blank).
func TestBlankStatementRefMatchesFirstCandidateWithReference(t *testing.T) {
	ledger := []LedgerRow{
		{ID: 1, Date: day(2024, 3, 1), HasDate: true, Reference: "INV1001", Debit: cents("50.00")},
	}
	statement := []StatementRow{
		{ID: 1, Date: day(2024, 3, 1), HasDate: true, Reference: "", Amount: cents("50.00")},
	}
	res := Reconcile(ledger, statement, DefaultSettings())
	require.Len(t, res.Matched, 1)
	require.Equal(t, LedgerID(1), res.Matched[0].LedgerID)
	require.Equal(t, 100, res.Matched[0].Score)
}

// Boundary: ambiguous dates resolve consistently between ledger and statement.
func TestAmbiguousDateConsistentBothSides(t *testing.T) {
	settings := DefaultSettings()
	settings.MatchReferences = false
	settings.MatchAmounts = true
	ledgerDate, ok := dateparse.ParseDate("03/04/2024")
	require.True(t, ok)
	statementDate, ok := dateparse.ParseDate("03/04/2024")
	require.True(t, ok)
	ledger := []LedgerRow{
		{ID: 1, Date: ledgerDate, HasDate: true, Reference: "X", Debit: cents("10.00")},
	}
	statement := []StatementRow{
		{ID: 1, Date: statementDate, HasDate: true, Reference: "Y", Amount: cents("10.00")},
	}
	res := Reconcile(ledger, statement, settings)
	require.Len(t, res.Matched, 1)
}

func TestReconcile_NoCriteriaEnabledIsAFailure(t *testing.T) {
	settings := Settings{}
	res := Reconcile(nil, nil, settings)
	require.NotEmpty(t, res.Diagnostics.FailureReason)
}

func TestSubsetSum_GreedyPairPreferredOverLargerSubset(t *testing.T) {
	items := []sumItem[int]{
		{ID: 1, Cents: 100},
		{ID: 2, Cents: 100},
		{ID: 3, Cents: 150},
		{ID: 4, Cents: 50},
	}
	got := subsetSum(items, 200, 200, 6)
	require.Len(t, got, 2)
}

func TestSubsetSum_ThreeItemFallback(t *testing.T) {
	items := []sumItem[int]{
		{ID: 1, Cents: 100},
		{ID: 2, Cents: 90},
		{ID: 3, Cents: 110},
	}
	got := subsetSum(items, 300, 300, 6)
	require.ElementsMatch(t, []int{1, 2, 3}, got)
}

func TestSubsetSum_NoCandidateReturnsNil(t *testing.T) {
	items := []sumItem[int]{
		{ID: 1, Cents: 10},
		{ID: 2, Cents: 20},
	}
	got := subsetSum(items, 1000, 1000, 6)
	require.Nil(t, got)
}

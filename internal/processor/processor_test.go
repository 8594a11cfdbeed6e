package processor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadLedgerCSV_ParsesRequiredColumns(t *testing.T) {
	csvData := "date,reference,debit,credit\n2024-03-01,INV100,500.00,0.00\n2024-03-02,INV101,0.00,120.00\n"
	rows, err := readLedgerCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.True(t, rows[0].HasDate)
	require.Equal(t, "INV100", rows[0].Reference)
	require.EqualValues(t, 50000, rows[0].Debit)
	require.EqualValues(t, 12000, rows[1].Credit)
}

func TestReadLedgerCSV_MissingRequiredColumnErrors(t *testing.T) {
	csvData := "debit,credit\n100.00,0.00\n"
	_, err := readLedgerCSV(strings.NewReader(csvData))
	require.Error(t, err)
}

func TestReadStatementCSV_ParsesRequiredColumns(t *testing.T) {
	csvData := "date,reference,amount\n2024-03-01,INV100,500.00\n"
	rows, err := readStatementCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, 50000, rows[0].Amount)
}

func TestByWorkflow_UnknownNameFallsBackToGeneric(t *testing.T) {
	wf := byWorkflow("nonexistent")
	require.Equal(t, "generic", wf.Name)
}

func TestByWorkflow_KnownNamesResolve(t *testing.T) {
	require.Equal(t, "fnb", byWorkflow("FNB").Name)
	require.Equal(t, "absa", byWorkflow("absa").Name)
	require.Equal(t, "bidvest", byWorkflow("Bidvest").Name)
	require.Equal(t, "kazang", byWorkflow("kazang").Name)
}

func TestReadCorporateCSV_ParsesFlatTable(t *testing.T) {
	csvData := "reference,foreign_debit,foreign_credit,journal,comment\n" +
		"INV200,100.00,,157158,\n" +
		"Correcting J157158,,100.00,,Correcting J157158\n"
	rows, err := readCorporateCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "INV200", rows[0].Reference)
	require.EqualValues(t, 10000, rows[0].ForeignDebit)
	require.Equal(t, "157158", rows[0].Journal)
	require.Equal(t, "Correcting J157158", rows[1].Reference)
	require.EqualValues(t, 10000, rows[1].ForeignCredit)
}

func TestReadCorporateCSV_DerivesBlankReferenceFromComment(t *testing.T) {
	csvData := "reference,foreign_debit,foreign_credit,journal,comment\n" +
		",100.00,,,adjustment J12345 booked\n"
	rows, err := readCorporateCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Contains(t, rows[0].Reference, "J12345")
}

func TestReadCorporateCSV_MissingReferenceColumnErrors(t *testing.T) {
	csvData := "foreign_debit,foreign_credit\n100.00,0.00\n"
	_, err := readCorporateCSV(strings.NewReader(csvData))
	require.Error(t, err)
}

// Command reconcile runs the engine synchronously against a ledger and
// statement CSV pair and writes the result as JSON, grounded on
// pramudityad/golang-reconciliation-service's cmd/reconciler/cmd/reconcile.go
// (required file flags validated in PreRunE, viper-bound flags, console
// progress reporting).
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"reconcile-engine/internal/dateparse"
	"reconcile-engine/internal/extract"
	"reconcile-engine/internal/money"
	"reconcile-engine/internal/reconcile"
	"reconcile-engine/internal/workflow"
)

var (
	ledgerFile    string
	statementFile string
	workflowName  string
	outFile       string
	showProgress  bool
)

var rootCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a ledger against a bank statement",
	Long: `reconcile compares an internal ledger CSV against a bank statement CSV
and reports perfect, fuzzy, foreign-credit, and split matches. For the
corporate workflow, --ledger instead names the single combined CSV
(reference, foreign_debit, foreign_credit, journal, comment) and
--statement is not used.

Examples:
  reconcile --ledger ledger.csv --statement statement.csv
  reconcile --ledger ledger.csv --statement statement.csv --workflow fnb --out result.json
  reconcile --ledger combined.csv --workflow corporate --out result.json`,
	PreRunE: validateFlags,
	RunE:    run,
}

func init() {
	rootCmd.Flags().StringVarP(&ledgerFile, "ledger", "l", "", "path to ledger CSV file, or the combined CSV for --workflow corporate (required)")
	rootCmd.Flags().StringVarP(&statementFile, "statement", "s", "", "path to statement CSV file (required, except for --workflow corporate)")
	rootCmd.Flags().StringVarP(&workflowName, "workflow", "w", "generic", "workflow: generic, fnb, absa, bidvest, kazang, corporate")
	rootCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file path (default: stdout)")
	rootCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress on stderr")

	rootCmd.MarkFlagRequired("ledger")

	viper.BindPFlag("ledger", rootCmd.Flags().Lookup("ledger"))
	viper.BindPFlag("statement", rootCmd.Flags().Lookup("statement"))
	viper.BindPFlag("workflow", rootCmd.Flags().Lookup("workflow"))
	viper.BindPFlag("out", rootCmd.Flags().Lookup("out"))
	viper.BindPFlag("progress", rootCmd.Flags().Lookup("progress"))
}

func validateFlags(cmd *cobra.Command, args []string) error {
	ledgerFile = viper.GetString("ledger")
	statementFile = viper.GetString("statement")
	workflowName = viper.GetString("workflow")
	outFile = viper.GetString("out")
	showProgress = viper.GetBool("progress")

	if strings.EqualFold(workflowName, "corporate") {
		return validateFileExists(ledgerFile, "combined file")
	}

	if err := validateFileExists(ledgerFile, "ledger file"); err != nil {
		return err
	}
	if err := validateFileExists(statementFile, "statement file"); err != nil {
		return err
	}
	return nil
}

func validateFileExists(path, description string) error {
	if path == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, path)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, path)
	}
	return nil
}

// byWorkflowName resolves every bank-variant workflow except corporate,
// which bypasses Settings and reconcile.Reconcile entirely in favour of
// workflow.RunCorporate and is dispatched directly from run (spec.md §4.8).
func byWorkflowName(name string) workflow.Workflow {
	switch strings.ToLower(name) {
	case "fnb":
		return workflow.FNB()
	case "absa":
		return workflow.ABSA()
	case "bidvest":
		return workflow.Bidvest()
	case "kazang":
		return workflow.Kazang()
	default:
		return workflow.Workflow{Name: "generic", Settings: reconcile.DefaultSettings()}
	}
}

func run(cmd *cobra.Command, args []string) error {
	if strings.EqualFold(workflowName, "corporate") {
		return runCorporate()
	}

	ledgerRows, err := readLedger(ledgerFile)
	if err != nil {
		return fmt.Errorf("failed to read ledger file: %w", err)
	}
	statementRows, err := readStatement(statementFile)
	if err != nil {
		return fmt.Errorf("failed to read statement file: %w", err)
	}

	wf := byWorkflowName(workflowName)
	if showProgress {
		wf.Settings.OnProgress = func(percent int, stage string) {
			fmt.Fprintf(os.Stderr, "\r[%s] %d%%", stage, percent)
		}
	}

	result := wf.Run(ledgerRows, statementRows)

	if showProgress {
		fmt.Fprintln(os.Stderr)
	}

	if err := writeJSONOutput(result); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "perfect=%d fuzzy=%d foreign_credit=%d split=%d unmatched_ledger=%d unmatched_statement=%d\n",
		result.Counts.Perfect, result.Counts.Fuzzy, result.Counts.ForeignCredit, result.Counts.Split,
		result.Counts.UnmatchedLedger, result.Counts.UnmatchedStatement)

	return nil
}

// runCorporate reads the combined CSV named by --ledger and runs the
// five-batch matcher directly (spec.md §4.8), bypassing byWorkflowName and
// Workflow.Run the way the worker's processCorporateJob does.
func runCorporate() error {
	rows, err := readCorporate(ledgerFile)
	if err != nil {
		return fmt.Errorf("failed to read combined file: %w", err)
	}

	result := workflow.RunCorporate(rows)
	if !workflow.ValidateCorporate(rows, result) {
		fmt.Fprintln(os.Stderr, "warning: corporate result failed data-integrity check")
	}

	if err := writeJSONOutput(result); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "pairs=%d unmatched=%d\n", len(result.Pairs), len(result.Unmatched))
	return nil
}

func writeJSONOutput(v interface{}) error {
	var out *os.File
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	} else {
		out = os.Stdout
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

func readCorporate(path string) ([]workflow.CorporateRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := indexHeader(header)
	if _, ok := colMap["reference"]; !ok {
		return nil, fmt.Errorf("missing required column: reference")
	}

	var rows []workflow.CorporateRow
	var idx uint32
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		idx++
		row := workflow.CorporateRow{ID: idx}
		if i, ok := colMap["date"]; ok && i < len(record) {
			if t, ok := dateparse.ParseDate(record[i]); ok {
				row.Date = t
				row.HasDate = true
			}
		}
		if i, ok := colMap["comment"]; ok && i < len(record) {
			row.Comment = record[i]
		}
		if i, ok := colMap["reference"]; ok && i < len(record) {
			row.Reference = record[i]
		}
		if row.Reference == "" && row.Comment != "" {
			row.Reference = extract.CorporateReference(row.Comment)
		}
		if i, ok := colMap["foreign_debit"]; ok && i < len(record) {
			row.ForeignDebit = money.ParseAmount(record[i])
		}
		if i, ok := colMap["foreign_credit"]; ok && i < len(record) {
			row.ForeignCredit = money.ParseAmount(record[i])
		}
		if i, ok := colMap["journal"]; ok && i < len(record) {
			row.Journal = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readLedger(path string) ([]reconcile.LedgerRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := indexHeader(header)

	var rows []reconcile.LedgerRow
	var idx uint32
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		idx++
		row := reconcile.LedgerRow{ID: reconcile.LedgerID(idx)}
		if i, ok := colMap["date"]; ok && i < len(record) {
			if t, ok := dateparse.ParseDate(record[i]); ok {
				row.Date = t
				row.HasDate = true
			}
		}
		if i, ok := colMap["reference"]; ok && i < len(record) {
			row.Reference = record[i]
		}
		if i, ok := colMap["debit"]; ok && i < len(record) {
			row.Debit = money.ParseAmount(record[i])
		}
		if i, ok := colMap["credit"]; ok && i < len(record) {
			row.Credit = money.ParseAmount(record[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readStatement(path string) ([]reconcile.StatementRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := indexHeader(header)

	var rows []reconcile.StatementRow
	var idx uint32
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		idx++
		row := reconcile.StatementRow{ID: reconcile.StatementID(idx), Extra: map[string]string{}}
		if i, ok := colMap["date"]; ok && i < len(record) {
			if t, ok := dateparse.ParseDate(record[i]); ok {
				row.Date = t
				row.HasDate = true
			}
		}
		if i, ok := colMap["reference"]; ok && i < len(record) {
			row.Reference = record[i]
		}
		if i, ok := colMap["amount"]; ok && i < len(record) {
			row.Amount = money.ParseAmount(record[i])
		}
		if i, ok := colMap["description"]; ok && i < len(record) {
			row.Extra["description"] = record[i]
		}
		if i, ok := colMap["comment"]; ok && i < len(record) {
			row.Extra["comment"] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func indexHeader(header []string) map[string]int {
	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return colMap
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

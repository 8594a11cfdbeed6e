// Package processor turns a queued job's ledger and statement CSVs into
// a reconciliation run and persists the result, grounded on the
// teacher's internal/processor/processor.go CSV reading (column mapping
// by header). Every input row and result is inserted in one transaction
// once the engine has finished; the engine's progress callback is only
// logged, and the worker's batch counters are written once at the end.
package processor

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"reconcile-engine/internal/dateparse"
	"reconcile-engine/internal/extract"
	"reconcile-engine/internal/logging"
	"reconcile-engine/internal/money"
	"reconcile-engine/internal/reconcile"
	"reconcile-engine/internal/worker"
	"reconcile-engine/internal/workflow"
)

var log = logging.GetGlobalLogger().WithComponent("processor")

// byWorkflow resolves a job's declared bank-variant workflow name. Unknown
// or blank names run the generic engine with default Settings (spec.md
// §4.1). Corporate is dispatched separately in ProcessJob, before this
// function is ever reached: it bypasses Settings and reconcile.Reconcile
// entirely in favour of workflow.RunCorporate (spec.md §4.8, §C10), so it
// has no Workflow value to return here.
func byWorkflow(name string) workflow.Workflow {
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

// ProcessJob is the worker.Worker.ProcessJobFunc entry point (spec.md §6).
func ProcessJob(job *worker.Job, db *sqlx.DB, w *worker.Worker, workflowName string) error {
	log.WithFields(logging.Fields{"batch_id": job.BatchID}).Info("starting reconciliation")

	if strings.ToLower(strings.TrimSpace(workflowName)) == "corporate" {
		return processCorporateJob(job, db, w)
	}

	ledgerFile, err := os.Open(job.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer ledgerFile.Close()

	statementFile, err := os.Open(job.StatementPath)
	if err != nil {
		return fmt.Errorf("failed to open statement file: %w", err)
	}
	defer statementFile.Close()

	ledger, err := readLedgerCSV(ledgerFile)
	if err != nil {
		return fmt.Errorf("failed to read ledger csv: %w", err)
	}
	statement, err := readStatementCSV(statementFile)
	if err != nil {
		return fmt.Errorf("failed to read statement csv: %w", err)
	}

	wf := byWorkflow(workflowName)
	wf.Settings.ProgressEvery = w.ProgressEvery
	wf.Settings.OnProgress = func(percent int, stage string) {
		log.WithFields(logging.Fields{"batch_id": job.BatchID, "stage": stage, "percent": percent}).Debug("reconciliation progress")
	}

	result := wf.Run(ledger, statement)

	if err := persistResult(db, job.BatchID, ledger, statement, result); err != nil {
		return fmt.Errorf("failed to persist result: %w", err)
	}

	total := len(ledger) + len(statement)
	if err := w.SetBatchTotal(job.BatchID, total); err != nil {
		return fmt.Errorf("failed to set total rows: %w", err)
	}
	if err := w.UpdateBatchProgress(job.BatchID, total,
		result.Counts.Perfect, result.Counts.Fuzzy, result.Counts.ForeignCredit,
		result.Counts.Split, result.Counts.UnmatchedLedger+result.Counts.UnmatchedStatement); err != nil {
		log.WithError(err).Warn("failed to update final batch counts")
	}

	log.WithFields(logging.Fields{
		"batch_id": job.BatchID,
		"perfect":  result.Counts.Perfect,
		"fuzzy":    result.Counts.Fuzzy,
		"split":    result.Counts.Split,
	}).Info("reconciliation complete")

	if result.Diagnostics.FailureReason != "" {
		return fmt.Errorf("engine-level failure: %s", result.Diagnostics.FailureReason)
	}
	return nil
}

// processCorporateJob runs the Corporate five-batch matcher (spec.md §4.8)
// against the single combined CSV upload.Upload stores at both
// job.LedgerPath and job.StatementPath for this workflow (spec.md §C11).
func processCorporateJob(job *worker.Job, db *sqlx.DB, w *worker.Worker) error {
	f, err := os.Open(job.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to open corporate csv: %w", err)
	}
	defer f.Close()

	rows, err := readCorporateCSV(f)
	if err != nil {
		return fmt.Errorf("failed to read corporate csv: %w", err)
	}

	result := workflow.RunCorporate(rows)
	if !workflow.ValidateCorporate(rows, result) {
		log.WithFields(logging.Fields{"batch_id": job.BatchID}).Warn("corporate result failed data-integrity check")
	}

	if err := persistCorporateResult(db, job.BatchID, rows, result); err != nil {
		return fmt.Errorf("failed to persist corporate result: %w", err)
	}

	total := len(rows)
	if err := w.SetBatchTotal(job.BatchID, total); err != nil {
		return fmt.Errorf("failed to set total rows: %w", err)
	}
	if err := w.UpdateBatchProgress(job.BatchID, total, 0, 0, 0, len(result.Pairs), len(result.Unmatched)); err != nil {
		log.WithError(err).Warn("failed to update final batch counts")
	}

	log.WithFields(logging.Fields{
		"batch_id":  job.BatchID,
		"pairs":     len(result.Pairs),
		"unmatched": len(result.Unmatched),
	}).Info("corporate reconciliation complete")

	return nil
}

// readCorporateCSV reads the Corporate workflow's flat table (reference,
// foreign_debit, foreign_credit, journal, comment, and an optional date
// column). A blank reference column falls back to extract.CorporateReference
// applied to the comment, the same derivation the Corporate workflow has
// always used to turn free-text comments into references (spec.md §4.2).
func readCorporateCSV(r io.Reader) ([]workflow.CorporateRow, error) {
	reader := csv.NewReader(r)
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

// persistCorporateResult stores every input row in ledger_rows (Corporate's
// flat table has no ledger/statement distinction, so debit and credit both
// live on the same row) and records each resolved pairing as a splits row,
// reusing its two-bigint-array shape to hold [RowIDs[0]] / [RowIDs[1]]
// rather than a genuine ledger-side/statement-side split (spec.md §C10).
func persistCorporateResult(db *sqlx.DB, batchID string, rows []workflow.CorporateRow, result workflow.CorporateResult) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rowDBID := make(map[uint32]int64, len(rows))
	for i, r := range rows {
		extraJSON, err := json.Marshal(map[string]string{"journal": r.Journal, "comment": r.Comment})
		if err != nil {
			return fmt.Errorf("failed to marshal corporate row extra: %w", err)
		}
		var dbID int64
		err = tx.Get(&dbID, `
			INSERT INTO ledger_rows (batch_id, row_index, txn_date, reference, debit, credit, extra)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id
		`, batchID, i, corporateNullableDate(r), r.Reference, int64(r.ForeignDebit), int64(r.ForeignCredit), extraJSON)
		if err != nil {
			return fmt.Errorf("failed to insert corporate row: %w", err)
		}
		rowDBID[r.ID] = dbID
	}

	for _, p := range result.Pairs {
		_, err := tx.Exec(`
			INSERT INTO splits (batch_id, kind, score, ledger_row_ids, statement_row_ids)
			VALUES ($1, $2, $3, $4, $5)
		`, batchID, p.Batch.String(), 100,
			pqInt64Array([]int64{rowDBID[p.RowIDs[0]]}), pqInt64Array([]int64{rowDBID[p.RowIDs[1]]}))
		if err != nil {
			return fmt.Errorf("failed to insert corporate pairing: %w", err)
		}
	}

	return tx.Commit()
}

func corporateNullableDate(r workflow.CorporateRow) interface{} {
	if !r.HasDate {
		return nil
	}
	return r.Date
}

func readLedgerCSV(r io.Reader) ([]reconcile.LedgerRow, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := indexHeader(header)

	required := []string{"date", "reference"}
	for _, req := range required {
		if _, ok := colMap[req]; !ok {
			return nil, fmt.Errorf("missing required column: %s", req)
		}
	}

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
		row := reconcile.LedgerRow{ID: reconcile.LedgerID(idx), Extra: map[string]string{}}
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
		for name, i := range colMap {
			if i < len(record) {
				row.Extra[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readStatementCSV(r io.Reader) ([]reconcile.StatementRow, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := indexHeader(header)

	required := []string{"date", "amount"}
	for _, req := range required {
		if _, ok := colMap[req]; !ok {
			return nil, fmt.Errorf("missing required column: %s", req)
		}
	}

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
		for name, i := range colMap {
			if i < len(record) {
				row.Extra[name] = record[i]
			}
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

func persistResult(db *sqlx.DB, batchID string, ledger []reconcile.LedgerRow, statement []reconcile.StatementRow, result reconcile.Result) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ledgerRowID := make(map[reconcile.LedgerID]int64, len(ledger))
	for i, l := range ledger {
		var dbID int64
		err := tx.Get(&dbID, `
			INSERT INTO ledger_rows (batch_id, row_index, txn_date, reference, debit, credit)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id
		`, batchID, i, nullableDate(l), l.Reference, int64(l.Debit), int64(l.Credit))
		if err != nil {
			return fmt.Errorf("failed to insert ledger row: %w", err)
		}
		ledgerRowID[l.ID] = dbID
	}

	statementRowID := make(map[reconcile.StatementID]int64, len(statement))
	for i, s := range statement {
		var dbID int64
		err := tx.Get(&dbID, `
			INSERT INTO statement_rows (batch_id, row_index, txn_date, reference, amount)
			VALUES ($1, $2, $3, $4, $5) RETURNING id
		`, batchID, i, nullableStatementDate(s), s.Reference, int64(s.Amount))
		if err != nil {
			return fmt.Errorf("failed to insert statement row: %w", err)
		}
		statementRowID[s.ID] = dbID
	}

	for _, m := range result.Matched {
		_, err := tx.Exec(`
			INSERT INTO matches (batch_id, kind, score, ledger_row_id, statement_row_id)
			VALUES ($1, $2, $3, $4, $5)
		`, batchID, m.Kind.String(), m.Score, ledgerRowID[m.LedgerID], statementRowID[m.StatementID])
		if err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}
	}

	for _, sp := range result.Splits {
		var ledgerIDs, statementIDs []int64
		if sp.Kind == reconcile.SplitManyToOne {
			statementIDs = []int64{statementRowID[sp.StatementID]}
			for _, lid := range sp.LedgerIDs {
				ledgerIDs = append(ledgerIDs, ledgerRowID[lid])
			}
		} else {
			ledgerIDs = []int64{ledgerRowID[sp.LedgerID]}
			for _, sid := range sp.StatementIDs {
				statementIDs = append(statementIDs, statementRowID[sid])
			}
		}
		_, err := tx.Exec(`
			INSERT INTO splits (batch_id, kind, score, ledger_row_ids, statement_row_ids)
			VALUES ($1, $2, $3, $4, $5)
		`, batchID, sp.Kind.String(), sp.Score, pqInt64Array(ledgerIDs), pqInt64Array(statementIDs))
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	return tx.Commit()
}

func nullableDate(l reconcile.LedgerRow) interface{} {
	if !l.HasDate {
		return nil
	}
	return l.Date
}

func nullableStatementDate(s reconcile.StatementRow) interface{} {
	if !s.HasDate {
		return nil
	}
	return s.Date
}

// pqInt64Array formats a Postgres bigint[] literal directly; lib/pq's
// driver.Valuer for []int64 isn't registered outside pq.Array, and this
// keeps the insert on the same simple-protocol path as the rest of the
// worker's writes.
func pqInt64Array(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

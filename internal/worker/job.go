// Package worker polls reconciliation_jobs and hands each one to a
// ProcessJobFunc, grounded on the teacher's internal/worker/job.go
// claim/complete/fail state machine (FOR UPDATE SKIP LOCKED claiming,
// stale-job recovery, direct-formatted progress updates to dodge the
// Neon pooler's lack of prepared-statement support).
package worker

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"reconcile-engine/internal/config"
	"reconcile-engine/internal/logging"
)

// Job is one queued reconciliation run: a ledger file and a statement
// file belonging to the same batch, processed together by a Workflow
// (spec.md §6).
type Job struct {
	ID            string    `db:"id"`
	BatchID       string    `db:"batch_id"`
	LedgerPath    string    `db:"ledger_path"`
	StatementPath string    `db:"statement_path"`
	Status        string    `db:"status"`
	Attempts      int       `db:"attempts"`
	LastError     *string   `db:"last_error"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type Worker struct {
	DB             *sqlx.DB
	PollInterval   time.Duration
	StaleThreshold time.Duration
	MaxAttempts    int
	ProgressEvery  int
	ProcessJobFunc func(*Job) error
}

var log = logging.GetGlobalLogger().WithComponent("worker")

func NewWorker(dbConn *sqlx.DB, cfg config.Config) *Worker {
	return &Worker{
		DB:             dbConn,
		PollInterval:   cfg.JobPollInterval,
		StaleThreshold: 10 * time.Minute,
		MaxAttempts:    1,
		ProgressEvery:  cfg.BatchProgressUpdateEvery,
	}
}

func (w *Worker) Start() {
	log.WithFields(logging.Fields{
		"poll_interval":   w.PollInterval,
		"stale_threshold": w.StaleThreshold,
		"max_attempts":    w.MaxAttempts,
	}).Info("worker started")

	w.recoverStaleJobs()

	for {
		job, err := w.claimJob()
		if err != nil {
			log.WithError(err).Error("error claiming job")
			time.Sleep(w.PollInterval)
			continue
		}
		if job == nil {
			time.Sleep(w.PollInterval)
			continue
		}
		w.processJob(job)
	}
}

func (w *Worker) recoverStaleJobs() {
	query := `
		UPDATE reconciliation_jobs
		SET status = 'queued', updated_at = NOW()
		WHERE status = 'processing'
		AND updated_at < NOW() - $1::interval
	`
	result, err := w.DB.Exec(query, fmt.Sprintf("%d minutes", int(w.StaleThreshold.Minutes())))
	if err != nil {
		log.WithError(err).Warn("failed to recover stale jobs")
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		log.WithFields(logging.Fields{"count": rowsAffected}).Info("recovered stale jobs")
	}
}

func (w *Worker) claimJob() (*Job, error) {
	tx, err := w.DB.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, batch_id, ledger_path, statement_path, status, attempts, last_error, created_at, updated_at
		FROM reconciliation_jobs
		WHERE status = 'queued'
		   OR (status = 'processing' AND updated_at < NOW() - $1::interval)
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	var job Job
	err = tx.Get(&job, query, fmt.Sprintf("%d minutes", int(w.StaleThreshold.Minutes())))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE reconciliation_jobs
		SET status = 'processing', attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1
	`, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(logging.Fields{"job_id": job.ID, "batch_id": job.BatchID}).Info("claimed job")
	return &job, nil
}

func (w *Worker) processJob(job *Job) {
	startTime := time.Now()
	log.WithFields(logging.Fields{"job_id": job.ID, "batch_id": job.BatchID}).Info("processing job")

	_, err := w.DB.Exec(`
		UPDATE reconciliation_batches
		SET status = 'processing'
		WHERE id = $1 AND status = 'uploading'
	`, job.BatchID)
	if err != nil {
		log.WithError(err).Warn("failed to update batch status")
	}

	if w.ProcessJobFunc != nil {
		err = w.ProcessJobFunc(job)
	} else {
		log.Warn("ProcessJobFunc not set, placeholder processing")
		err = nil
	}

	duration := time.Since(startTime)
	if err != nil {
		w.failJob(job, err, duration)
	} else {
		w.completeJob(job, duration)
	}
}

func (w *Worker) completeJob(job *Job, duration time.Duration) {
	tx, err := w.DB.Beginx()
	if err != nil {
		log.WithError(err).Error("error beginning transaction for job completion")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`UPDATE reconciliation_jobs SET status = 'completed', updated_at = NOW() WHERE id = $1`, job.ID)
	if err != nil {
		log.WithError(err).Error("error updating job status")
		return
	}

	_, err = tx.Exec(`UPDATE reconciliation_batches SET status = 'completed', completed_at = NOW() WHERE id = $1`, job.BatchID)
	if err != nil {
		log.WithError(err).Error("error updating batch status")
		return
	}

	if err := tx.Commit(); err != nil {
		log.WithError(err).Error("error committing job completion")
		return
	}

	log.WithFields(logging.Fields{"job_id": job.ID, "batch_id": job.BatchID, "duration": duration}).Info("job completed")
}

func (w *Worker) failJob(job *Job, err error, duration time.Duration) {
	errorMsg := err.Error()
	log.WithFields(logging.Fields{"job_id": job.ID, "batch_id": job.BatchID, "duration": duration}).WithError(err).Error("job failed")

	tx, err2 := w.DB.Beginx()
	if err2 != nil {
		log.WithError(err2).Error("error beginning transaction for job failure")
		return
	}
	defer tx.Rollback()

	shouldRetry := job.Attempts+1 < w.MaxAttempts

	if shouldRetry {
		_, err2 = tx.Exec(`UPDATE reconciliation_jobs SET status = 'queued', last_error = $1, updated_at = NOW() WHERE id = $2`, errorMsg, job.ID)
	} else {
		_, err2 = tx.Exec(`UPDATE reconciliation_jobs SET status = 'failed', last_error = $1, updated_at = NOW() WHERE id = $2`, errorMsg, job.ID)
		if err2 == nil {
			_, err2 = tx.Exec(`UPDATE reconciliation_batches SET status = 'failed', completed_at = NOW() WHERE id = $1`, job.BatchID)
		}
	}

	if err2 != nil {
		log.WithError(err2).Error("error updating job failure status")
		return
	}
	if err2 := tx.Commit(); err2 != nil {
		log.WithError(err2).Error("error committing job failure")
		return
	}

	if shouldRetry {
		log.WithFields(logging.Fields{"job_id": job.ID, "attempts": job.Attempts + 1}).Info("job re-queued for retry")
	} else {
		log.WithFields(logging.Fields{"job_id": job.ID, "batch_id": job.BatchID}).Warn("job failed permanently")
	}
}

// UpdateBatchProgress updates batch counters. Formats the query directly
// (instead of a prepared statement) since the Neon pooler this targets
// doesn't support them; batchID is validated as a UUID first.
func (w *Worker) UpdateBatchProgress(batchID string, processed, perfect, fuzzy, foreignCredit, split, unmatched int) error {
	if _, err := uuid.Parse(batchID); err != nil {
		return fmt.Errorf("invalid batch ID: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE reconciliation_batches
		SET processed_count = %d,
		    perfect_count = %d,
		    fuzzy_count = %d,
		    foreign_credit_count = %d,
		    split_count = %d,
		    unmatched_count = %d
		WHERE id = '%s'
	`, processed, perfect, fuzzy, foreignCredit, split, unmatched, batchID)

	_, err := w.DB.DB.Exec(query)
	return err
}

// SetBatchTotal sets total_rows when processing completes.
func (w *Worker) SetBatchTotal(batchID string, total int) error {
	if _, err := uuid.Parse(batchID); err != nil {
		return fmt.Errorf("invalid batch ID: %w", err)
	}

	query := fmt.Sprintf(`UPDATE reconciliation_batches SET total_rows = %d WHERE id = '%s'`, total, batchID)
	_, err := w.DB.DB.Exec(query)
	return err
}

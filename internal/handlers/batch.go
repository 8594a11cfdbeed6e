package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

type BatchHandler struct {
	DB *sqlx.DB
}

type BatchResponse struct {
	BatchID        string `json:"batchId"`
	Workflow       string `json:"workflow"`
	Status         string `json:"status"`
	ProcessedCount int    `json:"processedCount"`
	TotalRows      *int   `json:"totalRows"`
	Counts         struct {
		Perfect       int `json:"perfect"`
		Fuzzy         int `json:"fuzzy"`
		ForeignCredit int `json:"foreignCredit"`
		Split         int `json:"split"`
		Unmatched     int `json:"unmatched"`
	} `json:"counts"`
	StartedAt       string   `json:"startedAt"`
	CompletedAt     *string  `json:"completedAt"`
	ProgressPercent *float64 `json:"progressPercent,omitempty"`
}

func NewBatchHandler(db *sqlx.DB) *BatchHandler {
	return &BatchHandler{DB: db}
}

func (h *BatchHandler) GetBatch(c echo.Context) error {
	batchID := c.Param("batchId")
	if len(batchID) != 36 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid batch id format"})
	}

	var batch struct {
		ID                 string        `db:"id"`
		Workflow           string        `db:"workflow"`
		Status             string        `db:"status"`
		ProcessedCount     int           `db:"processed_count"`
		TotalRows          sql.NullInt64 `db:"total_rows"`
		PerfectCount       int           `db:"perfect_count"`
		FuzzyCount         int           `db:"fuzzy_count"`
		ForeignCreditCount int           `db:"foreign_credit_count"`
		SplitCount         int           `db:"split_count"`
		UnmatchedCount     int           `db:"unmatched_count"`
		StartedAt          time.Time     `db:"started_at"`
		CompletedAt        sql.NullTime  `db:"completed_at"`
	}

	err := h.DB.Get(&batch, `
		SELECT id::text as id, workflow, status::text as status, processed_count, total_rows,
		       perfect_count, fuzzy_count, foreign_credit_count, split_count, unmatched_count,
		       started_at, completed_at
		FROM reconciliation_batches
		WHERE id = $1
	`, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "batch not found"})
		}
		c.Logger().Errorf("failed to fetch batch %s: %v", batchID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch batch"})
	}

	response := BatchResponse{
		BatchID:        batch.ID,
		Workflow:       batch.Workflow,
		Status:         batch.Status,
		ProcessedCount: batch.ProcessedCount,
		StartedAt:      batch.StartedAt.Format(time.RFC3339),
	}
	response.Counts.Perfect = batch.PerfectCount
	response.Counts.Fuzzy = batch.FuzzyCount
	response.Counts.ForeignCredit = batch.ForeignCreditCount
	response.Counts.Split = batch.SplitCount
	response.Counts.Unmatched = batch.UnmatchedCount

	if batch.TotalRows.Valid {
		total := int(batch.TotalRows.Int64)
		response.TotalRows = &total
		if total > 0 {
			percent := float64(batch.ProcessedCount) / float64(total) * 100.0
			if percent > 100.0 {
				percent = 100.0
			}
			response.ProgressPercent = &percent
		}
	}

	if batch.CompletedAt.Valid {
		completedAt := batch.CompletedAt.Time.Format(time.RFC3339)
		response.CompletedAt = &completedAt
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, response)
}

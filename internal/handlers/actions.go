package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"reconcile-engine/internal/logging"
)

type ActionsHandler struct {
	DB *sqlx.DB
}

type ActionRequest struct {
	Notes string `json:"notes"`
}

type BulkConfirmRequest struct {
	BatchID string `json:"batchId"`
	Notes   string `json:"notes"`
}

var actionsLog = logging.GetGlobalLogger().WithComponent("actions_handler")

func NewActionsHandler(db *sqlx.DB) *ActionsHandler {
	return &ActionsHandler{DB: db}
}

// ConfirmMatch confirms an auto_matched match, recording an audit entry.
func (h *ActionsHandler) ConfirmMatch(c echo.Context) error {
	return h.transitionMatch(c, "confirmed", "confirmed")
}

// RejectMatch rejects an auto_matched match, recording an audit entry.
func (h *ActionsHandler) RejectMatch(c echo.Context) error {
	return h.transitionMatch(c, "rejected", "rejected")
}

func (h *ActionsHandler) transitionMatch(c echo.Context, newStatus, action string) error {
	matchID := c.Param("id")

	var req ActionRequest
	_ = c.Bind(&req) // notes are optional

	tx, err := h.DB.Beginx()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to begin transaction"})
	}
	defer tx.Rollback()

	var current struct {
		Status string `db:"status"`
	}
	err = tx.Get(&current, `SELECT status FROM matches WHERE id = $1 FOR UPDATE`, matchID)
	if err == sql.ErrNoRows {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "match not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch match"})
	}

	if current.Status == newStatus {
		return c.JSON(http.StatusOK, map[string]string{"message": "already " + newStatus})
	}
	if current.Status != "auto_matched" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("cannot %s match with status %s", action, current.Status),
		})
	}

	if _, err := tx.Exec(`UPDATE matches SET status = $1 WHERE id = $2`, newStatus, matchID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update match"})
	}

	if _, err := tx.Exec(`
		INSERT INTO match_audit_logs (match_id, action, notes, created_at)
		VALUES ($1, $2, $3, NOW())
	`, matchID, action, req.Notes); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create audit log"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to commit transaction"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "match " + action})
}

// ConfirmSplit confirms a split (spec.md §4.7's many-to-one/one-to-many
// outcomes), mirroring transitionMatch against the splits table.
func (h *ActionsHandler) ConfirmSplit(c echo.Context) error {
	return h.transitionSplit(c, "confirmed", "confirmed")
}

// RejectSplit rejects a split.
func (h *ActionsHandler) RejectSplit(c echo.Context) error {
	return h.transitionSplit(c, "rejected", "rejected")
}

func (h *ActionsHandler) transitionSplit(c echo.Context, newStatus, action string) error {
	splitID := c.Param("id")

	var req ActionRequest
	_ = c.Bind(&req)

	tx, err := h.DB.Beginx()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to begin transaction"})
	}
	defer tx.Rollback()

	var current struct {
		Status string `db:"status"`
	}
	err = tx.Get(&current, `SELECT status FROM splits WHERE id = $1 FOR UPDATE`, splitID)
	if err == sql.ErrNoRows {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "split not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch split"})
	}
	if current.Status != "auto_matched" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("cannot %s split with status %s", action, current.Status),
		})
	}

	if _, err := tx.Exec(`UPDATE splits SET status = $1 WHERE id = $2`, newStatus, splitID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update split"})
	}
	if _, err := tx.Exec(`
		INSERT INTO match_audit_logs (split_id, action, notes, created_at)
		VALUES ($1, $2, $3, NOW())
	`, splitID, action, req.Notes); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create audit log"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to commit transaction"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "split " + action})
}

// BulkConfirm confirms every auto_matched match in a batch in one
// set-based update, grounded on the teacher's CTE-based bulk confirm.
func (h *ActionsHandler) BulkConfirm(c echo.Context) error {
	var req BulkConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if _, err := uuid.Parse(req.BatchID); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid batch id"})
	}

	startTime := time.Now()

	tx, err := h.DB.Beginx()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to begin transaction"})
	}
	defer tx.Rollback()

	query := `
		WITH updated AS (
			UPDATE matches
			SET status = 'confirmed'
			WHERE batch_id = $1 AND status = 'auto_matched'
			RETURNING id
		)
		INSERT INTO match_audit_logs (match_id, action, notes, created_at)
		SELECT updated.id, 'confirmed', $2, NOW() FROM updated
	`
	result, err := tx.Exec(query, req.BatchID, req.Notes)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to bulk confirm"})
	}
	rowsAffected, _ := result.RowsAffected()

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to commit transaction"})
	}

	duration := time.Since(startTime)
	actionsLog.WithFields(logging.Fields{"batch_id": req.BatchID, "confirmed": rowsAffected, "duration": duration}).Info("bulk confirm")

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "bulk confirm completed",
		"confirmed": rowsAffected,
		"duration":  duration.String(),
	})
}

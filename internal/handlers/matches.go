// Package handlers serves the reconciliation API: upload, batch status,
// and listing/actioning the matches, splits and unmatched rows a batch
// produced. Grounded on the teacher's internal/handlers/transactions.go
// cursor-pagination shape (base64 (created_at, id) cursor, status filter,
// clamped limit).
package handlers

import (
	"database/sql"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

type MatchesHandler struct {
	DB *sqlx.DB
}

func NewMatchesHandler(db *sqlx.DB) *MatchesHandler {
	return &MatchesHandler{DB: db}
}

type MatchItem struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	Score           int    `json:"score"`
	LedgerRowID     string `json:"ledgerRowId"`
	StatementRowID  string `json:"statementRowId"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
}

type SplitItem struct {
	ID               string   `json:"id"`
	Kind             string   `json:"kind"`
	Score            int      `json:"score"`
	LedgerRowIDs     []string `json:"ledgerRowIds"`
	StatementRowIDs  []string `json:"statementRowIds"`
	Status           string   `json:"status"`
	CreatedAt        string   `json:"createdAt"`
}

type MatchesResponse struct {
	Items      []MatchItem `json:"items"`
	NextCursor *string     `json:"nextCursor"`
}

// ListMatches returns a page of matches for a batch, newest first,
// optionally filtered by status ("auto_matched", "confirmed", "rejected").
func (h *MatchesHandler) ListMatches(c echo.Context) error {
	batchID := c.Param("batchId")
	if _, err := uuid.Parse(batchID); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid batchId format"})
	}

	status := c.QueryParam("status")
	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
		limit = parsed
		if limit > 200 {
			limit = 200
		}
	}

	var cursorCreatedAt *time.Time
	var cursorID *string
	if cursor := c.QueryParam("cursor"); cursor != "" {
		createdAt, id, err := decodeCursor(cursor)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid cursor"})
		}
		cursorCreatedAt = &createdAt
		cursorID = &id
	}

	query := `
		SELECT id::text, kind, score, ledger_row_id::text, statement_row_id::text, status::text, created_at
		FROM matches
		WHERE batch_id = $1`
	args := []interface{}{batchID}
	argNum := 2
	if status != "" && status != "all" {
		query += ` AND status = $` + strconv.Itoa(argNum)
		args = append(args, status)
		argNum++
	}
	if cursorCreatedAt != nil {
		query += ` AND (created_at, id) < ($` + strconv.Itoa(argNum) + `, $` + strconv.Itoa(argNum+1) + `)`
		args = append(args, *cursorCreatedAt, *cursorID)
		argNum += 2
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(argNum)
	args = append(args, limit)

	type dbRow struct {
		ID             string    `db:"id"`
		Kind           string    `db:"kind"`
		Score          int       `db:"score"`
		LedgerRowID    string    `db:"ledger_row_id"`
		StatementRowID string    `db:"statement_row_id"`
		Status         string    `db:"status"`
		CreatedAt      time.Time `db:"created_at"`
	}

	var rows []dbRow
	if err := h.DB.Select(&rows, query, args...); err != nil {
		c.Logger().Errorf("failed to list matches for batch %s: %v", batchID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list matches"})
	}

	resp := MatchesResponse{Items: make([]MatchItem, 0, len(rows))}
	for _, r := range rows {
		resp.Items = append(resp.Items, MatchItem{
			ID:             r.ID,
			Kind:           r.Kind,
			Score:          r.Score,
			LedgerRowID:    r.LedgerRowID,
			StatementRowID: r.StatementRowID,
			Status:         r.Status,
			CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		})
	}
	if len(rows) == limit {
		next := encodeCursor(rows[len(rows)-1].CreatedAt, rows[len(rows)-1].ID)
		resp.NextCursor = &next
	}

	return c.JSON(http.StatusOK, resp)
}

// ListUnmatched returns the ledger or statement rows a batch left
// unmatched (spec.md §4.10's terminal output for rows no phase resolved).
func (h *MatchesHandler) ListUnmatched(c echo.Context) error {
	batchID := c.Param("batchId")
	if _, err := uuid.Parse(batchID); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid batchId format"})
	}
	side := c.QueryParam("side")
	if side != "ledger" && side != "statement" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "side must be 'ledger' or 'statement'"})
	}

	var table, amountCol string
	if side == "ledger" {
		table, amountCol = "ledger_rows", "GREATEST(debit, credit)"
	} else {
		table, amountCol = "statement_rows", "amount"
	}
	matchCol := "ledger_row_id"
	if side == "statement" {
		matchCol = "statement_row_id"
	}

	query := fmt.Sprintf(`
		SELECT r.id::text, r.txn_date, r.reference, %s AS amount
		FROM %s r
		WHERE r.batch_id = $1
		AND NOT EXISTS (SELECT 1 FROM matches m WHERE m.%s = r.id)
		AND NOT EXISTS (SELECT 1 FROM splits sp WHERE sp.batch_id = r.batch_id AND r.id = ANY(sp.%ss))
		ORDER BY r.row_index ASC
	`, amountCol, table, matchCol, matchCol)

	type dbRow struct {
		ID        string         `db:"id"`
		TxnDate   sql.NullTime   `db:"txn_date"`
		Reference sql.NullString `db:"reference"`
		Amount    int64          `db:"amount"`
	}
	var rows []dbRow
	if err := h.DB.Select(&rows, query, batchID); err != nil {
		c.Logger().Errorf("failed to list unmatched %s rows for batch %s: %v", side, batchID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list unmatched rows"})
	}

	type item struct {
		ID        string  `json:"id"`
		Date      *string `json:"date"`
		Reference string  `json:"reference"`
		Amount    int64   `json:"amountCents"`
	}
	items := make([]item, 0, len(rows))
	for _, r := range rows {
		it := item{ID: r.ID, Reference: r.Reference.String, Amount: r.Amount}
		if r.TxnDate.Valid {
			s := r.TxnDate.Time.Format("2006-01-02")
			it.Date = &s
		}
		items = append(items, it)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", err
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("malformed cursor")
	}
	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", err
	}
	return t, parts[1], nil
}

func encodeCursor(t time.Time, id string) string {
	raw := t.Format(time.RFC3339Nano) + "|" + id
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

type UploadHandler struct {
	DB        *sqlx.DB
	UploadDir string
	MaxSize   int64
}

type UploadResponse struct {
	BatchID string `json:"batchId"`
	Status  string `json:"status"`
}

func NewUploadHandler(db *sqlx.DB, uploadDir string) *UploadHandler {
	return &UploadHandler{
		DB:        db,
		UploadDir: uploadDir,
		MaxSize:   50 * 1024 * 1024,
	}
}

// Upload accepts either a ledger CSV and a statement CSV as two multipart
// form fields, or, for the Corporate workflow (workflow=corporate), a
// single combined CSV as a "file" field (spec.md §4.1-§4.8, §C11). An
// optional "workflow" field names the bank variant; blank runs the generic
// engine. Corporate's combined CSV is stored at both ledger_path and
// statement_path, since reconciliation_jobs has no third file column and
// the worker's processCorporateJob only ever reads the ledger_path side.
func (h *UploadHandler) Upload(c echo.Context) error {
	workflow := strings.ToLower(strings.TrimSpace(c.FormValue("workflow")))
	if workflow == "" {
		workflow = "generic"
	}

	if workflow == "corporate" {
		return h.uploadCorporate(c, workflow)
	}

	ledgerHeader, err := c.FormFile("ledger")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no ledger file provided"})
	}
	statementHeader, err := c.FormFile("statement")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no statement file provided"})
	}

	if ledgerHeader.Size > h.MaxSize {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": fmt.Sprintf("ledger file exceeds maximum size of %d bytes", h.MaxSize)})
	}
	if statementHeader.Size > h.MaxSize {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": fmt.Sprintf("statement file exceeds maximum size of %d bytes", h.MaxSize)})
	}

	if err := validateCSVUpload(ledgerHeader); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "ledger file: " + err.Error()})
	}
	if err := validateCSVUpload(statementHeader); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "statement file: " + err.Error()})
	}

	batchID := uuid.New().String()

	if err := os.MkdirAll(h.UploadDir, 0755); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create upload directory"})
	}

	ledgerPath := filepath.Join(h.UploadDir, batchID+"-ledger.csv")
	if err := saveUpload(ledgerHeader, ledgerPath); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save ledger file: " + err.Error()})
	}
	statementPath := filepath.Join(h.UploadDir, batchID+"-statement.csv")
	if err := saveUpload(statementHeader, statementPath); err != nil {
		os.Remove(ledgerPath)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save statement file: " + err.Error()})
	}

	return h.createBatch(c, batchID, ledgerHeader.Filename+" / "+statementHeader.Filename, workflow, ledgerPath, statementPath)
}

// uploadCorporate handles the single-combined-CSV form Corporate batches
// take: one "file" field instead of separate "ledger"/"statement" fields.
func (h *UploadHandler) uploadCorporate(c echo.Context, workflow string) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no file provided"})
	}
	if fileHeader.Size > h.MaxSize {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": fmt.Sprintf("file exceeds maximum size of %d bytes", h.MaxSize)})
	}
	if err := validateCSVUpload(fileHeader); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file: " + err.Error()})
	}

	batchID := uuid.New().String()

	if err := os.MkdirAll(h.UploadDir, 0755); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create upload directory"})
	}

	combinedPath := filepath.Join(h.UploadDir, batchID+"-combined.csv")
	if err := saveUpload(fileHeader, combinedPath); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save file: " + err.Error()})
	}

	return h.createBatch(c, batchID, fileHeader.Filename, workflow, combinedPath, combinedPath)
}

func (h *UploadHandler) createBatch(c echo.Context, batchID, filename, workflow, ledgerPath, statementPath string) error {
	tx, err := h.DB.Beginx()
	if err != nil {
		os.Remove(ledgerPath)
		os.Remove(statementPath)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to begin transaction"})
	}

	_, err = tx.Exec(`
		INSERT INTO reconciliation_batches (id, filename, workflow, status, started_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, batchID, filename, workflow, "processing")
	if err != nil {
		tx.Rollback()
		os.Remove(ledgerPath)
		os.Remove(statementPath)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create batch"})
	}

	_, err = tx.Exec(`
		INSERT INTO reconciliation_jobs (batch_id, ledger_path, statement_path, status, attempts)
		VALUES ($1, $2, $3, $4, $5)
	`, batchID, ledgerPath, statementPath, "queued", 0)
	if err != nil {
		tx.Rollback()
		os.Remove(ledgerPath)
		os.Remove(statementPath)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create job"})
	}

	if err := tx.Commit(); err != nil {
		os.Remove(ledgerPath)
		os.Remove(statementPath)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to commit transaction"})
	}

	return c.JSON(http.StatusCreated, UploadResponse{BatchID: batchID, Status: "processing"})
}

func validateCSVUpload(file *multipart.FileHeader) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file")
	}
	defer src.Close()

	reader := csv.NewReader(src)
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("invalid CSV: cannot read header")
	}
	return nil
}

func saveUpload(file *multipart.FileHeader, destPath string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file")
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file")
	}

	written, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		os.Remove(destPath)
		return fmt.Errorf("failed to write file")
	}
	dst.Close()

	if written == 0 {
		os.Remove(destPath)
		return fmt.Errorf("file is empty")
	}
	return nil
}

package handler

import (
	"encoding/csv"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wisebook-closure-backend/internal/models"
	"wisebook-closure-backend/internal/services/closure"
	"wisebook-closure-backend/internal/services/statements"
)

type ReconciliationHandler struct {
	service *closure.Service
}

func NewReconciliationHandler(s *closure.Service) *ReconciliationHandler {
	return &ReconciliationHandler{service: s}
}

// UploadStatement receives a bank statement (CSV or XLSX), creates a
// run and matches it against the period's cash ledger in the background.
func (h *ReconciliationHandler) UploadStatement(c *gin.Context) {
	periodID, err := uuid.Parse(c.PostForm("period_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period ID"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	parsed, err := statements.Parse(header.Filename, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.service.CreateRun(periodID, header.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	go h.service.ProcessStatement(run, parsed)

	c.JSON(http.StatusAccepted, gin.H{
		"run_id": run.ID.String(),
		"status": "processing",
		"lines":  len(parsed),
	})
}

func (h *ReconciliationHandler) GetRunProgress(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}
	progress, err := h.service.RunProgress(runID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *ReconciliationHandler) ListResults(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}

	status := c.Query("status")
	cursor := c.Query("cursor")
	search := c.Query("search")
	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}

	items, nextCursor, hasMore := h.service.ListResults(runID, status, cursor, limit, search)
	stats, _ := h.service.RunStats(runID)

	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"next_cursor": nextCursor,
		"has_more":    hasMore,
		"stats":       stats,
	})
}

func (h *ReconciliationHandler) GetRunStats(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}
	stats, err := h.service.RunStats(runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ReconciliationHandler) ConfirmResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result ID"})
		return
	}
	result, err := h.service.ConfirmResult(id, performedBy(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "result confirmed", "result": result})
}

func (h *ReconciliationHandler) RejectResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result ID"})
		return
	}
	var payload struct {
		Reason string `json:"reason"`
	}
	_ = c.BindJSON(&payload)

	result, err := h.service.RejectResult(id, performedBy(c), payload.Reason)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "result rejected", "result": result})
}

func (h *ReconciliationHandler) ManualMatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result ID"})
		return
	}
	var payload struct {
		LedgerLineID string `json:"ledger_line_id"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	ledgerLineID, err := uuid.Parse(payload.LedgerLineID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ledger line ID"})
		return
	}

	result, err := h.service.ManualMatch(id, ledgerLineID, performedBy(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "result manually matched", "result": result})
}

func (h *ReconciliationHandler) BulkConfirmMatched(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}
	count, err := h.service.BulkConfirmMatched(runID, performedBy(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "bulk confirm completed",
		"results_updated": count,
	})
}

// UploadLedgerLines ingests a CSV snapshot of receivables/payables.
// Columns: account_code, counterparty_id, counterparty_name,
// invoice_ref, issue_date, due_date (may be empty), gross_amount,
// settled_amount.
func (h *ReconciliationHandler) UploadLedgerLines(c *gin.Context) {
	periodID, err := uuid.Parse(c.PostForm("period_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period ID"})
		return
	}
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	lines, skipped := parseLedgerCSV(file)
	inserted, err := h.service.ImportLedgerLines(periodID, lines)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines_added": inserted, "rows_skipped": skipped})
}

// UploadCashLines ingests cash-account ledger entries, same column
// layout as a bank statement: date, label, reference, amount.
func (h *ReconciliationHandler) UploadCashLines(c *gin.Context) {
	periodID, err := uuid.Parse(c.PostForm("period_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period ID"})
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	parsed, err := statements.Parse(header.Filename, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lines := make([]models.LedgerCashLine, 0, len(parsed))
	for _, p := range parsed {
		lines = append(lines, models.LedgerCashLine{
			Date:      p.Date,
			Amount:    p.Amount,
			Reference: p.Reference,
			Label:     p.Label,
		})
	}
	inserted, err := h.service.ImportCashLines(periodID, lines)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines_added": inserted})
}

func parseLedgerCSV(r io.Reader) ([]models.LedgerLine, int) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip header
	_, _ = reader.Read()

	var lines []models.LedgerLine
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(record) < 8 {
			skipped++
			continue
		}
		if strings.Join(record, "") == "" {
			continue
		}

		issueDate, err := parseCSVDate(record[4])
		if err != nil {
			skipped++
			continue
		}
		gross, err := decimal.NewFromString(strings.TrimSpace(record[6]))
		if err != nil {
			skipped++
			continue
		}
		settled, err := decimal.NewFromString(strings.TrimSpace(record[7]))
		if err != nil || settled.IsNegative() || settled.GreaterThan(gross) {
			skipped++
			continue
		}

		line := models.LedgerLine{
			AccountCode:      strings.TrimSpace(record[0]),
			CounterpartyID:   strings.TrimSpace(record[1]),
			CounterpartyName: strings.TrimSpace(record[2]),
			InvoiceRef:       strings.TrimSpace(record[3]),
			IssueDate:        issueDate,
			GrossAmount:      gross,
			SettledAmount:    settled,
		}
		if due := strings.TrimSpace(record[5]); due != "" {
			dueDate, err := parseCSVDate(due)
			if err != nil {
				skipped++
				continue
			}
			line.DueDate = &dueDate
		}
		lines = append(lines, line)
	}
	return lines, skipped
}

func parseCSVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		d, err = time.Parse("02/01/2006", s)
	}
	return d, err
}

func performedBy(c *gin.Context) string {
	if user := c.GetHeader("X-User"); user != "" {
		return user
	}
	return "anonymous"
}

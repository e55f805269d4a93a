package closure

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wisebook-closure-backend/internal/models"
	"wisebook-closure-backend/internal/services/matching"
	"wisebook-closure-backend/internal/services/statements"
)

// CreateRun registers a new reconciliation run for a statement file.
func (s *Service) CreateRun(periodID uuid.UUID, filename string) (*models.ReconciliationRun, error) {
	run := &models.ReconciliationRun{
		ID:        uuid.New(),
		PeriodID:  periodID,
		Filename:  filename,
		Status:    "processing",
		StartedAt: time.Now(),
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, err
	}
	s.progressCache.Store(run.ID, &Progress{Status: "processing"})
	return run, nil
}

// ProcessStatement stores the parsed statement lines, runs the matcher
// against the period's cash ledger and persists one result per output
// pairing. Invoked in the background by the upload handler.
func (s *Service) ProcessStatement(run *models.ReconciliationRun, parsed []statements.ParsedLine) {
	if err := s.processStatement(run, parsed); err != nil {
		s.log.WithFields(logrus.Fields{
			"module":   "closure",
			"funcName": "ProcessStatement",
			"runId":    run.ID.String(),
		}).Error(err.Error())
		s.failRun(run.ID)
	}
}

func (s *Service) processStatement(run *models.ReconciliationRun, parsed []statements.ParsedLine) error {
	now := time.Now()
	bankLines := make([]models.BankStatementLine, 0, len(parsed))
	for _, p := range parsed {
		bankLines = append(bankLines, models.BankStatementLine{
			ID:        uuid.New(),
			RunID:     run.ID,
			Date:      p.Date,
			Amount:    p.Amount,
			Reference: p.Reference,
			Label:     p.Label,
			CreatedAt: now,
		})
	}
	if len(bankLines) > 0 {
		if err := s.db.Create(&bankLines).Error; err != nil {
			return err
		}
	}

	cashLines, err := s.ledgerRepo.CashLinesByPeriod(run.PeriodID)
	if err != nil {
		return err
	}

	s.updateProgress(run.ID, 0, len(bankLines))

	matched, err := matching.Match(bankLines, cashLines, s.tolerance)
	if err != nil {
		return err
	}

	counters := map[string]int{}
	for i, m := range matched {
		result := s.toResult(run.ID, m)
		if err := s.db.Create(result).Error; err != nil {
			return err
		}
		counters[m.Status]++
		if (i+1)%100 == 0 {
			s.updateProgress(run.ID, i+1, len(matched))
		}
	}

	completedAt := time.Now()
	err = s.db.Model(&models.ReconciliationRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"total_lines":       len(bankLines),
			"processed_count":   len(matched),
			"matched_count":     counters[matching.StatusMatched],
			"suggested_count":   counters[matching.StatusSuggested],
			"discrepancy_count": counters[matching.StatusDiscrepancy],
			"unmatched_count":   counters[matching.StatusUnmatchedBank] + counters[matching.StatusUnmatchedLedger],
			"status":            "completed",
			"completed_at":      completedAt,
		}).Error
	if err != nil {
		return err
	}

	s.markProgress(run.ID, len(matched), "completed")
	return nil
}

func (s *Service) toResult(runID uuid.UUID, m matching.Result) *models.ReconciliationResult {
	result := &models.ReconciliationResult{
		ID:          uuid.New(),
		RunID:       runID,
		Status:      m.Status,
		Confidence:  m.Confidence,
		AmountDelta: m.AmountDelta,
		CreatedAt:   time.Now(),
	}

	details := map[string]interface{}{
		"decision": m.Status,
	}
	if m.Bank != nil {
		result.BankLineID = &m.Bank.ID
		result.Amount = m.Bank.Amount
		result.Label = m.Bank.Label
		details["bank_reference"] = m.Bank.Reference
		details["bank_date"] = m.Bank.Date.Format("2006-01-02")
	}
	if m.Ledger != nil {
		result.LedgerLineID = &m.Ledger.ID
		if m.Bank == nil {
			result.Amount = m.Ledger.Amount
			result.Label = m.Ledger.Label
		}
		details["ledger_reference"] = m.Ledger.Reference
		details["ledger_date"] = m.Ledger.Date.Format("2006-01-02")
	}
	if m.Status == matching.StatusSuggested {
		details["confidence"] = m.Confidence
	}
	if m.Status == matching.StatusDiscrepancy {
		details["amount_delta"] = m.AmountDelta.String()
	}

	detailsJSON, _ := json.Marshal(details)
	result.MatchDetails = detailsJSON
	return result
}

func (s *Service) updateProgress(runID uuid.UUID, count, total int) {
	val, _ := s.progressCache.LoadOrStore(runID, &Progress{Status: "processing"})
	p := val.(*Progress)
	p.ProcessedCount = count
	p.Total = total
	s.progressCache.Store(runID, p)
}

func (s *Service) markProgress(runID uuid.UUID, total int, status string) {
	s.progressCache.Store(runID, &Progress{ProcessedCount: total, Total: total, Status: status})
}

func (s *Service) failRun(runID uuid.UUID) {
	s.markProgress(runID, 0, "failed")
	_ = s.db.Model(&models.ReconciliationRun{}).
		Where("id = ?", runID).
		Update("status", "failed").Error
}

func (s *Service) GetRun(runID uuid.UUID) (*models.ReconciliationRun, error) {
	var run models.ReconciliationRun
	if err := s.db.First(&run, "id = ?", runID).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// RunProgress prefers the in-memory cache and falls back to the stored run.
func (s *Service) RunProgress(runID uuid.UUID) (*Progress, error) {
	if val, ok := s.progressCache.Load(runID); ok {
		return val.(*Progress), nil
	}
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	return &Progress{
		ProcessedCount: run.ProcessedCount,
		Total:          run.TotalLines,
		Status:         run.Status,
	}, nil
}

// ListResults pages through a run's results with optional status and
// label search filters, cursor-based on ascending result ID.
func (s *Service) ListResults(runID uuid.UUID, status, cursor string, limit int, search string) ([]models.ReconciliationResult, string, bool) {
	var results []models.ReconciliationResult
	query := s.db.
		Where("run_id = ?", runID).
		Order("id ASC").
		Limit(limit + 1)

	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if cursor != "" {
		query = query.Where("id > ?", cursor)
	}
	if search != "" {
		likeQuery := "%" + search + "%"
		query = query.Where(
			"label ILIKE ? OR CAST(amount AS TEXT) LIKE ?",
			likeQuery, likeQuery,
		)
	}

	query.Find(&results)

	hasMore := false
	var nextCursor string
	if len(results) > limit {
		hasMore = true
		nextCursor = results[limit-1].ID.String()
		results = results[:limit]
	}
	return results, nextCursor, hasMore
}

type RunStats struct {
	Total       int64           `json:"total"`
	TotalAmount decimal.Decimal `json:"total_amount"`

	MatchedCount int64           `json:"matched_count"`
	MatchedSum   decimal.Decimal `json:"matched_sum"`

	SuggestedCount int64           `json:"suggested_count"`
	SuggestedSum   decimal.Decimal `json:"suggested_sum"`

	DiscrepancyCount int64           `json:"discrepancy_count"`
	DiscrepancySum   decimal.Decimal `json:"discrepancy_sum"`

	UnmatchedCount int64           `json:"unmatched_count"`
	UnmatchedSum   decimal.Decimal `json:"unmatched_sum"`

	ConfirmedCount int64           `json:"confirmed_count"`
	ConfirmedSum   decimal.Decimal `json:"confirmed_sum"`
}

type statRow struct {
	Status string
	Count  int64
	Sum    decimal.Decimal
}

func (s *Service) RunStats(runID uuid.UUID) (RunStats, error) {
	stats := RunStats{
		TotalAmount:    decimal.Zero,
		MatchedSum:     decimal.Zero,
		SuggestedSum:   decimal.Zero,
		DiscrepancySum: decimal.Zero,
		UnmatchedSum:   decimal.Zero,
		ConfirmedSum:   decimal.Zero,
	}
	var rows []statRow

	err := s.db.Model(&models.ReconciliationResult{}).
		Where("run_id = ?", runID).
		Select("status, COUNT(*) as count, COALESCE(SUM(amount),0) as sum").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return stats, err
	}

	for _, r := range rows {
		stats.Total += r.Count
		stats.TotalAmount = stats.TotalAmount.Add(r.Sum)

		switch r.Status {
		case matching.StatusMatched:
			stats.MatchedCount = r.Count
			stats.MatchedSum = r.Sum
		case matching.StatusSuggested:
			stats.SuggestedCount = r.Count
			stats.SuggestedSum = r.Sum
		case matching.StatusDiscrepancy:
			stats.DiscrepancyCount = r.Count
			stats.DiscrepancySum = r.Sum
		case matching.StatusUnmatchedBank, matching.StatusUnmatchedLedger:
			stats.UnmatchedCount += r.Count
			stats.UnmatchedSum = stats.UnmatchedSum.Add(r.Sum)
		case "confirmed":
			stats.ConfirmedCount = r.Count
			stats.ConfirmedSum = r.Sum
		}
	}
	return stats, nil
}

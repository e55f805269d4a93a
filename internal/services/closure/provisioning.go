package closure

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wisebook-closure-backend/internal/models"
	"wisebook-closure-backend/internal/services/aging"
	"wisebook-closure-backend/internal/services/provisions"
)

// ProvisionSummary aggregates one provision run for the closing screens.
type ProvisionSummary struct {
	RunID           uuid.UUID       `json:"run_id"`
	PeriodID        uuid.UUID       `json:"period_id"`
	RecordCount     int             `json:"record_count"`
	ConformantCount int             `json:"conformant_count"`
	OverriddenCount int             `json:"overridden_count"`
	ZeroValueCount  int             `json:"zero_value_count"`
	TotalDotation   decimal.Decimal `json:"total_dotation"`
	TotalReprise    decimal.Decimal `json:"total_reprise"`
	NetMovement     decimal.Decimal `json:"net_movement"`
}

// RunProvisions executes the provisioning engine for a period: ages the
// ledger snapshot, computes records under the configured tiers and
// rules, reverses the prior run (reprise) and persists everything
// atomically. The prior run's records are superseded, never mutated.
func (s *Service) RunProvisions(periodID uuid.UUID) (*ProvisionSummary, error) {
	period, err := s.GetPeriod(periodID)
	if err != nil {
		return nil, err
	}

	lines, err := s.ledgerRepo.LinesByPeriod(periodID)
	if err != nil {
		return nil, err
	}
	tiers, err := s.configRepo.Tiers()
	if err != nil {
		return nil, err
	}
	table, err := aging.NewTierTable(tiers)
	if err != nil {
		return nil, err
	}
	rules, err := s.configRepo.Rules()
	if err != nil {
		return nil, err
	}

	records, err := provisions.Compute(lines, table, rules, period.AsOf)
	if err != nil {
		return nil, err
	}

	var priorRecords []models.ProvisionRecord
	priorRun, err := s.provisionRepo.LatestCompletedRun(periodID)
	if err != nil {
		return nil, err
	}
	if priorRun != nil {
		priorRecords, err = s.provisionRepo.RecordsByRun(priorRun.ID)
		if err != nil {
			return nil, err
		}
	}

	movements := provisions.Movements(priorRecords, records)

	now := time.Now()
	run := &models.ProvisionRun{
		ID:        uuid.New(),
		PeriodID:  periodID,
		Status:    "completed",
		StartedAt: now,
		CreatedAt: now,
	}

	summary := &ProvisionSummary{
		RunID:         run.ID,
		PeriodID:      periodID,
		RecordCount:   len(records),
		TotalDotation: decimal.Zero,
		TotalReprise:  decimal.Zero,
		NetMovement:   decimal.Zero,
	}

	for i := range records {
		records[i].ID = uuid.New()
		records[i].RunID = run.ID
		records[i].CreatedAt = now
		records[i].Details = provisionDetails(&records[i])

		if records[i].Conformant {
			summary.ConformantCount++
		} else {
			summary.OverriddenCount++
		}
		if records[i].ZeroValue {
			summary.ZeroValueCount++
		}
	}
	for i := range movements {
		movements[i].ID = uuid.New()
		movements[i].RunID = run.ID
		movements[i].CreatedAt = now

		summary.TotalDotation = summary.TotalDotation.Add(movements[i].Dotation)
		summary.TotalReprise = summary.TotalReprise.Add(movements[i].Reprise)
		summary.NetMovement = summary.NetMovement.Add(movements[i].Net)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		completedAt := time.Now()
		run.CompletedAt = &completedAt
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(records) > 0 {
			if err := tx.Create(&records).Error; err != nil {
				return err
			}
		}
		if len(movements) > 0 {
			if err := tx.Create(&movements).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// ProvisionRunDetail returns a run with its records, movements and summary.
func (s *Service) ProvisionRunDetail(runID uuid.UUID) (*models.ProvisionRun, []models.ProvisionRecord, []models.ProvisionMovement, *ProvisionSummary, error) {
	run, err := s.provisionRepo.GetRun(runID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	records, err := s.provisionRepo.RecordsByRun(runID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	movements, err := s.provisionRepo.MovementsByRun(runID)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	summary := &ProvisionSummary{
		RunID:         run.ID,
		PeriodID:      run.PeriodID,
		RecordCount:   len(records),
		TotalDotation: decimal.Zero,
		TotalReprise:  decimal.Zero,
		NetMovement:   decimal.Zero,
	}
	for _, rec := range records {
		if rec.Conformant {
			summary.ConformantCount++
		} else {
			summary.OverriddenCount++
		}
		if rec.ZeroValue {
			summary.ZeroValueCount++
		}
	}
	for _, m := range movements {
		summary.TotalDotation = summary.TotalDotation.Add(m.Dotation)
		summary.TotalReprise = summary.TotalReprise.Add(m.Reprise)
		summary.NetMovement = summary.NetMovement.Add(m.Net)
	}
	return run, records, movements, summary, nil
}

func provisionDetails(rec *models.ProvisionRecord) []byte {
	details := map[string]interface{}{
		"type":           rec.Type,
		"age_days":       rec.AgeDays,
		"rate":           rec.Rate.String(),
		"debit_account":  rec.DebitAccount,
		"credit_account": rec.CreditAccount,
		"conformant":     rec.Conformant,
	}
	if rec.Justification != "" {
		details["justification"] = rec.Justification
	}
	out, _ := json.Marshal(details)
	return out
}

package closure

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"wisebook-closure-backend/internal/models"
	"wisebook-closure-backend/internal/services/matching"
)

// Review actions. The matcher's output is advisory; a human confirms
// or rejects suggestions here, and every action leaves an audit row.

func (s *Service) ConfirmResult(resultID uuid.UUID, performedBy string) (*models.ReconciliationResult, error) {
	var result models.ReconciliationResult
	if err := s.db.First(&result, "id = ?", resultID).Error; err != nil {
		return nil, err
	}
	if result.LedgerLineID == nil {
		return nil, errors.New("result has no ledger line to confirm")
	}
	result.Status = "confirmed"
	result.Confidence = 100
	if err := s.db.Save(&result).Error; err != nil {
		return nil, err
	}
	s.audit(result.ID, "confirm", nil, result.LedgerLineID, performedBy, "")
	return &result, nil
}

func (s *Service) RejectResult(resultID uuid.UUID, performedBy, reason string) (*models.ReconciliationResult, error) {
	var result models.ReconciliationResult
	if err := s.db.First(&result, "id = ?", resultID).Error; err != nil {
		return nil, err
	}
	previous := result.LedgerLineID
	result.Status = "rejected"
	result.Confidence = 0
	if err := s.db.Save(&result).Error; err != nil {
		return nil, err
	}
	s.audit(result.ID, "reject", previous, nil, performedBy, reason)
	return &result, nil
}

func (s *Service) ManualMatch(resultID, ledgerLineID uuid.UUID, performedBy string) (*models.ReconciliationResult, error) {
	var result models.ReconciliationResult
	if err := s.db.First(&result, "id = ?", resultID).Error; err != nil {
		return nil, err
	}
	if _, err := s.ledgerRepo.GetCashLineByID(ledgerLineID); err != nil {
		return nil, err
	}
	previous := result.LedgerLineID
	result.LedgerLineID = &ledgerLineID
	result.Status = "confirmed"
	result.Confidence = 100
	if err := s.db.Save(&result).Error; err != nil {
		return nil, err
	}
	s.audit(result.ID, "manual_match", previous, &ledgerLineID, performedBy, "")
	return &result, nil
}

// BulkConfirmMatched confirms every exact match of a run in one update.
func (s *Service) BulkConfirmMatched(runID uuid.UUID, performedBy string) (int64, error) {
	res := s.db.Model(&models.ReconciliationResult{}).
		Where("run_id = ? AND status = ?", runID, matching.StatusMatched).
		Updates(map[string]interface{}{
			"status":     "confirmed",
			"confidence": 100,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	s.audit(runID, "bulk_confirm", nil, nil, performedBy, "")
	return res.RowsAffected, nil
}

func (s *Service) audit(resultID uuid.UUID, action string, previous, next *uuid.UUID, performedBy, reason string) {
	entry := &models.MatchAuditLog{
		ID:                 uuid.New(),
		ResultID:           resultID,
		Action:             action,
		PreviousLedgerLine: previous,
		NewLedgerLine:      next,
		PerformedBy:        performedBy,
		Reason:             reason,
		CreatedAt:          time.Now(),
	}
	if err := s.db.Create(entry).Error; err != nil {
		s.log.WithField("module", "closure").Warn("audit log write failed: ", err)
	}
}

package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wisebook-closure-backend/internal/models"
)

type ProvisionRepository struct {
	db *gorm.DB
}

func NewProvisionRepository(db *gorm.DB) *ProvisionRepository {
	return &ProvisionRepository{db: db}
}

// LatestCompletedRun returns the most recent completed provision run
// for a period, or nil when the period has never been provisioned.
func (r *ProvisionRepository) LatestCompletedRun(periodID uuid.UUID) (*models.ProvisionRun, error) {
	var run models.ProvisionRun
	err := r.db.
		Where("period_id = ? AND status = ?", periodID, "completed").
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *ProvisionRepository) RecordsByRun(runID uuid.UUID) ([]models.ProvisionRecord, error) {
	var records []models.ProvisionRecord
	err := r.db.Where("run_id = ?", runID).Order("source_line_id ASC").Find(&records).Error
	return records, err
}

func (r *ProvisionRepository) MovementsByRun(runID uuid.UUID) ([]models.ProvisionMovement, error) {
	var movements []models.ProvisionMovement
	err := r.db.Where("run_id = ?", runID).Order("source_line_id ASC").Find(&movements).Error
	return movements, err
}

func (r *ProvisionRepository) GetRun(runID uuid.UUID) (*models.ProvisionRun, error) {
	var run models.ProvisionRun
	if err := r.db.First(&run, "id = ?", runID).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

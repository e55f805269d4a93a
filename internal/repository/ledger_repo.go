package repository

import (
	"github.com/google/uuid"

	"wisebook-closure-backend/internal/models"

	"gorm.io/gorm"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Expose DB if needed
func (r *LedgerRepository) DB() *gorm.DB {
	return r.db
}

// LinesByPeriod returns every receivable/payable line of a period.
// Settled and undated lines are included; the provisioning engine
// applies its own exclusion rules.
func (r *LedgerRepository) LinesByPeriod(periodID uuid.UUID) ([]models.LedgerLine, error) {
	var lines []models.LedgerLine
	err := r.db.Where("period_id = ?", periodID).Order("id ASC").Find(&lines).Error
	return lines, err
}

func (r *LedgerRepository) CreateLines(lines []models.LedgerLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.Create(&lines).Error
}

// CashLinesByPeriod returns the period's cash-account entries, the
// ledger side of a bank reconciliation.
func (r *LedgerRepository) CashLinesByPeriod(periodID uuid.UUID) ([]models.LedgerCashLine, error) {
	var lines []models.LedgerCashLine
	err := r.db.Where("period_id = ?", periodID).Order("id ASC").Find(&lines).Error
	return lines, err
}

func (r *LedgerRepository) CreateCashLines(lines []models.LedgerCashLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.Create(&lines).Error
}

// GetCashLineByID fetches a single cash line.
func (r *LedgerRepository) GetCashLineByID(id uuid.UUID) (*models.LedgerCashLine, error) {
	var line models.LedgerCashLine
	if err := r.db.First(&line, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

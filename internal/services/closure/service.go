package closure

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wisebook-closure-backend/internal/models"
	"wisebook-closure-backend/internal/repository"
	"wisebook-closure-backend/internal/services/aging"
	"wisebook-closure-backend/internal/services/matching"
)

// Service orchestrates the closure workflows around the pure engines:
// period lifecycle, configuration, statement runs and provision runs.
type Service struct {
	ledgerRepo    *repository.LedgerRepository
	configRepo    *repository.ConfigRepository
	provisionRepo *repository.ProvisionRepository
	db            *gorm.DB
	log           *logrus.Logger
	tolerance     matching.Tolerance

	progressCache sync.Map // runID -> *Progress
}

type Progress struct {
	ProcessedCount int    `json:"processed_count"`
	Total          int    `json:"total"`
	Status         string `json:"status"`
}

func NewService(
	ledgerRepo *repository.LedgerRepository,
	configRepo *repository.ConfigRepository,
	provisionRepo *repository.ProvisionRepository,
	log *logrus.Logger,
	tolerance matching.Tolerance,
) *Service {
	return &Service{
		ledgerRepo:    ledgerRepo,
		configRepo:    configRepo,
		provisionRepo: provisionRepo,
		db:            ledgerRepo.DB(),
		log:           log,
		tolerance:     tolerance,
	}
}

// ---- Periods ----

func (s *Service) CreatePeriod(code, label string, asOf time.Time) (*models.ClosurePeriod, error) {
	period := &models.ClosurePeriod{
		ID:        uuid.New(),
		Code:      code,
		Label:     label,
		AsOf:      asOf,
		Status:    "open",
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(period).Error; err != nil {
		return nil, err
	}
	return period, nil
}

func (s *Service) ListPeriods() ([]models.ClosurePeriod, error) {
	var periods []models.ClosurePeriod
	err := s.db.Order("as_of DESC").Find(&periods).Error
	return periods, err
}

func (s *Service) GetPeriod(id uuid.UUID) (*models.ClosurePeriod, error) {
	var period models.ClosurePeriod
	if err := s.db.First(&period, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

func (s *Service) ClosePeriod(id uuid.UUID) (*models.ClosurePeriod, error) {
	period, err := s.GetPeriod(id)
	if err != nil {
		return nil, err
	}
	if period.Status == "closed" {
		return nil, errors.New("period already closed")
	}
	now := time.Now()
	period.Status = "closed"
	period.ClosedAt = &now
	if err := s.db.Save(period).Error; err != nil {
		return nil, err
	}
	return period, nil
}

// ---- Configuration ----

func (s *Service) Tiers() ([]models.AgingTier, error) {
	return s.configRepo.Tiers()
}

// ReplaceTiers validates the incoming table with the classifier before
// touching the store; an invalid table never replaces a valid one.
func (s *Service) ReplaceTiers(tiers []models.AgingTier) error {
	if _, err := aging.NewTierTable(tiers); err != nil {
		return err
	}
	now := time.Now()
	for i := range tiers {
		tiers[i].ID = uuid.New()
		tiers[i].Position = i
		tiers[i].CreatedAt = now
	}
	return s.configRepo.ReplaceTiers(tiers)
}

func (s *Service) Rules() ([]models.ProvisionRule, error) {
	return s.configRepo.Rules()
}

func (s *Service) ReplaceRules(rules []models.ProvisionRule) error {
	for i := range rules {
		if rules[i].AccountFamilyPattern == "" {
			return fmt.Errorf("rule %d: account family pattern required", i)
		}
		rules[i].ID = uuid.New()
		rules[i].CreatedAt = time.Now()
	}
	return s.configRepo.ReplaceRules(rules)
}

// ---- Ledger intake ----

func (s *Service) ImportLedgerLines(periodID uuid.UUID, lines []models.LedgerLine) (int, error) {
	now := time.Now()
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].PeriodID = periodID
		lines[i].CreatedAt = now
	}
	if err := s.ledgerRepo.CreateLines(lines); err != nil {
		return 0, err
	}
	return len(lines), nil
}

func (s *Service) ImportCashLines(periodID uuid.UUID, lines []models.LedgerCashLine) (int, error) {
	now := time.Now()
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].PeriodID = periodID
		lines[i].CreatedAt = now
	}
	if err := s.ledgerRepo.CreateCashLines(lines); err != nil {
		return 0, err
	}
	return len(lines), nil
}

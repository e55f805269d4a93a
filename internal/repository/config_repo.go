package repository

import (
	"wisebook-closure-backend/internal/models"

	"gorm.io/gorm"
)

type ConfigRepository struct {
	db *gorm.DB
}

func NewConfigRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) Tiers() ([]models.AgingTier, error) {
	var tiers []models.AgingTier
	err := r.db.Order("position ASC").Find(&tiers).Error
	return tiers, err
}

// ReplaceTiers swaps the whole aging table in one transaction. The
// caller validates the new table first; a half-replaced table must
// never be observable.
func (r *ConfigRepository) ReplaceTiers(tiers []models.AgingTier) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.AgingTier{}).Error; err != nil {
			return err
		}
		return tx.Create(&tiers).Error
	})
}

func (r *ConfigRepository) Rules() ([]models.ProvisionRule, error) {
	var rules []models.ProvisionRule
	err := r.db.Order("account_family_pattern ASC").Find(&rules).Error
	return rules, err
}

func (r *ConfigRepository) ReplaceRules(rules []models.ProvisionRule) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ProvisionRule{}).Error; err != nil {
			return err
		}
		if len(rules) == 0 {
			return nil
		}
		return tx.Create(&rules).Error
	})
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func intPtr(v int) *int { return &v }

// SeedDefaultConfig inserts the default SYSCOHADA aging table and
// provision rules when the tables are empty. Administrators can
// replace both through the configuration endpoints afterwards.
func SeedDefaultConfig(db *gorm.DB) error {
	var tierCount int64
	if err := db.Model(&AgingTier{}).Count(&tierCount).Error; err != nil {
		return err
	}
	if tierCount == 0 {
		now := time.Now()
		tiers := []AgingTier{
			{ID: uuid.New(), Position: 0, MinDays: 0, MaxDays: intPtr(90), MandatedRate: decimal.Zero, CreatedAt: now},
			{ID: uuid.New(), Position: 1, MinDays: 90, MaxDays: intPtr(180), MandatedRate: decimal.NewFromInt(25), CreatedAt: now},
			{ID: uuid.New(), Position: 2, MinDays: 180, MaxDays: intPtr(365), MandatedRate: decimal.NewFromInt(50), CreatedAt: now},
			{ID: uuid.New(), Position: 3, MinDays: 365, MaxDays: nil, MandatedRate: decimal.NewFromInt(100), CreatedAt: now},
		}
		if err := db.Create(&tiers).Error; err != nil {
			return err
		}
	}

	var ruleCount int64
	if err := db.Model(&ProvisionRule{}).Count(&ruleCount).Error; err != nil {
		return err
	}
	if ruleCount == 0 {
		now := time.Now()
		rules := []ProvisionRule{
			{ID: uuid.New(), AccountFamilyPattern: "411", Type: ProvisionReceivablesDoubtful, DebitAccount: "6594", CreditAccount: "491", CreatedAt: now},
			{ID: uuid.New(), AccountFamilyPattern: "416", Type: ProvisionReceivablesDoubtful, DebitAccount: "6594", CreditAccount: "491", CreatedAt: now},
			{ID: uuid.New(), AccountFamilyPattern: "3", Type: ProvisionInventoryDepreciation, DebitAccount: "6593", CreditAccount: "39", CreatedAt: now},
			{ID: uuid.New(), AccountFamilyPattern: "409", Type: ProvisionClientRisk, DebitAccount: "6591", CreditAccount: "499", CreatedAt: now},
			{ID: uuid.New(), AccountFamilyPattern: "462", Type: ProvisionLitigation, DebitAccount: "6911", CreditAccount: "1911", CreatedAt: now},
			{ID: uuid.New(), AccountFamilyPattern: "467", Type: ProvisionWarranty, DebitAccount: "6918", CreditAccount: "1918", CreatedAt: now},
		}
		if err := db.Create(&rules).Error; err != nil {
			return err
		}
	}
	return nil
}

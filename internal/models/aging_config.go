package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provision types, inferred from the ledger line's account family.
const (
	ProvisionReceivablesDoubtful   = "receivables_doubtful"
	ProvisionInventoryDepreciation = "inventory_depreciation"
	ProvisionClientRisk            = "client_risk"
	ProvisionLitigation            = "litigation"
	ProvisionWarranty              = "warranty"
	ProvisionOther                 = "other"
)

// AgingTier is one band of the configured aging table. Tiers cover
// [MinDays, MaxDays); a nil MaxDays means unbounded (last tier).
type AgingTier struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Position     int             `gorm:"index" json:"position"`
	MinDays      int             `json:"min_days"`
	MaxDays      *int            `json:"max_days"`
	MandatedRate decimal.Decimal `gorm:"type:decimal(20,4)" json:"mandated_rate"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ProvisionRule maps an account family to a provision type and its
// SYSCOHADA posting accounts. RateOverride, when set, replaces the
// tier's mandated rate and requires a justification.
type ProvisionRule struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	AccountFamilyPattern string           `gorm:"index" json:"account_family_pattern"` // account-code prefix, e.g. "411"
	Type                 string           `json:"type"`
	RateOverride         *decimal.Decimal `gorm:"type:decimal(20,4)" json:"rate_override"`
	Justification        string           `json:"justification"`
	DebitAccount         string           `json:"debit_account"`
	CreditAccount        string           `json:"credit_account"`
	CreatedAt            time.Time        `json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProvisionRun is one execution of the provisioning engine for a period.
type ProvisionRun struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PeriodID    uuid.UUID  `gorm:"index" json:"period_id"`
	Status      string     `json:"status"` // completed, failed
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ProvisionRecord is the dotation computed for one ledger line.
// Records are superseded, never mutated: the next period's run creates
// a reprise for this amount and a fresh record.
type ProvisionRecord struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RunID           uuid.UUID       `gorm:"index" json:"run_id"`
	SourceLineID    uuid.UUID       `gorm:"index" json:"source_line_id"`
	Type            string          `json:"type"`
	AgeDays         int             `json:"age_days"`
	BaseAmount      decimal.Decimal `gorm:"type:decimal(20,0)" json:"base_amount"`
	Rate            decimal.Decimal `gorm:"type:decimal(20,4)" json:"rate"`
	ProvisionAmount decimal.Decimal `gorm:"type:decimal(20,0)" json:"provision_amount"`
	DebitAccount    string          `json:"debit_account"`
	CreditAccount   string          `json:"credit_account"`
	Conformant      bool            `json:"conformant"`
	ZeroValue       bool            `json:"zero_value"`
	Justification   string          `json:"justification"`
	Details         datatypes.JSON  `json:"details"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ProvisionMovement is the dotation/reprise pair posted to the P&L for
// one source line at a run: Net = Dotation - Reprise.
type ProvisionMovement struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RunID        uuid.UUID       `gorm:"index" json:"run_id"`
	SourceLineID uuid.UUID       `gorm:"index" json:"source_line_id"`
	Dotation     decimal.Decimal `gorm:"type:decimal(20,0)" json:"dotation"`
	Reprise      decimal.Decimal `gorm:"type:decimal(20,0)" json:"reprise"`
	Net          decimal.Decimal `gorm:"type:decimal(20,0)" json:"net"`
	CreatedAt    time.Time       `json:"created_at"`
}

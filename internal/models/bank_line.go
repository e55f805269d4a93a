package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankStatementLine is one row of an imported relevé bancaire.
// Credit positive, debit negative.
type BankStatementLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RunID     uuid.UUID       `gorm:"index" json:"run_id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,0);index" json:"amount"`
	Reference string          `json:"reference"`
	Label     string          `json:"label"`
	CreatedAt time.Time       `json:"created_at"`
}

// LedgerCashLine is a cash-account (5xx) ledger entry for a period,
// the counterpart the bank statement is reconciled against.
type LedgerCashLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PeriodID  uuid.UUID       `gorm:"index" json:"period_id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,0);index" json:"amount"`
	Reference string          `json:"reference"`
	Label     string          `json:"label"`
	CreatedAt time.Time       `json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ReconciliationRun tracks one statement import + matching pass.
type ReconciliationRun struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PeriodID         uuid.UUID  `gorm:"index" json:"period_id"`
	Filename         string     `json:"filename"`
	TotalLines       int        `json:"total_lines"`
	ProcessedCount   int        `json:"processed_count"`
	MatchedCount     int        `json:"matched_count"`
	SuggestedCount   int        `json:"suggested_count"`
	DiscrepancyCount int        `json:"discrepancy_count"`
	UnmatchedCount   int        `json:"unmatched_count"`
	Status           string     `json:"status"` // processing, completed, failed
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ReconciliationResult pairs zero-or-one bank line with zero-or-one
// cash ledger line. Amount is denormalized (bank side when present,
// ledger side otherwise) for stats and search.
type ReconciliationResult struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RunID        uuid.UUID       `gorm:"index" json:"run_id"`
	BankLineID   *uuid.UUID      `json:"bank_line_id"`
	LedgerLineID *uuid.UUID      `json:"ledger_line_id"`
	Status       string          `gorm:"index" json:"status"`
	Confidence   int             `json:"confidence"`
	AmountDelta  decimal.Decimal `gorm:"type:decimal(20,0)" json:"amount_delta"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,0)" json:"amount"`
	Label        string          `json:"label"`
	MatchDetails datatypes.JSON  `json:"match_details"`
	CreatedAt    time.Time       `json:"created_at"`
}

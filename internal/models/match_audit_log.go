package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchAuditLog records every human action on a reconciliation result.
type MatchAuditLog struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ResultID           uuid.UUID  `gorm:"index" json:"result_id"`
	Action             string     `json:"action"` // confirm, reject, manual_match, bulk_confirm
	PreviousLedgerLine *uuid.UUID `json:"previous_ledger_line"`
	NewLedgerLine      *uuid.UUID `json:"new_ledger_line"`
	PerformedBy        string     `json:"performed_by"`
	Reason             string     `json:"reason"`
	CreatedAt          time.Time  `json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerLine is a receivable or payable outstanding at a closure period.
// Amounts are whole FCFA. Settlement only ever increases SettledAmount.
type LedgerLine struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PeriodID         uuid.UUID `gorm:"index" json:"period_id"`
	AccountCode      string    `gorm:"index" json:"account_code"`
	CounterpartyID   string    `gorm:"index" json:"counterparty_id"`
	CounterpartyName string    `json:"counterparty_name"`
	InvoiceRef       string    `json:"invoice_ref"`
	IssueDate        time.Time `json:"issue_date"`
	// Nil when the underlying document has not been invoiced yet.
	DueDate       *time.Time      `json:"due_date"`
	GrossAmount   decimal.Decimal `gorm:"type:decimal(20,0)" json:"gross_amount"`
	SettledAmount decimal.Decimal `gorm:"type:decimal(20,0)" json:"settled_amount"`
	// Provision base for inventory lines: how far net realizable value
	// fell below cost. Nil for receivables/payables.
	NetRealizableShortfall *decimal.Decimal `gorm:"type:decimal(20,0)" json:"net_realizable_shortfall"`
	CreatedAt              time.Time        `json:"created_at"`
}

// Outstanding is the unsettled remainder, never negative by invariant.
func (l *LedgerLine) Outstanding() decimal.Decimal {
	return l.GrossAmount.Sub(l.SettledAmount)
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type ClosurePeriod struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string     `gorm:"uniqueIndex" json:"code"` // e.g. "2025-12"
	Label     string     `json:"label"`
	AsOf      time.Time  `json:"as_of"`
	Status    string     `gorm:"index" json:"status"` // open, closed
	ClosedAt  *time.Time `json:"closed_at"`
	CreatedAt time.Time  `json:"created_at"`
}

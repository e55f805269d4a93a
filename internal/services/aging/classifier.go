package aging

import (
	"errors"
	"fmt"
	"time"

	"wisebook-closure-backend/internal/models"
)

// ErrInvalidTierTable is returned when a tier configuration is not
// ordered, contiguous and exhaustive over [0, +inf).
var ErrInvalidTierTable = errors.New("invalid tier table")

// TierTable is a validated aging table. Build it once at configuration
// load with NewTierTable; Classify never re-validates.
type TierTable struct {
	tiers []models.AgingTier
}

// Classification is the outcome of aging one ledger line.
type Classification struct {
	AgeDays int
	Tier    models.AgingTier
}

// NewTierTable validates the configured tiers: the first starts at day
// zero, every tier but the last is bounded, intervals are contiguous,
// and mandated rates never decrease with age.
func NewTierTable(tiers []models.AgingTier) (TierTable, error) {
	if len(tiers) == 0 {
		return TierTable{}, fmt.Errorf("%w: no tiers configured", ErrInvalidTierTable)
	}
	if tiers[0].MinDays != 0 {
		return TierTable{}, fmt.Errorf("%w: first tier must start at 0 days, got %d", ErrInvalidTierTable, tiers[0].MinDays)
	}
	for i, tier := range tiers {
		last := i == len(tiers)-1
		if last {
			if tier.MaxDays != nil {
				return TierTable{}, fmt.Errorf("%w: last tier must be unbounded", ErrInvalidTierTable)
			}
		} else {
			if tier.MaxDays == nil {
				return TierTable{}, fmt.Errorf("%w: tier %d is unbounded but not last", ErrInvalidTierTable, i)
			}
			if *tier.MaxDays <= tier.MinDays {
				return TierTable{}, fmt.Errorf("%w: tier %d has empty interval [%d, %d)", ErrInvalidTierTable, i, tier.MinDays, *tier.MaxDays)
			}
			if tiers[i+1].MinDays != *tier.MaxDays {
				return TierTable{}, fmt.Errorf("%w: gap or overlap between day %d and day %d", ErrInvalidTierTable, *tier.MaxDays, tiers[i+1].MinDays)
			}
		}
		if i > 0 && tier.MandatedRate.LessThan(tiers[i-1].MandatedRate) {
			return TierTable{}, fmt.Errorf("%w: mandated rate decreases at tier %d", ErrInvalidTierTable, i)
		}
	}
	return TierTable{tiers: tiers}, nil
}

// Tiers returns the validated tiers in order.
func (t TierTable) Tiers() []models.AgingTier {
	return t.tiers
}

// Classify computes the line's age relative to asOf and locates its
// tier. A line not yet due has age 0 and falls in the first tier
// regardless of table contents; so does a line with no due date (the
// calculator excludes those upstream).
func (t TierTable) Classify(line models.LedgerLine, asOf time.Time) Classification {
	age := 0
	if line.DueDate != nil {
		age = AgeDays(*line.DueDate, asOf)
	}
	return Classification{AgeDays: age, Tier: t.locate(age)}
}

func (t TierTable) locate(ageDays int) models.AgingTier {
	for _, tier := range t.tiers {
		if ageDays >= tier.MinDays && (tier.MaxDays == nil || ageDays < *tier.MaxDays) {
			return tier
		}
	}
	// Unreachable for a validated table.
	return t.tiers[len(t.tiers)-1]
}

// AgeDays is the number of whole days asOf is past dueDate, floored at 0.
func AgeDays(dueDate, asOf time.Time) int {
	days := int(dateOnly(asOf).Sub(dateOnly(dueDate)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

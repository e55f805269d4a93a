package provisions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wisebook-closure-backend/internal/models"
	"wisebook-closure-backend/internal/services/aging"
)

// ErrMissingJustification is returned when a rule overrides the
// mandated rate without a justification.
var ErrMissingJustification = errors.New("rate override requires a justification")

var hundred = decimal.NewFromInt(100)

// Compute runs the provisioning engine over a ledger snapshot.
//
// Fully settled lines and lines with no due date are omitted, not
// errored: a settled line carries no risk and an undated one cannot be
// aged. Lines matching no rule are omitted as well (no mandated
// provision for that account family). Zero-amount records are still
// emitted, flagged ZeroValue, so the audit trail stays complete.
//
// The output is ordered by source line ID and depends on nothing but
// the arguments, so two calls with identical inputs are identical.
func Compute(lines []models.LedgerLine, table aging.TierTable, rules []models.ProvisionRule, asOf time.Time) ([]models.ProvisionRecord, error) {
	records := make([]models.ProvisionRecord, 0, len(lines))

	for _, line := range lines {
		if line.DueDate == nil {
			continue
		}
		rule := ruleFor(line.AccountCode, rules)
		if rule == nil {
			continue
		}
		base := provisionBase(line, rule.Type)
		if base.Sign() <= 0 {
			continue
		}

		c := table.Classify(line, asOf)

		rate := c.Tier.MandatedRate
		conformant := true
		justification := ""
		if rule.RateOverride != nil {
			if strings.TrimSpace(rule.Justification) == "" {
				return nil, fmt.Errorf("%w: rule %q on line %s", ErrMissingJustification, rule.AccountFamilyPattern, line.ID)
			}
			rate = *rule.RateOverride
			conformant = false
			justification = rule.Justification
		}

		amount := roundHalfUp(base.Mul(rate).Div(hundred))

		records = append(records, models.ProvisionRecord{
			SourceLineID:    line.ID,
			Type:            rule.Type,
			AgeDays:         c.AgeDays,
			BaseAmount:      base,
			Rate:            rate,
			ProvisionAmount: amount,
			DebitAccount:    rule.DebitAccount,
			CreditAccount:   rule.CreditAccount,
			Conformant:      conformant,
			ZeroValue:       amount.IsZero(),
			Justification:   justification,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].SourceLineID.String() < records[j].SourceLineID.String()
	})
	return records, nil
}

// provisionBase is the amount the rate applies to: the outstanding
// balance, except for inventory depreciation where it is the net
// realizable value shortfall.
func provisionBase(line models.LedgerLine, provisionType string) decimal.Decimal {
	if provisionType == models.ProvisionInventoryDepreciation {
		if line.NetRealizableShortfall == nil {
			return decimal.Zero
		}
		return *line.NetRealizableShortfall
	}
	return line.Outstanding()
}

// ruleFor picks the rule whose account-family prefix is the longest
// match for the line's account code.
func ruleFor(accountCode string, rules []models.ProvisionRule) *models.ProvisionRule {
	var best *models.ProvisionRule
	for i := range rules {
		pattern := rules[i].AccountFamilyPattern
		if pattern == "" || !strings.HasPrefix(accountCode, pattern) {
			continue
		}
		if best == nil || len(pattern) > len(best.AccountFamilyPattern) {
			best = &rules[i]
		}
	}
	return best
}

// roundHalfUp rounds to the whole FCFA unit, halves away from zero.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

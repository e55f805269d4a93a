package matching

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wisebook-closure-backend/internal/models"
)

// Result statuses.
const (
	StatusMatched         = "matched"
	StatusSuggested       = "suggested"
	StatusDiscrepancy     = "discrepancy"
	StatusUnmatchedBank   = "unmatched_bank"
	StatusUnmatchedLedger = "unmatched_ledger"
)

// ErrInvalidTolerance is returned for a non-positive date window or a
// negative amount epsilon.
var ErrInvalidTolerance = errors.New("invalid tolerance")

// Tolerance bounds the fuzzy pass of the matcher.
type Tolerance struct {
	AmountEpsilon  decimal.Decimal
	DateWindowDays int
}

// Result pairs zero-or-one bank line with zero-or-one ledger line.
// AmountDelta is bank minus ledger; Confidence is only meaningful for
// suggested results.
type Result struct {
	Bank        *models.BankStatementLine
	Ledger      *models.LedgerCashLine
	Status      string
	Confidence  int
	AmountDelta decimal.Decimal
}

// Match classifies every bank-statement line against the period's cash
// ledger lines. Greedy, two passes:
//
//  1. exact: identical amount and normalized reference; nearest date,
//     then ascending ledger ID, breaks ties.
//  2. windowed: ledger lines within DateWindowDays whose amount is
//     within AmountEpsilon. A single candidate yields matched (equal
//     amounts) or discrepancy; several yield a suggested pairing with
//     the highest-confidence candidate.
//
// Leftovers come out unmatched_bank / unmatched_ledger. Every input
// line appears in exactly one result, and identical inputs always
// produce identical output: bank lines are walked by (date, ID) and
// every tie-break is total.
func Match(bankLines []models.BankStatementLine, ledgerLines []models.LedgerCashLine, tol Tolerance) ([]Result, error) {
	if tol.DateWindowDays <= 0 {
		return nil, fmt.Errorf("%w: date window must be positive, got %d", ErrInvalidTolerance, tol.DateWindowDays)
	}
	if tol.AmountEpsilon.IsNegative() {
		return nil, fmt.Errorf("%w: amount epsilon must not be negative", ErrInvalidTolerance)
	}

	bank := make([]*models.BankStatementLine, len(bankLines))
	for i := range bankLines {
		bank[i] = &bankLines[i]
	}
	ledger := make([]*models.LedgerCashLine, len(ledgerLines))
	for i := range ledgerLines {
		ledger[i] = &ledgerLines[i]
	}

	sort.Slice(bank, func(i, j int) bool {
		if !bank[i].Date.Equal(bank[j].Date) {
			return bank[i].Date.Before(bank[j].Date)
		}
		return bank[i].ID.String() < bank[j].ID.String()
	})
	sort.Slice(ledger, func(i, j int) bool {
		return ledger[i].ID.String() < ledger[j].ID.String()
	})

	taken := make(map[int]bool, len(ledger))
	var results []Result

	// Pass 1: exact amount + reference.
	remaining := bank[:0:0]
	for _, b := range bank {
		ref := normalizeRef(b.Reference)
		bestIdx := -1
		bestDays := 0
		for i, l := range ledger {
			if taken[i] || ref == "" || normalizeRef(l.Reference) != ref || !l.Amount.Equal(b.Amount) {
				continue
			}
			days := absDays(b.Date, l.Date)
			if bestIdx == -1 || days < bestDays {
				bestIdx, bestDays = i, days
			}
			// Equal distance keeps the earlier candidate: ledger is
			// walked in ascending ID order.
		}
		if bestIdx == -1 {
			remaining = append(remaining, b)
			continue
		}
		taken[bestIdx] = true
		results = append(results, Result{
			Bank:        b,
			Ledger:      ledger[bestIdx],
			Status:      StatusMatched,
			AmountDelta: decimal.Zero,
		})
	}

	// Pass 2: date window + amount epsilon.
	for _, b := range remaining {
		var candidates []int
		for i, l := range ledger {
			if taken[i] {
				continue
			}
			if absDays(b.Date, l.Date) > tol.DateWindowDays {
				continue
			}
			if b.Amount.Sub(l.Amount).Abs().GreaterThan(tol.AmountEpsilon) {
				continue
			}
			candidates = append(candidates, i)
		}

		switch len(candidates) {
		case 0:
			results = append(results, Result{Bank: b, Status: StatusUnmatchedBank, AmountDelta: decimal.Zero})
		case 1:
			l := ledger[candidates[0]]
			taken[candidates[0]] = true
			delta := b.Amount.Sub(l.Amount)
			status := StatusMatched
			if !delta.IsZero() {
				status = StatusDiscrepancy
			}
			results = append(results, Result{Bank: b, Ledger: l, Status: status, AmountDelta: delta})
		default:
			best := candidates[0]
			bestConf := confidence(b, ledger[best], tol)
			for _, i := range candidates[1:] {
				conf := confidence(b, ledger[i], tol)
				if conf > bestConf ||
					(conf == bestConf && absDays(b.Date, ledger[i].Date) < absDays(b.Date, ledger[best].Date)) {
					best, bestConf = i, conf
				}
			}
			l := ledger[best]
			taken[best] = true
			results = append(results, Result{
				Bank:        b,
				Ledger:      l,
				Status:      StatusSuggested,
				Confidence:  bestConf,
				AmountDelta: b.Amount.Sub(l.Amount),
			})
		}
	}

	for i, l := range ledger {
		if !taken[i] {
			results = append(results, Result{Ledger: l, Status: StatusUnmatchedLedger, AmountDelta: decimal.Zero})
		}
	}

	return results, nil
}

// confidence weighs amount closeness 60% and date closeness 40%,
// normalized to [0,100].
func confidence(b *models.BankStatementLine, l *models.LedgerCashLine, tol Tolerance) int {
	deltaAmount, _ := b.Amount.Sub(l.Amount).Abs().Float64()
	amount, _ := b.Amount.Abs().Float64()
	amountCloseness := 1 - deltaAmount/math.Max(amount, 1)

	dateCloseness := 1 - float64(absDays(b.Date, l.Date))/float64(tol.DateWindowDays)

	score := math.Round(100 * (0.6*amountCloseness + 0.4*dateCloseness))
	return int(math.Min(100, math.Max(0, score)))
}

func normalizeRef(ref string) string {
	return strings.ToUpper(strings.Join(strings.Fields(ref), ""))
}

func absDays(a, b time.Time) int {
	days := int(dateOnly(a).Sub(dateOnly(b)).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

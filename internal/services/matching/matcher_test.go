package matching

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisebook-closure-backend/internal/models"
)

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func bankLine(amount int64, ref, day string) models.BankStatementLine {
	return models.BankStatementLine{
		ID:        uuid.New(),
		Date:      date(day),
		Amount:    decimal.NewFromInt(amount),
		Reference: ref,
	}
}

func cashLine(amount int64, ref, day string) models.LedgerCashLine {
	return models.LedgerCashLine{
		ID:        uuid.New(),
		Date:      date(day),
		Amount:    decimal.NewFromInt(amount),
		Reference: ref,
	}
}

func defaultTolerance() Tolerance {
	return Tolerance{AmountEpsilon: decimal.NewFromInt(5000), DateWindowDays: 3}
}

func TestMatchInvalidTolerance(t *testing.T) {
	_, err := Match(nil, nil, Tolerance{AmountEpsilon: decimal.Zero, DateWindowDays: 0})
	assert.ErrorIs(t, err, ErrInvalidTolerance)

	_, err = Match(nil, nil, Tolerance{AmountEpsilon: decimal.NewFromInt(-1), DateWindowDays: 3})
	assert.ErrorIs(t, err, ErrInvalidTolerance)
}

func TestMatchEmptyInputs(t *testing.T) {
	results, err := Match(nil, nil, defaultTolerance())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExactMatch(t *testing.T) {
	bank := []models.BankStatementLine{bankLine(250000, "VIR-001", "2025-01-15")}
	ledger := []models.LedgerCashLine{cashLine(250000, "vir 001", "2025-01-15")}

	results, err := Match(bank, ledger, defaultTolerance())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusMatched, results[0].Status)
	assert.Equal(t, bank[0].ID, results[0].Bank.ID)
	assert.Equal(t, ledger[0].ID, results[0].Ledger.ID)
	assert.True(t, results[0].AmountDelta.IsZero())
}

func TestExactMatchTieBreakNearestDate(t *testing.T) {
	bank := []models.BankStatementLine{bankLine(100000, "CHQ-42", "2025-02-10")}
	far := cashLine(100000, "CHQ-42", "2025-02-20")
	near := cashLine(100000, "CHQ-42", "2025-02-11")

	results, err := Match(bank, []models.LedgerCashLine{far, near}, defaultTolerance())
	require.NoError(t, err)

	var matched *Result
	for i := range results {
		if results[i].Status == StatusMatched {
			matched = &results[i]
		}
	}
	require.NotNil(t, matched)
	assert.Equal(t, near.ID, matched.Ledger.ID)
}

func TestDiscrepancy(t *testing.T) {
	bank := []models.BankStatementLine{bankLine(456000, "", "2025-01-12")}
	ledger := []models.LedgerCashLine{cashLine(458000, "", "2025-01-12")}

	results, err := Match(bank, ledger, defaultTolerance())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusDiscrepancy, results[0].Status)
	assert.True(t, results[0].AmountDelta.Equal(decimal.NewFromInt(-2000)),
		"want -2000, got %s", results[0].AmountDelta)
}

func TestWindowedSingleCandidateMatches(t *testing.T) {
	// Same amount, different reference, 2 days apart: pass 2 match.
	bank := []models.BankStatementLine{bankLine(75000, "VIR SALAIRE", "2025-03-03")}
	ledger := []models.LedgerCashLine{cashLine(75000, "OD-77", "2025-03-05")}

	results, err := Match(bank, ledger, defaultTolerance())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusMatched, results[0].Status)
}

func TestSuggestedWithConfidence(t *testing.T) {
	bank := []models.BankStatementLine{bankLine(100000, "", "2025-04-10")}
	sameDay := cashLine(100000, "", "2025-04-10")
	older := cashLine(99000, "", "2025-04-12")

	results, err := Match(bank, []models.LedgerCashLine{sameDay, older}, defaultTolerance())
	require.NoError(t, err)

	var suggested *Result
	unmatchedLedger := 0
	for i := range results {
		switch results[i].Status {
		case StatusSuggested:
			suggested = &results[i]
		case StatusUnmatchedLedger:
			unmatchedLedger++
		}
	}
	require.NotNil(t, suggested)
	assert.Equal(t, sameDay.ID, suggested.Ledger.ID)
	// Exact amount, zero day gap: full score.
	assert.Equal(t, 100, suggested.Confidence)
	assert.Equal(t, 1, unmatchedLedger)
}

func TestConfidenceFormula(t *testing.T) {
	bank := []models.BankStatementLine{bankLine(100000, "", "2025-04-10")}
	a := cashLine(99000, "", "2025-04-10")  // amount off by 1000, same day
	b := cashLine(100000, "", "2025-04-13") // exact amount, 3 days off

	results, err := Match(bank, []models.LedgerCashLine{a, b}, defaultTolerance())
	require.NoError(t, err)

	var suggested *Result
	for i := range results {
		if results[i].Status == StatusSuggested {
			suggested = &results[i]
		}
	}
	require.NotNil(t, suggested)
	// a: round(100*(0.6*(1-1000/100000) + 0.4*1)) = 99
	// b: round(100*(0.6*1 + 0.4*(1-3/3)))        = 60
	assert.Equal(t, a.ID, suggested.Ledger.ID)
	assert.Equal(t, 99, suggested.Confidence)
}

func TestUnmatchedBothSides(t *testing.T) {
	bank := []models.BankStatementLine{bankLine(10000, "A", "2025-01-01")}
	ledger := []models.LedgerCashLine{cashLine(900000, "B", "2025-06-01")}

	results, err := Match(bank, ledger, defaultTolerance())
	require.NoError(t, err)
	require.Len(t, results, 2)

	statuses := map[string]int{}
	for _, r := range results {
		statuses[r.Status]++
	}
	assert.Equal(t, 1, statuses[StatusUnmatchedBank])
	assert.Equal(t, 1, statuses[StatusUnmatchedLedger])
}

// Every input line appears in exactly one result, whatever the input.
func TestConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	var bank []models.BankStatementLine
	var ledger []models.LedgerCashLine
	base := date("2025-05-01")
	for i := 0; i < 60; i++ {
		amount := int64(rng.Intn(20)+1) * 25000
		day := base.AddDate(0, 0, rng.Intn(20))
		bank = append(bank, models.BankStatementLine{
			ID: uuid.New(), Date: day, Amount: decimal.NewFromInt(amount), Reference: "",
		})
	}
	for i := 0; i < 55; i++ {
		amount := int64(rng.Intn(20)+1) * 25000
		day := base.AddDate(0, 0, rng.Intn(20))
		ledger = append(ledger, models.LedgerCashLine{
			ID: uuid.New(), Date: day, Amount: decimal.NewFromInt(amount), Reference: "",
		})
	}

	results, err := Match(bank, ledger, defaultTolerance())
	require.NoError(t, err)

	seenBank := map[uuid.UUID]int{}
	seenLedger := map[uuid.UUID]int{}
	for _, r := range results {
		if r.Bank != nil {
			seenBank[r.Bank.ID]++
		}
		if r.Ledger != nil {
			seenLedger[r.Ledger.ID]++
		}
	}
	require.Len(t, seenBank, len(bank))
	require.Len(t, seenLedger, len(ledger))
	for id, n := range seenBank {
		require.Equalf(t, 1, n, "bank line %s appeared %d times", id, n)
	}
	for id, n := range seenLedger {
		require.Equalf(t, 1, n, "ledger line %s appeared %d times", id, n)
	}
}

// Shuffling the input never changes the pairing.
func TestDeterminismUnderShuffle(t *testing.T) {
	var bank []models.BankStatementLine
	var ledger []models.LedgerCashLine
	base := date("2025-07-01")
	for i := 0; i < 25; i++ {
		bank = append(bank, models.BankStatementLine{
			ID: uuid.New(), Date: base.AddDate(0, 0, i%10),
			Amount: decimal.NewFromInt(int64(1+i%5) * 10000), Reference: "",
		})
		ledger = append(ledger, models.LedgerCashLine{
			ID: uuid.New(), Date: base.AddDate(0, 0, (i+1)%10),
			Amount: decimal.NewFromInt(int64(1+i%5) * 10000), Reference: "",
		})
	}

	pairing := func(results []Result) map[uuid.UUID]string {
		out := map[uuid.UUID]string{}
		for _, r := range results {
			key := uuid.Nil
			if r.Bank != nil {
				key = r.Bank.ID
			} else if r.Ledger != nil {
				key = r.Ledger.ID
			}
			val := r.Status
			if r.Ledger != nil {
				val += ":" + r.Ledger.ID.String()
			}
			out[key] = val
		}
		return out
	}

	first, err := Match(bank, ledger, defaultTolerance())
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(bank), func(i, j int) { bank[i], bank[j] = bank[j], bank[i] })
	rng.Shuffle(len(ledger), func(i, j int) { ledger[i], ledger[j] = ledger[j], ledger[i] })

	second, err := Match(bank, ledger, defaultTolerance())
	require.NoError(t, err)

	assert.Equal(t, pairing(first), pairing(second))
}

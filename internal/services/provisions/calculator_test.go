package provisions

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisebook-closure-backend/internal/models"
	"wisebook-closure-backend/internal/services/aging"
)

func intPtr(v int) *int { return &v }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func datePtr(s string) *time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return &d
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func testTable(t *testing.T) aging.TierTable {
	t.Helper()
	table, err := aging.NewTierTable([]models.AgingTier{
		{Position: 0, MinDays: 0, MaxDays: intPtr(90), MandatedRate: decimal.Zero},
		{Position: 1, MinDays: 90, MaxDays: intPtr(180), MandatedRate: decimal.NewFromInt(25)},
		{Position: 2, MinDays: 180, MaxDays: intPtr(365), MandatedRate: decimal.NewFromInt(50)},
		{Position: 3, MinDays: 365, MaxDays: nil, MandatedRate: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)
	return table
}

func receivableRule() models.ProvisionRule {
	return models.ProvisionRule{
		ID:                   uuid.New(),
		AccountFamilyPattern: "411",
		Type:                 models.ProvisionReceivablesDoubtful,
		DebitAccount:         "6594",
		CreditAccount:        "491",
	}
}

func TestComputeMandatedRate(t *testing.T) {
	asOf := date("2025-12-31")
	// 200 days overdue -> tier [180,365) at 50%
	line := models.LedgerLine{
		ID:          uuid.New(),
		AccountCode: "4111",
		DueDate:     datePtr("2025-06-14"),
		GrossAmount: decimal.NewFromInt(6000000),
	}

	records, err := Compute([]models.LedgerLine{line}, testTable(t), []models.ProvisionRule{receivableRule()}, asOf)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, line.ID, rec.SourceLineID)
	assert.Equal(t, models.ProvisionReceivablesDoubtful, rec.Type)
	assert.Equal(t, 200, rec.AgeDays)
	assert.True(t, rec.Rate.Equal(decimal.NewFromInt(50)))
	assert.True(t, rec.ProvisionAmount.Equal(decimal.NewFromInt(3000000)),
		"want 3000000, got %s", rec.ProvisionAmount)
	assert.Equal(t, "6594", rec.DebitAccount)
	assert.Equal(t, "491", rec.CreditAccount)
	assert.True(t, rec.Conformant)
	assert.False(t, rec.ZeroValue)
}

func TestComputeRateOverride(t *testing.T) {
	asOf := date("2025-12-31")
	line := models.LedgerLine{
		ID:          uuid.New(),
		AccountCode: "4111",
		DueDate:     datePtr("2025-06-14"),
		GrossAmount: decimal.NewFromInt(6000000),
	}

	rule := receivableRule()
	rule.RateOverride = decPtr(60)

	// Override without justification -> error
	_, err := Compute([]models.LedgerLine{line}, testTable(t), []models.ProvisionRule{rule}, asOf)
	assert.ErrorIs(t, err, ErrMissingJustification)

	// With justification -> non-conformant record at the override rate
	rule.Justification = "Procédure collective ouverte contre le client"
	records, err := Compute([]models.LedgerLine{line}, testTable(t), []models.ProvisionRule{rule}, asOf)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Conformant)
	assert.True(t, records[0].Rate.Equal(decimal.NewFromInt(60)))
	assert.True(t, records[0].ProvisionAmount.Equal(decimal.NewFromInt(3600000)))
	assert.Equal(t, rule.Justification, records[0].Justification)
}

func TestComputeExclusions(t *testing.T) {
	asOf := date("2025-12-31")
	rules := []models.ProvisionRule{receivableRule()}

	settled := models.LedgerLine{
		ID:            uuid.New(),
		AccountCode:   "4111",
		DueDate:       datePtr("2025-01-01"),
		GrossAmount:   decimal.NewFromInt(500000),
		SettledAmount: decimal.NewFromInt(500000),
	}
	undated := models.LedgerLine{
		ID:          uuid.New(),
		AccountCode: "4111",
		GrossAmount: decimal.NewFromInt(500000),
	}
	noRule := models.LedgerLine{
		ID:          uuid.New(),
		AccountCode: "521",
		DueDate:     datePtr("2025-01-01"),
		GrossAmount: decimal.NewFromInt(500000),
	}

	records, err := Compute([]models.LedgerLine{settled, undated, noRule}, testTable(t), rules, asOf)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestComputeZeroValueFlag(t *testing.T) {
	asOf := date("2025-12-31")
	// 10 days overdue -> 0% tier -> zero provision, still emitted
	line := models.LedgerLine{
		ID:          uuid.New(),
		AccountCode: "4111",
		DueDate:     datePtr("2025-12-21"),
		GrossAmount: decimal.NewFromInt(1000000),
	}

	records, err := Compute([]models.LedgerLine{line}, testTable(t), []models.ProvisionRule{receivableRule()}, asOf)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].ZeroValue)
	assert.True(t, records[0].ProvisionAmount.IsZero())
}

func TestInventoryDepreciationBase(t *testing.T) {
	asOf := date("2025-12-31")
	rule := models.ProvisionRule{
		ID:                   uuid.New(),
		AccountFamilyPattern: "31",
		Type:                 models.ProvisionInventoryDepreciation,
		DebitAccount:         "6593",
		CreditAccount:        "39",
	}

	shortfall := decimal.NewFromInt(800000)
	withShortfall := models.LedgerLine{
		ID:                     uuid.New(),
		AccountCode:            "311",
		DueDate:                datePtr("2025-06-14"), // 200 days -> 50%
		GrossAmount:            decimal.NewFromInt(5000000),
		NetRealizableShortfall: &shortfall,
	}
	withoutShortfall := models.LedgerLine{
		ID:          uuid.New(),
		AccountCode: "311",
		DueDate:     datePtr("2025-06-14"),
		GrossAmount: decimal.NewFromInt(5000000),
	}

	records, err := Compute([]models.LedgerLine{withShortfall, withoutShortfall}, testTable(t), []models.ProvisionRule{rule}, asOf)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].BaseAmount.Equal(shortfall))
	assert.True(t, records[0].ProvisionAmount.Equal(decimal.NewFromInt(400000)))
}

func TestComputeIdempotence(t *testing.T) {
	asOf := date("2025-12-31")
	rules := []models.ProvisionRule{receivableRule()}
	var lines []models.LedgerLine
	for i := 0; i < 20; i++ {
		lines = append(lines, models.LedgerLine{
			ID:          uuid.New(),
			AccountCode: "4111",
			DueDate:     datePtr("2025-03-15"),
			GrossAmount: decimal.NewFromInt(int64(100000 * (i + 1))),
		})
	}

	first, err := Compute(lines, testTable(t), rules, asOf)
	require.NoError(t, err)
	second, err := Compute(lines, testTable(t), rules, asOf)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLongestPrefixRuleWins(t *testing.T) {
	asOf := date("2025-12-31")
	generic := receivableRule()
	generic.AccountFamilyPattern = "41"
	specific := receivableRule()
	specific.AccountFamilyPattern = "4111"
	specific.Type = models.ProvisionClientRisk
	specific.DebitAccount = "6591"
	specific.CreditAccount = "499"

	line := models.LedgerLine{
		ID:          uuid.New(),
		AccountCode: "41110001",
		DueDate:     datePtr("2025-06-14"),
		GrossAmount: decimal.NewFromInt(100000),
	}

	records, err := Compute([]models.LedgerLine{line}, testTable(t), []models.ProvisionRule{generic, specific}, asOf)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ProvisionClientRisk, records[0].Type)
	assert.Equal(t, "6591", records[0].DebitAccount)
}

func TestRoundHalfUp(t *testing.T) {
	assert.True(t, roundHalfUp(decimal.NewFromFloat(2.5)).Equal(decimal.NewFromInt(3)))
	assert.True(t, roundHalfUp(decimal.NewFromFloat(2.4)).Equal(decimal.NewFromInt(2)))
	// 333333 * 33.3333% = 111110.88...
	got := roundHalfUp(decimal.NewFromInt(333333).Mul(decimal.NewFromFloat(33.3333)).Div(decimal.NewFromInt(100)))
	assert.True(t, got.Equal(decimal.NewFromInt(111111)), "got %s", got)
}

func TestMovements(t *testing.T) {
	lineA := uuid.New()
	lineB := uuid.New()
	lineC := uuid.New()

	prior := []models.ProvisionRecord{
		{SourceLineID: lineA, ProvisionAmount: decimal.NewFromInt(1500000)},
		{SourceLineID: lineB, ProvisionAmount: decimal.NewFromInt(400000)},
	}
	current := []models.ProvisionRecord{
		{SourceLineID: lineA, ProvisionAmount: decimal.NewFromInt(3000000)},
		{SourceLineID: lineC, ProvisionAmount: decimal.NewFromInt(250000)},
	}

	movements := Movements(prior, current)
	require.Len(t, movements, 3)

	byLine := make(map[uuid.UUID]models.ProvisionMovement)
	for _, m := range movements {
		byLine[m.SourceLineID] = m
	}

	// Re-provisioned line: reversal of prior, posting of new
	assert.True(t, byLine[lineA].Reprise.Equal(decimal.NewFromInt(1500000)))
	assert.True(t, byLine[lineA].Dotation.Equal(decimal.NewFromInt(3000000)))
	assert.True(t, byLine[lineA].Net.Equal(decimal.NewFromInt(1500000)))

	// Line settled since prior run: pure reprise
	assert.True(t, byLine[lineB].Dotation.IsZero())
	assert.True(t, byLine[lineB].Net.Equal(decimal.NewFromInt(-400000)))

	// New line: pure dotation
	assert.True(t, byLine[lineC].Reprise.IsZero())
	assert.True(t, byLine[lineC].Net.Equal(decimal.NewFromInt(250000)))
}

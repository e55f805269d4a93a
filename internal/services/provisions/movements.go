package provisions

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wisebook-closure-backend/internal/models"
)

// Movements derives the dotation/reprise postings between the prior
// run's records and the current ones. Prior records are reversed in
// full (reprise), current amounts are posted fresh (dotation);
// Net = Dotation - Reprise is the P&L figure. A line present only in
// the prior run yields a pure reprise; one present only in the current
// run a pure dotation. Output ordered by source line ID.
func Movements(prior, current []models.ProvisionRecord) []models.ProvisionMovement {
	byLine := make(map[uuid.UUID]*models.ProvisionMovement)

	entry := func(lineID uuid.UUID) *models.ProvisionMovement {
		if m, ok := byLine[lineID]; ok {
			return m
		}
		m := &models.ProvisionMovement{
			SourceLineID: lineID,
			Dotation:     decimal.Zero,
			Reprise:      decimal.Zero,
		}
		byLine[lineID] = m
		return m
	}

	for _, rec := range prior {
		entry(rec.SourceLineID).Reprise = rec.ProvisionAmount
	}
	for _, rec := range current {
		entry(rec.SourceLineID).Dotation = rec.ProvisionAmount
	}

	movements := make([]models.ProvisionMovement, 0, len(byLine))
	for _, m := range byLine {
		m.Net = m.Dotation.Sub(m.Reprise)
		movements = append(movements, *m)
	}
	sort.Slice(movements, func(i, j int) bool {
		return movements[i].SourceLineID.String() < movements[j].SourceLineID.String()
	})
	return movements
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wisebook-closure-backend/internal/models"
	"wisebook-closure-backend/internal/services/closure"
)

// ClosureHandler covers periods, engine configuration and provision runs.
type ClosureHandler struct {
	service *closure.Service
}

func NewClosureHandler(s *closure.Service) *ClosureHandler {
	return &ClosureHandler{service: s}
}

func (h *ClosureHandler) CreatePeriod(c *gin.Context) {
	var payload struct {
		Code  string `json:"code"`
		Label string `json:"label"`
		AsOf  string `json:"as_of"` // "yyyy-mm-dd"
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period code required"})
		return
	}
	asOf, err := time.Parse("2006-01-02", payload.AsOf)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of date, expected yyyy-mm-dd"})
		return
	}

	period, err := h.service.CreatePeriod(payload.Code, payload.Label, asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "period created", "period": period})
}

func (h *ClosureHandler) ListPeriods(c *gin.Context) {
	periods, err := h.service.ListPeriods()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": periods})
}

func (h *ClosureHandler) ClosePeriod(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period ID"})
		return
	}
	period, err := h.service.ClosePeriod(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "period closed", "period": period})
}

func (h *ClosureHandler) GetTiers(c *gin.Context) {
	tiers, err := h.service.Tiers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": tiers})
}

// ReplaceTiers swaps the aging table. The whole table is validated
// before anything is written; a bad table is a 400, not a partial write.
func (h *ClosureHandler) ReplaceTiers(c *gin.Context) {
	var payload struct {
		Tiers []struct {
			MinDays      int             `json:"min_days"`
			MaxDays      *int            `json:"max_days"`
			MandatedRate decimal.Decimal `json:"mandated_rate"`
		} `json:"tiers"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	tiers := make([]models.AgingTier, 0, len(payload.Tiers))
	for i, t := range payload.Tiers {
		tiers = append(tiers, models.AgingTier{
			Position:     i,
			MinDays:      t.MinDays,
			MaxDays:      t.MaxDays,
			MandatedRate: t.MandatedRate,
		})
	}

	if err := h.service.ReplaceTiers(tiers); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tier table replaced", "tiers": len(tiers)})
}

func (h *ClosureHandler) GetRules(c *gin.Context) {
	rules, err := h.service.Rules()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rules})
}

func (h *ClosureHandler) ReplaceRules(c *gin.Context) {
	var payload struct {
		Rules []struct {
			AccountFamilyPattern string           `json:"account_family_pattern"`
			Type                 string           `json:"type"`
			RateOverride         *decimal.Decimal `json:"rate_override"`
			Justification        string           `json:"justification"`
			DebitAccount         string           `json:"debit_account"`
			CreditAccount        string           `json:"credit_account"`
		} `json:"rules"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	rules := make([]models.ProvisionRule, 0, len(payload.Rules))
	for _, r := range payload.Rules {
		rules = append(rules, models.ProvisionRule{
			AccountFamilyPattern: r.AccountFamilyPattern,
			Type:                 r.Type,
			RateOverride:         r.RateOverride,
			Justification:        r.Justification,
			DebitAccount:         r.DebitAccount,
			CreditAccount:        r.CreditAccount,
		})
	}

	if err := h.service.ReplaceRules(rules); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rules replaced", "rules": len(rules)})
}

func (h *ClosureHandler) RunProvisions(c *gin.Context) {
	var payload struct {
		PeriodID string `json:"period_id"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	periodID, err := uuid.Parse(payload.PeriodID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period ID"})
		return
	}

	summary, err := h.service.RunProvisions(periodID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "provision run completed", "summary": summary})
}

func (h *ClosureHandler) GetProvisionRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}
	run, records, movements, summary, err := h.service.ProvisionRunDetail(runID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run":       run,
		"records":   records,
		"movements": movements,
		"summary":   summary,
	})
}

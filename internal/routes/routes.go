package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wisebook-closure-backend/internal/config"
	handler "wisebook-closure-backend/internal/handlers"
	"wisebook-closure-backend/internal/repository"
	"wisebook-closure-backend/internal/services/closure"
	"wisebook-closure-backend/internal/services/matching"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	ledgerRepo := repository.NewLedgerRepository(db)
	configRepo := repository.NewConfigRepository(db)
	provisionRepo := repository.NewProvisionRepository(db)

	tolerance := matching.Tolerance{
		AmountEpsilon:  cfg.MatchAmountEpsilon,
		DateWindowDays: cfg.MatchDateWindowDays,
	}

	closureService := closure.NewService(
		ledgerRepo,
		configRepo,
		provisionRepo,
		config.GetLogger(),
		tolerance,
	)

	closureHandler := handler.NewClosureHandler(closureService)
	reconHandler := handler.NewReconciliationHandler(closureService)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Closure periods
	periods := api.Group("/periods")
	periods.POST("", closureHandler.CreatePeriod)
	periods.GET("", closureHandler.ListPeriods)
	periods.POST("/:id/close", closureHandler.ClosePeriod)

	// Engine configuration (aging table + provision rules)
	cfgGroup := api.Group("/config")
	cfgGroup.GET("/tiers", closureHandler.GetTiers)
	cfgGroup.PUT("/tiers", closureHandler.ReplaceTiers)
	cfgGroup.GET("/rules", closureHandler.GetRules)
	cfgGroup.PUT("/rules", closureHandler.ReplaceRules)

	// Ledger snapshot intake
	ledger := api.Group("/ledger")
	ledger.POST("/upload", reconHandler.UploadLedgerLines)
	ledger.POST("/cash/upload", reconHandler.UploadCashLines)

	// Bank reconciliation runs
	recon := api.Group("/reconciliation")
	recon.POST("/upload", reconHandler.UploadStatement)
	recon.GET("/:runId", reconHandler.GetRunProgress)
	recon.GET("/:runId/results", reconHandler.ListResults)
	recon.GET("/:runId/stats", reconHandler.GetRunStats)
	recon.POST("/:runId/bulk-confirm", reconHandler.BulkConfirmMatched)

	// Result-level review actions
	results := api.Group("/results")
	results.POST("/:id/confirm", reconHandler.ConfirmResult)
	results.POST("/:id/reject", reconHandler.RejectResult)
	results.POST("/:id/match", reconHandler.ManualMatch)

	// Provision runs
	prov := api.Group("/provisions")
	prov.POST("/run", closureHandler.RunProvisions)
	prov.GET("/:runId", closureHandler.GetProvisionRun)
}

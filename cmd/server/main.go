package main

import (
	"log"
	"time"

	"wisebook-closure-backend/internal/config"
	"wisebook-closure-backend/internal/models"
	"wisebook-closure-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	config.SetLogLevel(cfg.LogLevel)

	db := config.InitDB(cfg)

	db.AutoMigrate(
		&models.ClosurePeriod{},
		&models.LedgerLine{},
		&models.LedgerCashLine{},
		&models.BankStatementLine{},
		&models.AgingTier{},
		&models.ProvisionRule{},
		&models.ReconciliationRun{},
		&models.ReconciliationResult{},
		&models.ProvisionRun{},
		&models.ProvisionRecord{},
		&models.ProvisionMovement{},
		&models.MatchAuditLog{},
	)

	if err := models.SeedDefaultConfig(db); err != nil {
		log.Fatal("failed to seed default configuration: ", err)
	}

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-User"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, cfg)

	r.Run(cfg.HTTPAddr)
}

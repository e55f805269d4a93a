package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Config holds the application configuration, loaded from environment
// variables (a .env file is loaded by main before this runs).
type Config struct {
	DatabaseDSN string
	HTTPAddr    string
	CORSOrigin  string
	LogLevel    string

	// Reconciliation tolerance applied to every matching run.
	MatchDateWindowDays int
	MatchAmountEpsilon  decimal.Decimal
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseDSN:         os.Getenv("DATABASE_DSN"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		CORSOrigin:          getEnv("CORS_ORIGIN", "http://localhost:3000"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		MatchDateWindowDays: 3,
		MatchAmountEpsilon:  decimal.Zero,
	}

	if v := os.Getenv("MATCH_DATE_WINDOW_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("MATCH_DATE_WINDOW_DAYS must be an integer")
		}
		cfg.MatchDateWindowDays = days
	}
	if v := os.Getenv("MATCH_AMOUNT_EPSILON"); v != "" {
		eps, err := decimal.NewFromString(v)
		if err != nil {
			return nil, errors.New("MATCH_AMOUNT_EPSILON must be a decimal amount")
		}
		cfg.MatchAmountEpsilon = eps
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var missing []string

	if c.DatabaseDSN == "" {
		missing = append(missing, "DATABASE_DSN")
	}
	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}

	if c.MatchDateWindowDays <= 0 {
		return errors.New("MATCH_DATE_WINDOW_DAYS must be positive")
	}
	if c.MatchAmountEpsilon.IsNegative() {
		return errors.New("MATCH_AMOUNT_EPSILON must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

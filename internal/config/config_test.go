package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	resetEnv := func() {
		os.Unsetenv("DATABASE_DSN")
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("MATCH_DATE_WINDOW_DAYS")
		os.Unsetenv("MATCH_AMOUNT_EPSILON")
	}
	resetEnv()
	defer resetEnv()

	// Missing DSN -> fail
	_, err := Load()
	require.Error(t, err)

	os.Setenv("DATABASE_DSN", "host=localhost user=wisebook dbname=wisebook")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 3, cfg.MatchDateWindowDays)
	assert.True(t, cfg.MatchAmountEpsilon.IsZero())

	// Overrides
	os.Setenv("MATCH_DATE_WINDOW_DAYS", "7")
	os.Setenv("MATCH_AMOUNT_EPSILON", "5000")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MatchDateWindowDays)
	assert.Equal(t, "5000", cfg.MatchAmountEpsilon.String())

	// Bad values -> fail
	os.Setenv("MATCH_DATE_WINDOW_DAYS", "soon")
	_, err = Load()
	assert.Error(t, err)

	os.Setenv("MATCH_DATE_WINDOW_DAYS", "-1")
	_, err = Load()
	assert.Error(t, err)
}

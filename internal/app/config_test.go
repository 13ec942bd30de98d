package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 60*time.Second, cfg.ReversalWindow)
	assert.Equal(t, 720*time.Hour, cfg.TransactionRetention)
	assert.False(t, cfg.IsProduction())

	max, err := cfg.MaxPerTransferAmount()
	require.NoError(t, err)
	assert.True(t, max.Equal(decimal.NewFromInt(2000)))

	dailyCap, err := cfg.DailyTransferCapAmount()
	require.NoError(t, err)
	assert.True(t, dailyCap.Equal(decimal.NewFromInt(10000)))
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("MAX_PER_TRANSFER", "3500.50")
	t.Setenv("REVERSAL_WINDOW", "2m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Minute, cfg.ReversalWindow)

	max, err := cfg.MaxPerTransferAmount()
	require.NoError(t, err)
	assert.True(t, max.Equal(decimal.RequireFromString("3500.50")))
}

func TestLoadConfigRejectsBadLimits(t *testing.T) {
	t.Setenv("DAILY_TRANSFER_CAP", "lots")

	_, err := LoadConfig()
	require.Error(t, err)
}

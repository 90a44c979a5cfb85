package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "threshold", cfg.StrategyName)
	assert.InDelta(t, 10.0, cfg.TradeAmount, 1e-9)
	assert.InDelta(t, 0.30, cfg.BuyThreshold, 1e-9)
	assert.InDelta(t, 0.70, cfg.SellThreshold, 1e-9)
	assert.InDelta(t, 10.0, cfg.SlippageBPS, 1e-9)
	assert.True(t, cfg.UseBookPrice)
	assert.Equal(t, "memory", cfg.StorageMode)
	assert.Equal(t, time.Hour, cfg.BreakerCooldown)
	assert.Equal(t, 1000, cfg.TickBufferSize)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("STRATEGY_NAME", "momentum")
	t.Setenv("TRADE_AMOUNT", "25.5")
	t.Setenv("SLIPPAGE_BPS", "0")
	t.Setenv("USE_BOOK_PRICE", "false")
	t.Setenv("STORAGE_MODE", "postgres")
	t.Setenv("BREAKER_COOLDOWN", "30m")
	t.Setenv("MAX_DAILY_TRADES", "5")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "momentum", cfg.StrategyName)
	assert.InDelta(t, 25.5, cfg.TradeAmount, 1e-9)
	assert.Zero(t, cfg.SlippageBPS)
	assert.False(t, cfg.UseBookPrice)
	assert.Equal(t, "postgres", cfg.StorageMode)
	assert.Equal(t, 30*time.Minute, cfg.BreakerCooldown)
	assert.Equal(t, 5, cfg.MaxDailyTrades)
}

func TestLoadFromEnv_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("TRADE_AMOUNT", "lots")
	t.Setenv("MAX_DAILY_TRADES", "many")
	t.Setenv("BREAKER_COOLDOWN", "soon")
	t.Setenv("USE_BOOK_PRICE", "maybe")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.InDelta(t, 10.0, cfg.TradeAmount, 1e-9)
	assert.Equal(t, 50, cfg.MaxDailyTrades)
	assert.Equal(t, time.Hour, cfg.BreakerCooldown)
	assert.True(t, cfg.UseBookPrice)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative-slippage",
			mutate:  func(c *Config) { c.SlippageBPS = -1 },
			wantErr: "SLIPPAGE_BPS",
		},
		{
			name:    "zero-single-trade",
			mutate:  func(c *Config) { c.MaxSingleTrade = 0 },
			wantErr: "MAX_SINGLE_TRADE",
		},
		{
			name:    "buy-threshold-out-of-range",
			mutate:  func(c *Config) { c.BuyThreshold = 1.5 },
			wantErr: "BUY_THRESHOLD",
		},
		{
			name:    "unknown-storage-mode",
			mutate:  func(c *Config) { c.StorageMode = "sqlite" },
			wantErr: "STORAGE_MODE",
		},
		{
			name:    "breaker-without-cooldown",
			mutate:  func(c *Config) { c.BreakerEnabled = true; c.BreakerCooldown = 0 },
			wantErr: "BREAKER_COOLDOWN",
		},
		{
			name:    "subprocess-without-command",
			mutate:  func(c *Config) { c.StrategyName = "subprocess"; c.SubprocessCommand = "" },
			wantErr: "STRATEGY_SUBPROCESS_COMMAND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromEnv()
			require.NoError(t, err)

			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("default-level", func(t *testing.T) {
		logger, err := NewLogger()
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("debug-level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "debug")

		logger, err := NewLogger()
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("invalid-level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loudest")

		_, err := NewLogger()
		require.Error(t, err)
	})
}

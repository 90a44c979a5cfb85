package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mselser95/polymarket-trader/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeStats struct {
	count    int
	countErr error
	pnl      float64
	pnlErr   error
}

func (f *fakeStats) TradeCountSince(_ context.Context, _ time.Time) (int, error) {
	return f.count, f.countErr
}

func (f *fakeStats) RealizedPnLSince(_ context.Context, _ time.Time) (float64, error) {
	return f.pnl, f.pnlErr
}

type fakeExposure struct {
	total float64
}

func (f *fakeExposure) TotalExposure() float64 {
	return f.total
}

func defaultLimits() Limits {
	return Limits{
		MaxTotalExposure: 1000,
		MaxDailyLoss:     100,
		MaxDailyTrades:   50,
		MaxSingleTrade:   100,
		BreakerEnabled:   true,
		BreakerCooldown:  time.Hour,
	}
}

func newTestGate(t *testing.T, stats *fakeStats, exposure *fakeExposure, limits Limits) *Gate {
	t.Helper()

	gate, err := New(&Config{
		Limits:   limits,
		Stats:    stats,
		Exposure: exposure,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return gate
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	logger := zaptest.NewLogger(t)
	stats := &fakeStats{}
	exposure := &fakeExposure{}

	tests := []struct {
		name   string
		config *Config
		errMsg string
	}{
		{
			name:   "nil-config",
			config: nil,
			errMsg: "config cannot be nil",
		},
		{
			name:   "nil-stats",
			config: &Config{Limits: defaultLimits(), Exposure: exposure, Logger: logger},
			errMsg: "trade stats cannot be nil",
		},
		{
			name:   "nil-exposure",
			config: &Config{Limits: defaultLimits(), Stats: stats, Logger: logger},
			errMsg: "exposure source cannot be nil",
		},
		{
			name:   "nil-logger",
			config: &Config{Limits: defaultLimits(), Stats: stats, Exposure: exposure},
			errMsg: "logger cannot be nil",
		},
		{
			name: "zero-single-trade-cap",
			config: &Config{
				Limits:   Limits{BreakerEnabled: true, BreakerCooldown: time.Hour},
				Stats:    stats,
				Exposure: exposure,
				Logger:   logger,
			},
			errMsg: "max single trade must be positive",
		},
		{
			name: "breaker-without-cooldown",
			config: &Config{
				Limits:   Limits{MaxSingleTrade: 100, BreakerEnabled: true},
				Stats:    stats,
				Exposure: exposure,
				Logger:   logger,
			},
			errMsg: "breaker cooldown must be positive",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.config)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestGate_AllowsWithinLimits(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t, &fakeStats{count: 3, pnl: -10}, &fakeExposure{total: 200}, defaultLimits())

	assert.True(t, gate.CheckOrder(context.Background(), "asset-1", types.ActionBuy, 50))
}

func TestGate_SingleTradeCapBeforeOtherRules(t *testing.T) {
	t.Parallel()

	// Exposure and daily caps would pass; the per-trade cap alone must
	// reject.
	gate := newTestGate(t, &fakeStats{}, &fakeExposure{total: 0}, defaultLimits())

	assert.False(t, gate.CheckOrder(context.Background(), "asset-1", types.ActionBuy, 150))
	assert.False(t, gate.GetStatus().Halted)
}

func TestGate_ExposureCapBuyOnly(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t, &fakeStats{}, &fakeExposure{total: 950}, defaultLimits())

	assert.False(t, gate.CheckOrder(context.Background(), "asset-1", types.ActionBuy, 100),
		"BUY past the exposure cap must be rejected")
	assert.True(t, gate.CheckOrder(context.Background(), "asset-1", types.ActionSell, 100),
		"SELL is never blocked by exposure limits")
}

func TestGate_DailyTradeCap(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t, &fakeStats{count: 50}, &fakeExposure{}, defaultLimits())

	assert.False(t, gate.CheckOrder(context.Background(), "asset-1", types.ActionBuy, 10))
}

func TestGate_DailyLossTripsBreakerThenCooldownResets(t *testing.T) {
	t.Parallel()

	stats := &fakeStats{pnl: -150}
	gate := newTestGate(t, stats, &fakeExposure{}, defaultLimits())

	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return now }

	// Breach rejects the current order and latches the breaker.
	assert.False(t, gate.CheckOrder(context.Background(), "asset-1", types.ActionBuy, 10))
	require.True(t, gate.GetStatus().Halted)

	// Loss recovers but the breaker still holds until cooldown elapses.
	stats.pnl = 0
	now = now.Add(30 * time.Minute)
	assert.False(t, gate.CheckOrder(context.Background(), "asset-1", types.ActionBuy, 10))

	// First check after cooldown clears the breaker and passes.
	now = now.Add(31 * time.Minute)
	assert.True(t, gate.CheckOrder(context.Background(), "asset-1", types.ActionBuy, 10))
	assert.False(t, gate.GetStatus().Halted)
}

func TestGate_BreakerDisabledNeverLatches(t *testing.T) {
	t.Parallel()

	limits := defaultLimits()
	limits.BreakerEnabled = false
	limits.BreakerCooldown = 0
	stats := &fakeStats{pnl: -150}
	gate := newTestGate(t, stats, &fakeExposure{}, limits)

	assert.False(t, gate.CheckOrder(context.Background(), "asset-1", types.ActionBuy, 10),
		"loss breach still rejects the current order")
	assert.False(t, gate.GetStatus().Halted)

	stats.pnl = 0
	assert.True(t, gate.CheckOrder(context.Background(), "asset-1", types.ActionBuy, 10))
}

func TestGate_StatsFailureRejectsFailSafe(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t, &fakeStats{countErr: errors.New("db down")}, &fakeExposure{}, defaultLimits())

	assert.False(t, gate.CheckOrder(context.Background(), "asset-1", types.ActionBuy, 10))
	assert.False(t, gate.GetStatus().Halted, "a storage fault is not a loss breach")
}

func TestGate_StatusExposesResumeTime(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t, &fakeStats{pnl: -150}, &fakeExposure{}, defaultLimits())

	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return now }

	gate.CheckOrder(context.Background(), "asset-1", types.ActionSell, 10)

	status := gate.GetStatus()
	require.True(t, status.Halted)
	require.NotNil(t, status.HaltedAt)
	require.NotNil(t, status.ResumesAt)
	assert.Equal(t, now, *status.HaltedAt)
	assert.Equal(t, now.Add(time.Hour), *status.ResumesAt)
}

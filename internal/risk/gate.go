package risk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// TradeStats provides the two daily aggregates the gate needs from the
// trade log. Both the Postgres store and test mocks implement it.
type TradeStats interface {
	TradeCountSince(ctx context.Context, since time.Time) (int, error)
	RealizedPnLSince(ctx context.Context, since time.Time) (float64, error)
}

// ExposureSource reports total open notional across all positions.
type ExposureSource interface {
	TotalExposure() float64
}

// Limits are the static risk limits. They are not mutated at runtime;
// only the circuit breaker state changes.
type Limits struct {
	MaxTotalExposure float64
	MaxDailyLoss     float64
	MaxDailyTrades   int
	MaxSingleTrade   float64
	BreakerEnabled   bool
	BreakerCooldown  time.Duration
}

// Gate is the stateful admission controller in front of the execution
// simulator. Checks run in a fixed order and short-circuit on the first
// rejection; a daily-loss breach additionally trips the latching
// circuit breaker.
type Gate struct {
	limits   Limits
	stats    TradeStats
	exposure ExposureSource
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	halted   bool
	haltedAt time.Time
}

// Config holds risk gate configuration.
type Config struct {
	Limits   Limits
	Stats    TradeStats
	Exposure ExposureSource
	Logger   *zap.Logger
}

// Status is a snapshot of the breaker for dashboards and logs.
type Status struct {
	Halted    bool       `json:"halted"`
	HaltedAt  *time.Time `json:"halted_at,omitempty"`
	ResumesAt *time.Time `json:"resumes_at,omitempty"`
}

// New creates a new risk gate.
func New(cfg *Config) (*Gate, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Stats == nil {
		return nil, fmt.Errorf("trade stats cannot be nil")
	}
	if cfg.Exposure == nil {
		return nil, fmt.Errorf("exposure source cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Limits.MaxSingleTrade <= 0 {
		return nil, fmt.Errorf("max single trade must be positive")
	}
	if cfg.Limits.BreakerEnabled && cfg.Limits.BreakerCooldown <= 0 {
		return nil, fmt.Errorf("breaker cooldown must be positive when breaker is enabled")
	}

	cfg.Logger.Info("risk-gate-initialized",
		zap.Float64("max-total-exposure", cfg.Limits.MaxTotalExposure),
		zap.Float64("max-daily-loss", cfg.Limits.MaxDailyLoss),
		zap.Int("max-daily-trades", cfg.Limits.MaxDailyTrades),
		zap.Float64("max-single-trade", cfg.Limits.MaxSingleTrade),
		zap.Bool("breaker-enabled", cfg.Limits.BreakerEnabled),
		zap.Duration("breaker-cooldown", cfg.Limits.BreakerCooldown))

	BreakerState.Set(0)

	return &Gate{
		limits:   cfg.Limits,
		stats:    cfg.Stats,
		exposure: cfg.Exposure,
		logger:   cfg.Logger,
		now:      time.Now,
	}, nil
}

// CheckOrder decides whether a proposed order may proceed. It mutates
// no state except the breaker's own. A false return is a normal,
// logged decision outcome, not an error; storage query failures reject
// fail-safe.
func (g *Gate) CheckOrder(ctx context.Context, assetID, action string, notional float64) bool {
	ChecksTotal.Inc()

	// 1. Circuit breaker, with timed auto-recovery.
	if g.breakerActive() {
		g.reject("circuit-breaker", assetID, action, notional)
		return false
	}

	// 2. Per-trade cap.
	if notional > g.limits.MaxSingleTrade {
		g.logger.Warn("risk-order-rejected",
			zap.String("rule", "single-trade-cap"),
			zap.String("asset-id", assetID),
			zap.String("action", action),
			zap.Float64("notional", notional),
			zap.Float64("max-single-trade", g.limits.MaxSingleTrade))
		RejectionsTotal.WithLabelValues("single-trade-cap").Inc()
		return false
	}

	// 3. Aggregate exposure cap. BUY only: closing risk is always
	// allowed.
	if action == types.ActionBuy {
		total := g.exposure.TotalExposure()
		if total+notional > g.limits.MaxTotalExposure {
			g.logger.Warn("risk-order-rejected",
				zap.String("rule", "exposure-cap"),
				zap.String("asset-id", assetID),
				zap.String("action", action),
				zap.Float64("notional", notional),
				zap.Float64("current-exposure", total),
				zap.Float64("max-total-exposure", g.limits.MaxTotalExposure))
			RejectionsTotal.WithLabelValues("exposure-cap").Inc()
			return false
		}
	}

	dayStart := g.utcDayStart()

	// 4. Daily trade-count cap.
	count, err := g.stats.TradeCountSince(ctx, dayStart)
	if err != nil {
		g.logger.Error("risk-stats-unavailable", zap.Error(err))
		RejectionsTotal.WithLabelValues("stats-unavailable").Inc()
		return false
	}
	if count >= g.limits.MaxDailyTrades {
		g.logger.Warn("risk-order-rejected",
			zap.String("rule", "daily-trade-cap"),
			zap.String("asset-id", assetID),
			zap.String("action", action),
			zap.Float64("notional", notional),
			zap.Int("trades-today", count),
			zap.Int("max-daily-trades", g.limits.MaxDailyTrades))
		RejectionsTotal.WithLabelValues("daily-trade-cap").Inc()
		return false
	}

	// 5. Daily loss cap. A breach rejects this order and trips the
	// breaker for everything after it.
	dailyPnL, err := g.stats.RealizedPnLSince(ctx, dayStart)
	if err != nil {
		g.logger.Error("risk-stats-unavailable", zap.Error(err))
		RejectionsTotal.WithLabelValues("stats-unavailable").Inc()
		return false
	}
	if dailyPnL < -g.limits.MaxDailyLoss {
		g.logger.Warn("risk-order-rejected",
			zap.String("rule", "daily-loss-cap"),
			zap.String("asset-id", assetID),
			zap.String("action", action),
			zap.Float64("notional", notional),
			zap.Float64("daily-pnl", dailyPnL),
			zap.Float64("max-daily-loss", g.limits.MaxDailyLoss))
		RejectionsTotal.WithLabelValues("daily-loss-cap").Inc()
		g.trip()
		return false
	}

	return true
}

// GetStatus returns the current breaker state.
func (g *Gate) GetStatus() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	status := Status{Halted: g.halted}
	if g.halted {
		haltedAt := g.haltedAt
		resumesAt := g.haltedAt.Add(g.limits.BreakerCooldown)
		status.HaltedAt = &haltedAt
		status.ResumesAt = &resumesAt
	}
	return status
}

// breakerActive reports whether the breaker is holding orders back,
// auto-clearing it first when the cooldown has elapsed.
func (g *Gate) breakerActive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.halted || !g.limits.BreakerEnabled {
		return false
	}

	if g.now().Sub(g.haltedAt) >= g.limits.BreakerCooldown {
		g.halted = false
		g.haltedAt = time.Time{}
		BreakerState.Set(0)
		g.logger.Info("circuit-breaker-reset",
			zap.Duration("cooldown", g.limits.BreakerCooldown))
		return false
	}

	return true
}

func (g *Gate) trip() {
	if !g.limits.BreakerEnabled {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.halted = true
	g.haltedAt = g.now()
	BreakerState.Set(1)
	BreakerTripsTotal.Inc()
	g.logger.Warn("circuit-breaker-tripped",
		zap.Time("halted-at", g.haltedAt),
		zap.Duration("cooldown", g.limits.BreakerCooldown))
}

func (g *Gate) reject(rule, assetID, action string, notional float64) {
	g.logger.Warn("risk-order-rejected",
		zap.String("rule", rule),
		zap.String("asset-id", assetID),
		zap.String("action", action),
		zap.Float64("notional", notional))
	RejectionsTotal.WithLabelValues(rule).Inc()
}

func (g *Gate) utcDayStart() time.Time {
	now := g.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

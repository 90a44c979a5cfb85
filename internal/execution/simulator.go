// Package execution simulates order fills. No order ever reaches an
// exchange: the simulator prices the order pessimistically and emits a
// trade record for the ledger to apply.
package execution

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/polymarket-trader/internal/ledger"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// Simulator converts trade intents into simulated fills.
type Simulator struct {
	pricing Pricing
	logger  *zap.Logger
	now     func() time.Time
}

// Config holds execution simulator configuration.
type Config struct {
	UseBookPrice bool
	SlippageBPS  float64
	Logger       *zap.Logger
}

// New creates an execution simulator.
func New(cfg *Config) (*Simulator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.SlippageBPS < 0 {
		return nil, fmt.Errorf("slippage bps cannot be negative")
	}

	return &Simulator{
		pricing: Pricing{
			UseBookPrice: cfg.UseBookPrice,
			SlippageBPS:  cfg.SlippageBPS,
		},
		logger: cfg.Logger,
		now:    time.Now,
	}, nil
}

// Pricing returns the simulator's pricing model for sharing with the
// backtest engine.
func (s *Simulator) Pricing() Pricing {
	return s.pricing
}

// Fill simulates executing an order and returns the trade record. The
// trade is not persisted here; the ledger manager owns that.
func (s *Simulator) Fill(assetID, market, action string, rawPrice, notional float64, reason string, bestBid, bestAsk *float64) *types.Trade {
	start := time.Now()

	fillPrice := s.pricing.FillPrice(action, rawPrice, bestBid, bestAsk)

	trade := &types.Trade{
		ID:        uuid.New().String(),
		AssetID:   assetID,
		Market:    market,
		Action:    action,
		Price:     fillPrice,
		Notional:  ledger.Round6(notional),
		Simulated: true,
		Reason:    reason,
		CreatedAt: s.now().UTC(),
	}

	TradesTotal.WithLabelValues(action).Inc()
	FillDurationSeconds.Observe(time.Since(start).Seconds())

	s.logger.Info("order-filled",
		zap.String("trade-id", trade.ID),
		zap.String("asset-id", assetID),
		zap.String("action", action),
		zap.Float64("raw-price", rawPrice),
		zap.Float64("fill-price", fillPrice),
		zap.Float64("notional", trade.Notional))

	return trade
}

package engine

import (
	"context"
	"fmt"

	"github.com/mselser95/polymarket-trader/internal/execution"
	"github.com/mselser95/polymarket-trader/internal/ledger"
	"github.com/mselser95/polymarket-trader/internal/risk"
	"github.com/mselser95/polymarket-trader/internal/strategy"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// StrategyHandler runs the trading decision chain for each tick:
// signal evaluation, risk admission, simulated fill, ledger apply.
// It is only ever called from the dispatcher's single goroutine, so
// its per-asset histories need no locking.
type StrategyHandler struct {
	guard     *strategy.Guard
	gate      *risk.Gate
	simulator *execution.Simulator
	ledger    *ledger.Manager
	histories map[string]*strategy.History
	logger    *zap.Logger
}

// HandlerConfig holds strategy handler configuration.
type HandlerConfig struct {
	Strategy  strategy.Strategy
	Gate      *risk.Gate
	Simulator *execution.Simulator
	Ledger    *ledger.Manager
	Logger    *zap.Logger
}

// NewStrategyHandler creates the trading handler.
func NewStrategyHandler(cfg *HandlerConfig) (*StrategyHandler, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("strategy cannot be nil")
	}
	if cfg.Gate == nil {
		return nil, fmt.Errorf("risk gate cannot be nil")
	}
	if cfg.Simulator == nil {
		return nil, fmt.Errorf("simulator cannot be nil")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("ledger cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &StrategyHandler{
		guard:     strategy.NewGuard(cfg.Strategy, cfg.Logger),
		gate:      cfg.Gate,
		simulator: cfg.Simulator,
		ledger:    cfg.Ledger,
		histories: make(map[string]*strategy.History),
		logger:    cfg.Logger,
	}, nil
}

// Name implements Observer.
func (h *StrategyHandler) Name() string { return "strategy" }

// OnTick evaluates the strategy against one tick and executes the
// resulting order if risk admits it. A risk rejection is a normal
// outcome, not an error; a failed ledger write is an error so the
// dispatcher surfaces it.
func (h *StrategyHandler) OnTick(ctx context.Context, tick types.Tick) error {
	if tick.AssetID == "" || tick.Price <= 0 {
		return nil
	}

	hist, ok := h.histories[tick.AssetID]
	if !ok {
		hist = strategy.NewHistory()
		h.histories[tick.AssetID] = hist
	}
	hist.Push(types.PricePoint{Price: tick.Price, Timestamp: tick.Timestamp})

	pos, hasPos := h.ledger.Position(tick.AssetID)
	input := strategy.BuildInput(tick, hist.Points(), pos, hasPos)
	signal := h.guard.Evaluate(input)

	if signal.Action == types.ActionHold || signal.Amount <= 0 {
		return nil
	}
	SignalsTotal.WithLabelValues(signal.Action).Inc()

	if !h.gate.CheckOrder(ctx, tick.AssetID, signal.Action, signal.Amount) {
		h.logger.Info("order-rejected-by-risk",
			zap.String("asset-id", tick.AssetID),
			zap.String("action", signal.Action),
			zap.Float64("amount", signal.Amount))
		return nil
	}

	trade := h.simulator.Fill(tick.AssetID, tick.Market, signal.Action,
		tick.Price, signal.Amount, signal.Reason, tick.BestBid, tick.BestAsk)

	_, err := h.ledger.ApplyFill(ctx, trade)
	if err != nil {
		return fmt.Errorf("apply fill: %w", err)
	}

	return nil
}

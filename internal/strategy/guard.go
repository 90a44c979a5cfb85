package strategy

import (
	"math"

	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// Guard is the fault boundary around an untrusted strategy. Panics,
// errors and malformed signals all degrade to HOLD with no side
// effects; strategy faults never reach ledger or risk state.
type Guard struct {
	inner  Strategy
	logger *zap.Logger
}

// NewGuard wraps a strategy in the fault boundary.
func NewGuard(inner Strategy, logger *zap.Logger) *Guard {
	return &Guard{inner: inner, logger: logger}
}

// Name returns the wrapped strategy's name.
func (g *Guard) Name() string {
	return g.inner.Name()
}

// Evaluate calls the wrapped strategy and validates its output. The
// returned signal is always safe to act on: either a validated
// BUY/SELL with a positive finite amount, or HOLD.
func (g *Guard) Evaluate(input types.SignalInput) (signal types.Signal) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("strategy-panic",
				zap.String("strategy", g.inner.Name()),
				zap.String("market-id", input.MarketID),
				zap.Any("panic", r))
			signal = types.Signal{Action: types.ActionHold}
		}
	}()

	raw, err := g.inner.Evaluate(input)
	if err != nil {
		g.logger.Warn("strategy-error",
			zap.String("strategy", g.inner.Name()),
			zap.String("market-id", input.MarketID),
			zap.Error(err))
		return types.Signal{Action: types.ActionHold}
	}

	return g.validate(raw, input)
}

func (g *Guard) validate(raw types.Signal, input types.SignalInput) types.Signal {
	switch raw.Action {
	case types.ActionHold:
		return raw
	case types.ActionBuy, types.ActionSell:
	default:
		g.logger.Warn("strategy-invalid-action",
			zap.String("strategy", g.inner.Name()),
			zap.String("market-id", input.MarketID),
			zap.String("action", raw.Action))
		return types.Signal{Action: types.ActionHold}
	}

	if math.IsNaN(raw.Amount) || math.IsInf(raw.Amount, 0) || raw.Amount < 0 {
		g.logger.Warn("strategy-invalid-amount",
			zap.String("strategy", g.inner.Name()),
			zap.String("market-id", input.MarketID),
			zap.String("action", raw.Action),
			zap.Float64("amount", raw.Amount))
		return types.Signal{Action: types.ActionHold}
	}

	return raw
}

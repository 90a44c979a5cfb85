package backtest

import (
	"testing"
	"time"

	"github.com/mselser95/polymarket-trader/internal/execution"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// scriptedStrategy evaluates a fixed decision function, keeping tests
// independent of the builtin strategies.
type scriptedStrategy struct {
	fn func(types.SignalInput) types.Signal
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) Evaluate(input types.SignalInput) (types.Signal, error) {
	return s.fn(input), nil
}

func holdOnly() *scriptedStrategy {
	return &scriptedStrategy{fn: func(types.SignalInput) types.Signal {
		return types.Signal{Action: types.ActionHold}
	}}
}

func makeTicks(assetID string, prices ...float64) []types.Tick {
	base := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	ticks := make([]types.Tick, len(prices))
	for i, p := range prices {
		ticks[i] = types.Tick{
			AssetID:   assetID,
			Market:    "mkt-1",
			Price:     p,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return ticks
}

func newEngine(t *testing.T, s *scriptedStrategy, pricing execution.Pricing, capital float64) *Engine {
	t.Helper()

	engine, err := New(&Config{
		Strategy:       s,
		Pricing:        pricing,
		InitialCapital: capital,
		Logger:         zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return engine
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	logger := zaptest.NewLogger(t)

	_, err := New(nil)
	assert.ErrorContains(t, err, "config cannot be nil")

	_, err = New(&Config{InitialCapital: 1000, Logger: logger})
	assert.ErrorContains(t, err, "strategy cannot be nil")

	_, err = New(&Config{Strategy: holdOnly(), InitialCapital: 1000})
	assert.ErrorContains(t, err, "logger cannot be nil")

	_, err = New(&Config{Strategy: holdOnly(), Logger: logger})
	assert.ErrorContains(t, err, "initial capital must be positive")
}

func TestRun_HoldOnlyConservesCapital(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, holdOnly(), execution.Pricing{}, 10000)

	result := engine.Run(makeTicks("asset-1", 0.2, 0.3, 0.4, 0.5, 0.6))

	assert.Equal(t, 10000.0, result.FinalCapital)
	assert.Empty(t, result.Trades)
	assert.Len(t, result.EquityCurve, 5)
	for _, pt := range result.EquityCurve {
		assert.Equal(t, 10000.0, pt.Equity)
	}
}

func TestRun_BuySellScenario(t *testing.T) {
	t.Parallel()

	// Buy 10 at 0.20, sell 10 at 0.40, no slippage: one SELL with
	// realized pnl 10 and final capital up by exactly 10.
	s := &scriptedStrategy{fn: func(in types.SignalInput) types.Signal {
		if in.Price == 0.20 && in.PositionNotional == 0 {
			return types.Signal{Action: types.ActionBuy, Amount: 10, Reason: "entry"}
		}
		if in.Price == 0.40 && in.PositionNotional > 0 {
			return types.Signal{Action: types.ActionSell, Amount: in.PositionNotional, Reason: "exit"}
		}
		return types.Signal{Action: types.ActionHold}
	}}

	engine := newEngine(t, s, execution.Pricing{}, 1000)
	result := engine.Run(makeTicks("asset-1", 0.20, 0.30, 0.40, 0.35))

	require.Len(t, result.Trades, 2)

	buy := result.Trades[0]
	assert.Equal(t, types.ActionBuy, buy.Action)
	assert.Equal(t, 0.20, buy.Price)
	assert.Nil(t, buy.RealizedPnL)

	sell := result.Trades[1]
	assert.Equal(t, types.ActionSell, sell.Action)
	assert.Equal(t, 0.40, sell.Price)
	require.NotNil(t, sell.RealizedPnL)
	assert.InDelta(t, 10.0, *sell.RealizedPnL, 1e-9)

	assert.InDelta(t, 1010.0, result.FinalCapital, 1e-9)
	assert.Empty(t, result.Positions)
}

func TestRun_ForcedCloseAtEnd(t *testing.T) {
	t.Parallel()

	s := &scriptedStrategy{fn: func(in types.SignalInput) types.Signal {
		if in.PositionNotional == 0 {
			return types.Signal{Action: types.ActionBuy, Amount: 50, Reason: "entry"}
		}
		return types.Signal{Action: types.ActionHold}
	}}

	engine := newEngine(t, s, execution.Pricing{}, 1000)
	ticks := makeTicks("asset-1", 0.50, 0.55, 0.60)
	result := engine.Run(ticks)

	require.Len(t, result.Trades, 2)

	forced := result.Trades[1]
	assert.Equal(t, types.ActionSell, forced.Action)
	assert.Equal(t, ForcedCloseReason, forced.Reason)
	assert.Equal(t, 0.60, forced.Price, "forced close at last observed raw price, no slippage")
	assert.Equal(t, ticks[2].Timestamp, forced.CreatedAt, "forced close stamped with the last seen tick")
	require.NotNil(t, forced.RealizedPnL)
	assert.InDelta(t, 50*(0.60-0.50)/0.50, *forced.RealizedPnL, 1e-9)

	assert.Empty(t, result.Positions, "no open positions survive the run")
	assert.InDelta(t, 1010.0, result.FinalCapital, 1e-9)
}

func TestRun_InsufficientCapitalSkipsBuy(t *testing.T) {
	t.Parallel()

	s := &scriptedStrategy{fn: func(in types.SignalInput) types.Signal {
		return types.Signal{Action: types.ActionBuy, Amount: 500}
	}}

	engine := newEngine(t, s, execution.Pricing{}, 100)
	result := engine.Run(makeTicks("asset-1", 0.50, 0.55))

	assert.Empty(t, result.Trades, "capital is never allowed to go negative")
	assert.Equal(t, 100.0, result.FinalCapital)
	assert.Len(t, result.EquityCurve, 2, "skipped buys still record equity")
}

func TestRun_MalformedTicksProduceNoEquityPoint(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, holdOnly(), execution.Pricing{}, 1000)

	ticks := makeTicks("asset-1", 0.50, 0.55)
	ticks = append(ticks, types.Tick{AssetID: "", Price: 0.60})  // missing asset
	ticks = append(ticks, types.Tick{AssetID: "asset-1"})        // missing price
	result := engine.Run(ticks)

	assert.Len(t, result.EquityCurve, 2, "one equity point per processed tick only")
}

func TestRun_StrategyPanicSkipsTradingButRecordsEquity(t *testing.T) {
	t.Parallel()

	s := &scriptedStrategy{fn: func(in types.SignalInput) types.Signal {
		panic("strategy bug")
	}}

	engine := newEngine(t, s, execution.Pricing{}, 1000)
	result := engine.Run(makeTicks("asset-1", 0.50, 0.55))

	assert.Empty(t, result.Trades)
	assert.Len(t, result.EquityCurve, 2)
	assert.Equal(t, 1000.0, result.FinalCapital)
}

func TestRun_SlippageAppliedThroughSharedPricing(t *testing.T) {
	t.Parallel()

	s := &scriptedStrategy{fn: func(in types.SignalInput) types.Signal {
		if in.PositionNotional == 0 {
			return types.Signal{Action: types.ActionBuy, Amount: 10}
		}
		return types.Signal{Action: types.ActionHold}
	}}

	pricing := execution.Pricing{UseBookPrice: true, SlippageBPS: 100}
	engine := newEngine(t, s, pricing, 1000)

	ticks := makeTicks("asset-1", 0.60)
	ticks[0].BestBid = types.Float64Ptr(0.59)
	ticks[0].BestAsk = types.Float64Ptr(0.61)
	result := engine.Run(ticks)

	require.NotEmpty(t, result.Trades)
	assert.Equal(t, 0.6161, result.Trades[0].Price, "identical arithmetic to the live fill path")
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	s := &scriptedStrategy{fn: func(in types.SignalInput) types.Signal {
		if in.Price < 0.40 && in.PositionNotional == 0 {
			return types.Signal{Action: types.ActionBuy, Amount: 25}
		}
		if in.Price > 0.55 && in.PositionNotional > 0 {
			return types.Signal{Action: types.ActionSell, Amount: in.PositionNotional}
		}
		return types.Signal{Action: types.ActionHold}
	}}

	ticks := makeTicks("asset-1", 0.35, 0.42, 0.58, 0.33, 0.61, 0.30)

	run1 := newEngine(t, s, execution.Pricing{SlippageBPS: 50}, 1000).Run(ticks)
	run2 := newEngine(t, s, execution.Pricing{SlippageBPS: 50}, 1000).Run(ticks)

	assert.Equal(t, run1.FinalCapital, run2.FinalCapital)
	assert.Equal(t, run1.Trades, run2.Trades)
	assert.Equal(t, run1.EquityCurve, run2.EquityCurve)
}

func TestRun_MultiAssetIndependentPositions(t *testing.T) {
	t.Parallel()

	s := &scriptedStrategy{fn: func(in types.SignalInput) types.Signal {
		if in.PositionNotional == 0 {
			return types.Signal{Action: types.ActionBuy, Amount: 10}
		}
		return types.Signal{Action: types.ActionHold}
	}}

	base := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	ticks := []types.Tick{
		{AssetID: "asset-1", Price: 0.50, Timestamp: base},
		{AssetID: "asset-2", Price: 0.30, Timestamp: base.Add(time.Minute)},
		{AssetID: "asset-1", Price: 0.60, Timestamp: base.Add(2 * time.Minute)},
	}

	engine := newEngine(t, s, execution.Pricing{}, 1000)
	result := engine.Run(ticks)

	// Two entries plus two forced closes.
	require.Len(t, result.Trades, 4)
	assert.Empty(t, result.Positions)
}

package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mselser95/polymarket-trader/internal/execution"
	"github.com/mselser95/polymarket-trader/internal/ledger"
	"github.com/mselser95/polymarket-trader/internal/risk"
	"github.com/mselser95/polymarket-trader/internal/testutil"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// scriptedStrategy returns a fixed decision per evaluation.
type scriptedStrategy struct {
	fn func(types.SignalInput) types.Signal
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) Evaluate(input types.SignalInput) (types.Signal, error) {
	return s.fn(input), nil
}

type memFillStore struct {
	trades []types.Trade
	err    error
}

func (s *memFillStore) RecordFill(_ context.Context, trade *types.Trade, _ *types.Position, _ bool) error {
	if s.err != nil {
		return s.err
	}
	s.trades = append(s.trades, *trade)
	return nil
}

type stubStats struct {
	count int
	pnl   float64
}

func (s *stubStats) TradeCountSince(context.Context, time.Time) (int, error) { return s.count, nil }
func (s *stubStats) RealizedPnLSince(context.Context, time.Time) (float64, error) {
	return s.pnl, nil
}

type handlerFixture struct {
	handler *StrategyHandler
	ledger  *ledger.Manager
	store   *memFillStore
}

func newHandlerFixture(t *testing.T, fn func(types.SignalInput) types.Signal, limits risk.Limits) *handlerFixture {
	t.Helper()

	logger := zaptest.NewLogger(t)
	store := &memFillStore{}

	ledgerMgr, err := ledger.NewManager(&ledger.ManagerConfig{Store: store, Logger: logger})
	require.NoError(t, err)

	gate, err := risk.New(&risk.Config{
		Limits:   limits,
		Stats:    &stubStats{},
		Exposure: ledgerMgr,
		Logger:   logger,
	})
	require.NoError(t, err)

	sim, err := execution.New(&execution.Config{SlippageBPS: 0, Logger: logger})
	require.NoError(t, err)

	handler, err := NewStrategyHandler(&HandlerConfig{
		Strategy:  &scriptedStrategy{fn: fn},
		Gate:      gate,
		Simulator: sim,
		Ledger:    ledgerMgr,
		Logger:    logger,
	})
	require.NoError(t, err)

	return &handlerFixture{handler: handler, ledger: ledgerMgr, store: store}
}

func defaultLimits() risk.Limits {
	return risk.Limits{
		MaxTotalExposure: 1000,
		MaxDailyLoss:     100,
		MaxDailyTrades:   100,
		MaxSingleTrade:   100,
	}
}

func TestNewStrategyHandler_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewStrategyHandler(nil)
	assert.ErrorContains(t, err, "config cannot be nil")

	_, err = NewStrategyHandler(&HandlerConfig{})
	assert.ErrorContains(t, err, "strategy cannot be nil")
}

func TestOnTick_BuyFlowsThroughLedger(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t, func(in types.SignalInput) types.Signal {
		if in.PositionNotional == 0 {
			return types.Signal{Action: types.ActionBuy, Amount: 10, Reason: "entry"}
		}
		return types.Signal{Action: types.ActionHold}
	}, defaultLimits())

	tick := testutil.CreateTestTick("asset-1", "mkt-1", 0.40)
	require.NoError(t, f.handler.OnTick(context.Background(), tick))

	pos, ok := f.ledger.Position("asset-1")
	require.True(t, ok)
	assert.Equal(t, 10.0, pos.Size)
	assert.Equal(t, 0.40, pos.AveragePrice)
	require.Len(t, f.store.trades, 1)
	assert.Equal(t, types.ActionBuy, f.store.trades[0].Action)

	// Second tick: position exists, strategy holds, nothing new.
	require.NoError(t, f.handler.OnTick(context.Background(), tick))
	assert.Len(t, f.store.trades, 1)
}

func TestOnTick_SellRealizesPnL(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t, func(in types.SignalInput) types.Signal {
		if in.PositionNotional == 0 {
			return types.Signal{Action: types.ActionBuy, Amount: 10}
		}
		if in.Price >= 0.60 {
			return types.Signal{Action: types.ActionSell, Amount: in.PositionNotional}
		}
		return types.Signal{Action: types.ActionHold}
	}, defaultLimits())

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, f.handler.OnTick(ctx, types.Tick{AssetID: "asset-1", Price: 0.40, Timestamp: now}))
	require.NoError(t, f.handler.OnTick(ctx, types.Tick{AssetID: "asset-1", Price: 0.60, Timestamp: now}))

	_, ok := f.ledger.Position("asset-1")
	assert.False(t, ok, "full sell closes the position")

	require.Len(t, f.store.trades, 2)
	sell := f.store.trades[1]
	require.NotNil(t, sell.RealizedPnL)
	assert.InDelta(t, 10*(0.60-0.40)/0.40, *sell.RealizedPnL, 1e-9)
}

func TestOnTick_RiskRejectionIsNotAnError(t *testing.T) {
	t.Parallel()

	limits := defaultLimits()
	limits.MaxSingleTrade = 5

	f := newHandlerFixture(t, func(types.SignalInput) types.Signal {
		return types.Signal{Action: types.ActionBuy, Amount: 10}
	}, limits)

	err := f.handler.OnTick(context.Background(), types.Tick{AssetID: "asset-1", Price: 0.40})
	require.NoError(t, err)

	_, ok := f.ledger.Position("asset-1")
	assert.False(t, ok, "rejected order never reaches the ledger")
	assert.Empty(t, f.store.trades)
}

func TestOnTick_MalformedTickIgnored(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t, func(types.SignalInput) types.Signal {
		return types.Signal{Action: types.ActionBuy, Amount: 10}
	}, defaultLimits())

	require.NoError(t, f.handler.OnTick(context.Background(), types.Tick{AssetID: "", Price: 0.40}))
	require.NoError(t, f.handler.OnTick(context.Background(), types.Tick{AssetID: "asset-1", Price: 0}))
	assert.Empty(t, f.store.trades)
}

func TestOnTick_StoreFailureSurfaces(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t, func(types.SignalInput) types.Signal {
		return types.Signal{Action: types.ActionBuy, Amount: 10}
	}, defaultLimits())
	f.store.err = fmt.Errorf("connection refused")

	err := f.handler.OnTick(context.Background(), types.Tick{AssetID: "asset-1", Price: 0.40})
	assert.ErrorContains(t, err, "apply fill")

	_, ok := f.ledger.Position("asset-1")
	assert.False(t, ok, "failed persistence leaves no in-memory position")
}

func TestOnTick_StrategyFaultDegradesToHold(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t, func(types.SignalInput) types.Signal {
		panic("strategy bug")
	}, defaultLimits())

	require.NoError(t, f.handler.OnTick(context.Background(), types.Tick{AssetID: "asset-1", Price: 0.40}))
	assert.Empty(t, f.store.trades)
}

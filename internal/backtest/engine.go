package backtest

import (
	"fmt"
	"time"

	"github.com/mselser95/polymarket-trader/internal/execution"
	"github.com/mselser95/polymarket-trader/internal/ledger"
	"github.com/mselser95/polymarket-trader/internal/strategy"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// ForcedCloseReason tags the synthetic SELL that closes positions
// still open after the last tick.
const ForcedCloseReason = "forced close at backtest end"

// Engine replays an ordered tick sequence through the same signal,
// pricing and ledger arithmetic the live path uses. It is single
// threaded, reads no clock inside the loop and keeps all state in
// memory, so identical inputs produce identical results.
//
// The risk gate is deliberately not consulted: backtests show what a
// strategy would do if limits did not exist. This diverges from the
// live path on purpose.
type Engine struct {
	guard          *strategy.Guard
	pricing        execution.Pricing
	initialCapital float64
	logger         *zap.Logger
}

// Config holds backtest engine configuration.
type Config struct {
	Strategy       strategy.Strategy
	Pricing        execution.Pricing
	InitialCapital float64
	Logger         *zap.Logger
}

// New creates a backtest engine.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("strategy cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive")
	}

	return &Engine{
		guard:          strategy.NewGuard(cfg.Strategy, cfg.Logger),
		pricing:        cfg.Pricing,
		initialCapital: cfg.InitialCapital,
		logger:         cfg.Logger,
	}, nil
}

// Run replays ticks in the given order. The caller guarantees ascending
// timestamps; the engine does not re-sort.
func (e *Engine) Run(ticks []types.Tick) *Result {
	capital := e.initialCapital
	book := ledger.NewBook()
	histories := make(map[string]*strategy.History)
	lastPrices := make(map[string]float64)
	lastTickAt := make(map[string]time.Time)

	result := &Result{
		InitialCapital: e.initialCapital,
		Trades:         []types.Trade{},
		EquityCurve:    make([]EquityPoint, 0, len(ticks)),
		Positions:      []types.Position{},
	}

	for _, tick := range ticks {
		if tick.AssetID == "" || tick.Price <= 0 {
			continue
		}

		lastPrices[tick.AssetID] = tick.Price
		lastTickAt[tick.AssetID] = tick.Timestamp

		hist, ok := histories[tick.AssetID]
		if !ok {
			hist = strategy.NewHistory()
			histories[tick.AssetID] = hist
		}
		hist.Push(types.PricePoint{Price: tick.Price, Timestamp: tick.Timestamp})

		pos, hasPos := book.Position(tick.AssetID)
		input := strategy.BuildInput(tick, hist.Points(), pos, hasPos)
		signal := e.guard.Evaluate(input)

		switch {
		case signal.Action == types.ActionBuy && signal.Amount > 0:
			capital = e.processBuy(tick, signal, capital, book, result)
		case signal.Action == types.ActionSell && signal.Amount > 0:
			capital = e.processSell(tick, signal, capital, book, result)
		}

		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Timestamp: tick.Timestamp,
			Equity:    markToMarket(capital, book, lastPrices),
			Capital:   capital,
		})
	}

	capital = e.forceClose(capital, book, lastPrices, lastTickAt, result)

	result.FinalCapital = capital
	result.Positions = book.Positions()

	e.logger.Info("backtest-complete",
		zap.Int("ticks", len(ticks)),
		zap.Int("trades", len(result.Trades)),
		zap.Float64("initial-capital", result.InitialCapital),
		zap.Float64("final-capital", result.FinalCapital))

	return result
}

func (e *Engine) processBuy(tick types.Tick, signal types.Signal, capital float64, book *ledger.Book, result *Result) float64 {
	if signal.Amount > capital {
		e.logger.Debug("backtest-insufficient-capital",
			zap.String("asset-id", tick.AssetID),
			zap.Float64("amount", signal.Amount),
			zap.Float64("capital", capital))
		return capital
	}

	fillPrice := e.pricing.FillPrice(types.ActionBuy, tick.Price, tick.BestBid, tick.BestAsk)
	res := book.ApplyFill(tick.AssetID, tick.Market, types.ActionBuy, fillPrice, signal.Amount, tick.Timestamp)

	result.Trades = append(result.Trades, types.Trade{
		AssetID:   tick.AssetID,
		Market:    tick.Market,
		Action:    types.ActionBuy,
		Price:     fillPrice,
		Notional:  res.Notional,
		Simulated: true,
		Reason:    signal.Reason,
		CreatedAt: tick.Timestamp,
	})

	return capital - res.Notional
}

func (e *Engine) processSell(tick types.Tick, signal types.Signal, capital float64, book *ledger.Book, result *Result) float64 {
	fillPrice := e.pricing.FillPrice(types.ActionSell, tick.Price, tick.BestBid, tick.BestAsk)
	res := book.ApplyFill(tick.AssetID, tick.Market, types.ActionSell, fillPrice, signal.Amount, tick.Timestamp)
	if res.Skipped {
		return capital
	}

	pnl := res.RealizedPnL
	result.Trades = append(result.Trades, types.Trade{
		AssetID:     tick.AssetID,
		Market:      tick.Market,
		Action:      types.ActionSell,
		Price:       fillPrice,
		Notional:    res.Notional,
		Simulated:   true,
		RealizedPnL: &pnl,
		Reason:      signal.Reason,
		CreatedAt:   tick.Timestamp,
	})

	return capital + res.Notional + res.RealizedPnL
}

// forceClose liquidates every open position at its last observed raw
// price, without slippage. Timestamps come from the last seen tick,
// never the wall clock.
func (e *Engine) forceClose(capital float64, book *ledger.Book, lastPrices map[string]float64, lastTickAt map[string]time.Time, result *Result) float64 {
	for _, pos := range book.Positions() {
		closePrice, ok := lastPrices[pos.AssetID]
		if !ok {
			closePrice = pos.AveragePrice
		}

		res := book.ApplyFill(pos.AssetID, pos.Market, types.ActionSell, closePrice, pos.Size, lastTickAt[pos.AssetID])
		if res.Skipped {
			continue
		}

		pnl := res.RealizedPnL
		result.Trades = append(result.Trades, types.Trade{
			AssetID:     pos.AssetID,
			Market:      pos.Market,
			Action:      types.ActionSell,
			Price:       closePrice,
			Notional:    res.Notional,
			Simulated:   true,
			RealizedPnL: &pnl,
			Reason:      ForcedCloseReason,
			CreatedAt:   lastTickAt[pos.AssetID],
		})

		capital += res.Notional + res.RealizedPnL
	}

	return capital
}

// markToMarket approximates unrealized P&L as a price ratio against
// cost basis: equity = capital + Σ size * price / avg. Size is notional
// denominated, so the ratio correction avoids double-counting. The
// formula must stay exactly this for parity with recorded runs.
func markToMarket(capital float64, book *ledger.Book, lastPrices map[string]float64) float64 {
	equity := capital
	for _, pos := range book.Positions() {
		if pos.Size <= 0 || pos.AveragePrice <= 0 {
			continue
		}
		price, ok := lastPrices[pos.AssetID]
		if !ok {
			price = pos.AveragePrice
		}
		equity += pos.Size * price / pos.AveragePrice
	}
	return ledger.Round6(equity)
}

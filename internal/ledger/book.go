package ledger

import (
	"math"
	"time"

	"github.com/mselser95/polymarket-trader/pkg/types"
)

// closeEpsilon absorbs floating-point residue: a remaining size at or
// below this is treated as fully closed.
const closeEpsilon = 0.001

// Round6 rounds v to 6 decimal places. Every stored price, notional and
// P&L value passes through this at the point it becomes position or
// trade state; accumulation happens before rounding.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// FillResult describes what a fill did to the position.
type FillResult struct {
	// Notional actually applied. For SELL this is capped at the
	// position size; for BUY it equals the requested notional.
	Notional float64
	// RealizedPnL locked in by a SELL against the average cost basis.
	// Zero for BUY.
	RealizedPnL float64
	// Closed is true when the position was fully closed and deleted.
	Closed bool
	// Skipped is true for a SELL against no position (a silently
	// accepted no-op, never an error).
	Skipped bool
}

// applyFill computes the next position state for a fill. It is the one
// implementation of weighted-average cost accounting: the live manager
// and the backtest book both route through it, which is what guarantees
// bit-identical arithmetic on both paths.
func applyFill(pos types.Position, exists bool, assetID, market, action string, fillPrice, notional float64, at time.Time) (types.Position, FillResult) {
	switch action {
	case types.ActionBuy:
		if !exists {
			return types.Position{
				AssetID:      assetID,
				Market:       market,
				Side:         types.ActionBuy,
				Size:         Round6(notional),
				AveragePrice: Round6(fillPrice),
				OpenedAt:     at,
				UpdatedAt:    at,
			}, FillResult{Notional: notional}
		}
		newSize := Round6(pos.Size + notional)
		pos.AveragePrice = Round6((pos.AveragePrice*pos.Size + fillPrice*notional) / newSize)
		pos.Size = newSize
		pos.UpdatedAt = at
		return pos, FillResult{Notional: notional}

	case types.ActionSell:
		if !exists || pos.Size <= 0 {
			return pos, FillResult{Skipped: true}
		}
		sellNotional := Round6(math.Min(notional, pos.Size))
		realized := 0.0
		if pos.AveragePrice > 0 {
			realized = Round6(sellNotional * (fillPrice - pos.AveragePrice) / pos.AveragePrice)
		}
		remaining := Round6(pos.Size - sellNotional)
		res := FillResult{Notional: sellNotional, RealizedPnL: realized}
		if remaining <= closeEpsilon {
			res.Closed = true
			pos.Size = 0
			pos.AveragePrice = 0
		} else {
			pos.Size = remaining
		}
		pos.RealizedPnL = Round6(pos.RealizedPnL + realized)
		pos.UpdatedAt = at
		return pos, res
	}

	return pos, FillResult{Skipped: true}
}

// Book is the in-memory position ledger. It is not safe for concurrent
// use; the live pipeline serializes ticks and the backtest engine is
// single-threaded.
type Book struct {
	positions map[string]*types.Position
	// order preserves first-open order so Positions and the backtest
	// forced-close pass are deterministic.
	order []string
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{positions: make(map[string]*types.Position)}
}

// Load seeds the book with an existing position, e.g. hydrated from
// storage at startup.
func (b *Book) Load(pos types.Position) {
	if pos.Size <= 0 {
		return
	}
	if _, ok := b.positions[pos.AssetID]; !ok {
		b.order = append(b.order, pos.AssetID)
	}
	p := pos
	b.positions[pos.AssetID] = &p
}

// ApplyFill applies a fill to the book and returns what it did.
// A SELL without a position is a no-op; oversells are capped; a
// position whose remaining size falls to closeEpsilon or below is
// deleted.
func (b *Book) ApplyFill(assetID, market, action string, fillPrice, notional float64, at time.Time) FillResult {
	cur, exists := b.get(assetID)
	next, res := applyFill(cur, exists, assetID, market, action, fillPrice, notional, at)
	if res.Skipped {
		return res
	}
	b.put(assetID, next, res.Closed)
	return res
}

// Preview computes the fill outcome without mutating the book. Commit
// applies a previewed state; the pair lets the live path persist the
// trade and position in one transaction before the in-memory state
// moves.
func (b *Book) Preview(assetID, market, action string, fillPrice, notional float64, at time.Time) (types.Position, FillResult) {
	cur, exists := b.get(assetID)
	return applyFill(cur, exists, assetID, market, action, fillPrice, notional, at)
}

// Commit installs a previewed position state.
func (b *Book) Commit(assetID string, next types.Position, closed bool) {
	b.put(assetID, next, closed)
}

// Position returns the open position for an asset.
func (b *Book) Position(assetID string) (types.Position, bool) {
	return b.get(assetID)
}

// TotalExposure is the sum of size across all open positions. The risk
// gate uses it for the aggregate exposure cap.
func (b *Book) TotalExposure() float64 {
	total := 0.0
	for _, p := range b.positions {
		total += p.Size
	}
	return total
}

// Positions returns all open positions in first-open order.
func (b *Book) Positions() []types.Position {
	out := make([]types.Position, 0, len(b.positions))
	for _, assetID := range b.order {
		if p, ok := b.positions[assetID]; ok {
			out = append(out, *p)
		}
	}
	return out
}

func (b *Book) get(assetID string) (types.Position, bool) {
	p, ok := b.positions[assetID]
	if !ok {
		return types.Position{}, false
	}
	return *p, true
}

func (b *Book) put(assetID string, next types.Position, closed bool) {
	if closed {
		delete(b.positions, assetID)
		for i, id := range b.order {
			if id == assetID {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
		return
	}
	if _, ok := b.positions[assetID]; !ok {
		b.order = append(b.order, assetID)
	}
	p := next
	b.positions[assetID] = &p
}

// Package storage persists ticks, trades and positions. The live
// pipeline writes through it; the risk gate and dashboard read from it.
package storage

import (
	"context"
	"time"

	"github.com/mselser95/polymarket-trader/pkg/types"
)

// Storage is the persistence interface for the trading pipeline.
type Storage interface {
	// SaveTick appends one tick to the price history.
	SaveTick(ctx context.Context, tick types.Tick) error

	// RecordFill atomically appends a trade and updates (or deletes,
	// when closed) the matching position. Partial writes must not
	// survive a failure.
	RecordFill(ctx context.Context, trade *types.Trade, pos *types.Position, closed bool) error

	// TradeCountSince counts trades recorded at or after since.
	TradeCountSince(ctx context.Context, since time.Time) (int, error)

	// RealizedPnLSince sums realized P&L on trades recorded at or
	// after since.
	RealizedPnLSince(ctx context.Context, since time.Time) (float64, error)

	// OpenPositions returns all positions with size > 0, most
	// recently updated first.
	OpenPositions(ctx context.Context) ([]types.Position, error)

	// RecentTrades returns the newest trades up to limit.
	RecentTrades(ctx context.Context, limit int) ([]types.Trade, error)

	// PriceHistoryRange returns ticks for a market inside the
	// inclusive time range, ascending by timestamp.
	PriceHistoryRange(ctx context.Context, market string, since, until time.Time) ([]types.Tick, error)

	// Close closes the storage connection.
	Close() error
}

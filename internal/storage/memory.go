package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// MemoryStorage implements Storage entirely in memory. It backs runs
// without a database and keeps the live pipeline's write path intact,
// state is simply lost on exit.
type MemoryStorage struct {
	mu        sync.RWMutex
	ticks     []types.Tick
	trades    []types.Trade
	positions map[string]types.Position
	logger    *zap.Logger
}

// NewMemoryStorage creates a new in-memory storage.
func NewMemoryStorage(logger *zap.Logger) *MemoryStorage {
	logger.Info("memory-storage-initialized")
	return &MemoryStorage{
		positions: make(map[string]types.Position),
		logger:    logger,
	}
}

// SaveTick appends one tick to the price history.
func (m *MemoryStorage) SaveTick(_ context.Context, tick types.Tick) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ticks = append(m.ticks, tick)
	return nil
}

// RecordFill appends the trade and updates or deletes the position.
func (m *MemoryStorage) RecordFill(_ context.Context, trade *types.Trade, pos *types.Position, closed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trades = append(m.trades, *trade)
	if closed {
		delete(m.positions, pos.AssetID)
	} else {
		m.positions[pos.AssetID] = *pos
	}
	return nil
}

// TradeCountSince counts trades recorded at or after since.
func (m *MemoryStorage) TradeCountSince(_ context.Context, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, trade := range m.trades {
		if !trade.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// RealizedPnLSince sums realized P&L on trades recorded at or after since.
func (m *MemoryStorage) RealizedPnLSince(_ context.Context, since time.Time) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := 0.0
	for _, trade := range m.trades {
		if !trade.CreatedAt.Before(since) && trade.RealizedPnL != nil {
			sum += *trade.RealizedPnL
		}
	}
	return sum, nil
}

// OpenPositions returns all positions with size > 0, most recently
// updated first.
func (m *MemoryStorage) OpenPositions(_ context.Context) ([]types.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var positions []types.Position
	for _, pos := range m.positions {
		if pos.Size > 0 {
			positions = append(positions, pos)
		}
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].UpdatedAt.After(positions[j].UpdatedAt)
	})
	return positions, nil
}

// RecentTrades returns the newest trades up to limit.
func (m *MemoryStorage) RecentTrades(_ context.Context, limit int) ([]types.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trades := make([]types.Trade, len(m.trades))
	copy(trades, m.trades)
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].CreatedAt.After(trades[j].CreatedAt)
	})
	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	return trades, nil
}

// PriceHistoryRange returns ticks for a market inside the inclusive
// time range, ascending by timestamp.
func (m *MemoryStorage) PriceHistoryRange(_ context.Context, market string, since, until time.Time) ([]types.Tick, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ticks []types.Tick
	for _, tick := range m.ticks {
		if tick.Market != market {
			continue
		}
		if tick.Timestamp.Before(since) || tick.Timestamp.After(until) {
			continue
		}
		ticks = append(ticks, tick)
	}
	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].Timestamp.Before(ticks[j].Timestamp)
	})
	return ticks, nil
}

// Close is a no-op for memory storage.
func (m *MemoryStorage) Close() error {
	m.logger.Info("closing-memory-storage")
	return nil
}

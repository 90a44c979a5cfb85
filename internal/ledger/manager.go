package ledger

import (
	"context"
	"fmt"

	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// FillStore persists a fill. The trade insert and the position
// upsert/delete must commit or roll back together.
type FillStore interface {
	RecordFill(ctx context.Context, trade *types.Trade, pos *types.Position, closed bool) error
}

// Manager is the live position ledger: the in-memory book plus durable
// persistence. The in-memory state only moves after the store commit
// succeeds, so a failed write leaves no partially-applied mutation.
type Manager struct {
	book   *Book
	store  FillStore
	logger *zap.Logger
}

// ManagerConfig holds ledger manager configuration.
type ManagerConfig struct {
	Store  FillStore
	Logger *zap.Logger
}

// NewManager creates a new ledger manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Manager{
		book:   NewBook(),
		store:  cfg.Store,
		logger: cfg.Logger,
	}, nil
}

// Hydrate seeds the book with open positions loaded from storage at
// startup.
func (m *Manager) Hydrate(positions []types.Position) {
	for _, pos := range positions {
		m.book.Load(pos)
	}
	m.logger.Info("ledger-hydrated", zap.Int("open-positions", len(positions)))
}

// ApplyFill applies a priced trade to the ledger: it computes the next
// position state, persists trade and position in one transaction, then
// commits the in-memory state. The trade's RealizedPnL field is set for
// P&L-attributing SELLs before it is persisted.
func (m *Manager) ApplyFill(ctx context.Context, trade *types.Trade) (FillResult, error) {
	next, res := m.book.Preview(trade.AssetID, trade.Market, trade.Action, trade.Price, trade.Notional, trade.CreatedAt)
	if res.Skipped {
		m.logger.Warn("ledger-sell-skipped",
			zap.String("asset-id", trade.AssetID),
			zap.Float64("notional", trade.Notional))
		return res, nil
	}

	if trade.Action == types.ActionSell {
		pnl := res.RealizedPnL
		trade.RealizedPnL = &pnl
	}

	var posPtr *types.Position
	if !res.Closed {
		posPtr = &next
	} else {
		// The store still needs the asset key to delete the row.
		closedPos := next
		closedPos.AssetID = trade.AssetID
		posPtr = &closedPos
	}

	err := m.store.RecordFill(ctx, trade, posPtr, res.Closed)
	if err != nil {
		return FillResult{}, fmt.Errorf("record fill: %w", err)
	}

	m.book.Commit(trade.AssetID, next, res.Closed)

	m.logger.Info("ledger-fill-applied",
		zap.String("asset-id", trade.AssetID),
		zap.String("action", trade.Action),
		zap.Float64("price", trade.Price),
		zap.Float64("notional", res.Notional),
		zap.Float64("realized-pnl", res.RealizedPnL),
		zap.Bool("closed", res.Closed))

	return res, nil
}

// Position returns the open position for an asset.
func (m *Manager) Position(assetID string) (types.Position, bool) {
	return m.book.Position(assetID)
}

// TotalExposure is the sum of open position sizes.
func (m *Manager) TotalExposure() float64 {
	return m.book.TotalExposure()
}

// Positions returns all open positions.
func (m *Manager) Positions() []types.Position {
	return m.book.Positions()
}

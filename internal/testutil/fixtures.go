package testutil

import (
	"time"

	"github.com/mselser95/polymarket-trader/pkg/types"
)

// CreateTestTick creates a plain price tick without book data.
func CreateTestTick(assetID string, market string, price float64) types.Tick {
	return types.Tick{
		AssetID:   assetID,
		Market:    market,
		Price:     price,
		Timestamp: time.Now().UTC(),
	}
}

// CreateTestTickWithBook creates a tick carrying best bid/ask.
func CreateTestTickWithBook(assetID string, market string, price, bid, ask float64) types.Tick {
	tick := CreateTestTick(assetID, market, price)
	tick.BestBid = types.Float64Ptr(bid)
	tick.BestAsk = types.Float64Ptr(ask)
	return tick
}

// CreateTestTrade creates a simulated trade fill.
func CreateTestTrade(id string, assetID string, action string, price, notional float64) types.Trade {
	return types.Trade{
		ID:        id,
		AssetID:   assetID,
		Market:    "test-market",
		Action:    action,
		Price:     price,
		Notional:  notional,
		Simulated: true,
		Reason:    "test fill",
		CreatedAt: time.Now().UTC(),
	}
}

// CreateTestPosition creates an open BUY position.
func CreateTestPosition(assetID string, size, avgPrice float64) types.Position {
	now := time.Now().UTC()
	return types.Position{
		AssetID:      assetID,
		Market:       "test-market",
		Side:         "BUY",
		Size:         size,
		AveragePrice: avgPrice,
		OpenedAt:     now,
		UpdatedAt:    now,
	}
}

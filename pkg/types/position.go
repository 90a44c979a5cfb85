package types

import "time"

// Position is the per-asset holding. At most one open position exists
// per asset. Size is denominated in quote currency (USDC notional), not
// outcome token count. A fully closed position is deleted, never kept
// with zero size.
type Position struct {
	AssetID      string    `json:"asset_id"`
	Market       string    `json:"market,omitempty"`
	Side         string    `json:"side"`
	Size         float64   `json:"size"`
	AveragePrice float64   `json:"average_price"`
	RealizedPnL  float64   `json:"realized_pnl"`
	OpenedAt     time.Time `json:"opened_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

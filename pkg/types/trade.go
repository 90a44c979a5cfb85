package types

import "time"

// Trade actions. HOLD never produces a trade record; it exists as a
// signal action only.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Trade is an append-only record of a single simulated fill.
// RealizedPnL is set only on SELL records that attribute P&L.
type Trade struct {
	ID          string    `json:"id,omitempty"`
	AssetID     string    `json:"asset_id"`
	Market      string    `json:"market,omitempty"`
	Action      string    `json:"action"`
	Price       float64   `json:"price"`
	Notional    float64   `json:"notional"`
	Simulated   bool      `json:"simulated"`
	RealizedPnL *float64  `json:"realized_pnl,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

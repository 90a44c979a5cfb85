package types

import "time"

// PricePoint is one entry of the bounded price history handed to a
// strategy, ordered oldest to newest.
type PricePoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// SignalInput is the contract handed to a strategy on every tick. The
// live pipeline and the backtest engine must build it identically.
type SignalInput struct {
	Price            float64      `json:"price"`
	MarketID         string       `json:"market_id"`
	History          []PricePoint `json:"history"`
	PositionNotional float64      `json:"position_notional"`
	PositionSide     string       `json:"position_side,omitempty"`
	BestBid          *float64     `json:"best_bid,omitempty"`
	BestAsk          *float64     `json:"best_ask,omitempty"`
	Timestamp        time.Time    `json:"timestamp"`
}

// Signal is the untrusted strategy output. It is validated at the fault
// boundary before anything acts on it.
type Signal struct {
	Action string  `json:"action"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

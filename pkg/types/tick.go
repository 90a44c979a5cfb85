package types

import (
	"strconv"
	"time"
)

// FlexFloat is a float64 that unmarshals from either a JSON number or a
// numeric string. Polymarket feeds and recorded tick files mix both.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// Tick is a single normalized quote update for one asset. It is the unit
// of both live evaluation and backtest replay.
type Tick struct {
	AssetID   string    `json:"asset_id"`
	Market    string    `json:"market,omitempty"`
	Price     float64   `json:"price"`
	Size      *float64  `json:"size,omitempty"`
	Side      string    `json:"side,omitempty"`
	BestBid   *float64  `json:"best_bid,omitempty"`
	BestAsk   *float64  `json:"best_ask,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Float64Ptr returns a pointer to v. Convenience for optional tick fields.
func Float64Ptr(v float64) *float64 {
	return &v
}

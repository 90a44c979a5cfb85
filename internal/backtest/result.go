package backtest

import (
	"time"

	"github.com/mselser95/polymarket-trader/pkg/types"
)

// EquityPoint is one mark-to-market sample, recorded once per
// processed tick.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
	Capital   float64   `json:"capital"`
}

// Result is the output of a backtest run.
type Result struct {
	Trades         []types.Trade    `json:"trades"`
	EquityCurve    []EquityPoint    `json:"equity_curve"`
	InitialCapital float64          `json:"initial_capital"`
	FinalCapital   float64          `json:"final_capital"`
	// Positions still open after the run. Always empty because the
	// engine force-closes at the last tick; kept in the result shape
	// for inspection if that ever changes.
	Positions []types.Position `json:"positions"`
}

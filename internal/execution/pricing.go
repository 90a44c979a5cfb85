package execution

import (
	"github.com/mselser95/polymarket-trader/internal/ledger"
	"github.com/mselser95/polymarket-trader/pkg/types"
)

// Pricing is the slippage-adjusted fill price model. The live
// simulator and the backtest engine share one instance of it; the
// arithmetic here is the parity contract between the two paths.
type Pricing struct {
	UseBookPrice bool
	SlippageBPS  float64
}

// FillPrice computes the fill price for an order. In book-price mode a
// BUY pays the best ask and a SELL hits the best bid, falling back to
// the raw price when the book side is absent. Slippage always works
// against the trader.
func (p Pricing) FillPrice(action string, rawPrice float64, bestBid, bestAsk *float64) float64 {
	base := rawPrice
	if p.UseBookPrice {
		switch action {
		case types.ActionBuy:
			if bestAsk != nil {
				base = *bestAsk
			}
		case types.ActionSell:
			if bestBid != nil {
				base = *bestBid
			}
		}
	}

	slip := p.SlippageBPS / 10000
	var fill float64
	if action == types.ActionBuy {
		fill = base * (1 + slip)
	} else {
		fill = base * (1 - slip)
	}

	return ledger.Round6(fill)
}

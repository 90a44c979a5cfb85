package strategy

import (
	"fmt"

	"github.com/mselser95/polymarket-trader/pkg/types"
)

// Threshold is the reference strategy: buy cheap outcome tokens below a
// floor price, close the position above a ceiling price.
type Threshold struct {
	buyBelow  float64
	sellAbove float64
	buySize   float64
}

// NewThreshold creates a threshold strategy.
// Params: buy_below (default 0.30), sell_above (0.70), buy_size (10).
func NewThreshold(params Params) *Threshold {
	return &Threshold{
		buyBelow:  params.Float("buy_below", 0.30),
		sellAbove: params.Float("sell_above", 0.70),
		buySize:   params.Float("buy_size", 10.0),
	}
}

// Name implements Strategy.
func (s *Threshold) Name() string {
	return "threshold"
}

// Evaluate implements Strategy.
func (s *Threshold) Evaluate(input types.SignalInput) (types.Signal, error) {
	if input.Price < s.buyBelow && input.PositionNotional == 0 {
		return types.Signal{
			Action: types.ActionBuy,
			Amount: s.buySize,
			Reason: fmt.Sprintf("price %.4f below buy threshold %.2f", input.Price, s.buyBelow),
		}, nil
	}

	if input.Price > s.sellAbove && input.PositionNotional > 0 {
		return types.Signal{
			Action: types.ActionSell,
			Amount: input.PositionNotional,
			Reason: fmt.Sprintf("price %.4f above sell threshold %.2f", input.Price, s.sellAbove),
		}, nil
	}

	return types.Signal{Action: types.ActionHold}, nil
}

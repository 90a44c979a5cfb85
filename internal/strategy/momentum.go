package strategy

import (
	"fmt"

	"github.com/mselser95/polymarket-trader/pkg/types"
)

// Momentum buys into a sustained upward move and exits when the move
// reverses by more than the exit threshold from the entry-side trend.
type Momentum struct {
	lookback  int
	entryMove float64
	exitMove  float64
	buySize   float64
}

// NewMomentum creates a momentum strategy.
// Params: lookback (default 10 points), entry_move (0.05 absolute price
// move over the lookback), exit_move (0.03 reversal), buy_size (10).
func NewMomentum(params Params) *Momentum {
	lookback := int(params.Float("lookback", 10))
	if lookback < 2 {
		lookback = 2
	}
	return &Momentum{
		lookback:  lookback,
		entryMove: params.Float("entry_move", 0.05),
		exitMove:  params.Float("exit_move", 0.03),
		buySize:   params.Float("buy_size", 10.0),
	}
}

// Name implements Strategy.
func (s *Momentum) Name() string {
	return "momentum"
}

// Evaluate implements Strategy.
func (s *Momentum) Evaluate(input types.SignalInput) (types.Signal, error) {
	if len(input.History) < s.lookback {
		return types.Signal{Action: types.ActionHold, Reason: "insufficient history"}, nil
	}

	window := input.History[len(input.History)-s.lookback:]
	move := input.Price - window[0].Price

	if input.PositionNotional == 0 && move >= s.entryMove {
		return types.Signal{
			Action: types.ActionBuy,
			Amount: s.buySize,
			Reason: fmt.Sprintf("upward move %.4f over last %d points", move, s.lookback),
		}, nil
	}

	if input.PositionNotional > 0 && move <= -s.exitMove {
		return types.Signal{
			Action: types.ActionSell,
			Amount: input.PositionNotional,
			Reason: fmt.Sprintf("reversal %.4f over last %d points", move, s.lookback),
		}, nil
	}

	return types.Signal{Action: types.ActionHold}, nil
}

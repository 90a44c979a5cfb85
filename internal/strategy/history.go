package strategy

import (
	"github.com/mselser95/polymarket-trader/pkg/types"
)

// HistoryCapacity bounds the per-asset rolling price history handed to
// strategies, on both the live and the backtest path.
const HistoryCapacity = 100

// History is a bounded rolling buffer of price points for one asset,
// oldest first.
type History struct {
	points []types.PricePoint
}

// NewHistory creates an empty history buffer.
func NewHistory() *History {
	return &History{points: make([]types.PricePoint, 0, HistoryCapacity)}
}

// Push appends a point, evicting the oldest when full.
func (h *History) Push(p types.PricePoint) {
	if len(h.points) == HistoryCapacity {
		copy(h.points, h.points[1:])
		h.points[len(h.points)-1] = p
		return
	}
	h.points = append(h.points, p)
}

// Points returns a copy of the buffered points, oldest first.
func (h *History) Points() []types.PricePoint {
	out := make([]types.PricePoint, len(h.points))
	copy(out, h.points)
	return out
}

// Len returns the number of buffered points.
func (h *History) Len() int {
	return len(h.points)
}

// BuildInput constructs the SignalInput for a tick. The live pipeline
// and the backtest engine both route through this function; the shape a
// strategy sees is identical on either path.
func BuildInput(tick types.Tick, history []types.PricePoint, pos types.Position, hasPosition bool) types.SignalInput {
	input := types.SignalInput{
		Price:     tick.Price,
		MarketID:  tick.Market,
		History:   history,
		BestBid:   tick.BestBid,
		BestAsk:   tick.BestAsk,
		Timestamp: tick.Timestamp,
	}
	if hasPosition {
		input.PositionNotional = pos.Size
		input.PositionSide = pos.Side
	}
	return input
}

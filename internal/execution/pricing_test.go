package execution

import (
	"testing"

	"github.com/mselser95/polymarket-trader/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestPricing_FillPrice(t *testing.T) {
	t.Parallel()

	bid := types.Float64Ptr(0.59)
	ask := types.Float64Ptr(0.61)

	tests := []struct {
		name    string
		pricing Pricing
		action  string
		raw     float64
		bestBid *float64
		bestAsk *float64
		want    float64
	}{
		{
			name:    "buy-pays-ask-plus-slippage",
			pricing: Pricing{UseBookPrice: true, SlippageBPS: 100},
			action:  types.ActionBuy,
			raw:     0.60,
			bestBid: bid,
			bestAsk: ask,
			want:    0.6161, // 0.61 * 1.01
		},
		{
			name:    "sell-hits-bid-minus-slippage",
			pricing: Pricing{UseBookPrice: true, SlippageBPS: 100},
			action:  types.ActionSell,
			raw:     0.60,
			bestBid: bid,
			bestAsk: ask,
			want:    0.5841, // 0.59 * 0.99
		},
		{
			name:    "buy-falls-back-to-raw-without-ask",
			pricing: Pricing{UseBookPrice: true, SlippageBPS: 100},
			action:  types.ActionBuy,
			raw:     0.60,
			bestBid: bid,
			want:    0.606,
		},
		{
			name:    "sell-falls-back-to-raw-without-bid",
			pricing: Pricing{UseBookPrice: true, SlippageBPS: 100},
			action:  types.ActionSell,
			raw:     0.60,
			bestAsk: ask,
			want:    0.594,
		},
		{
			name:    "book-price-disabled-uses-raw",
			pricing: Pricing{UseBookPrice: false, SlippageBPS: 100},
			action:  types.ActionBuy,
			raw:     0.60,
			bestBid: bid,
			bestAsk: ask,
			want:    0.606,
		},
		{
			name:    "zero-slippage-is-identity",
			pricing: Pricing{UseBookPrice: false, SlippageBPS: 0},
			action:  types.ActionSell,
			raw:     0.4321,
			want:    0.4321,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.pricing.FillPrice(tt.action, tt.raw, tt.bestBid, tt.bestAsk)
			assert.Equal(t, tt.want, got)
		})
	}
}

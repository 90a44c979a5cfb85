package feed

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// wsEvent is the loose CLOB event shape. Numeric fields arrive as JSON
// numbers or strings depending on the event type, timestamps as epoch
// milliseconds.
type wsEvent struct {
	EventType    string           `json:"event_type"`
	AssetID      string           `json:"asset_id"`
	Market       string           `json:"market"`
	Price        *types.FlexFloat `json:"price"`
	Size         *types.FlexFloat `json:"size"`
	Side         string           `json:"side"`
	BestBid      *types.FlexFloat `json:"best_bid"`
	BestAsk      *types.FlexFloat `json:"best_ask"`
	Timestamp    *types.FlexFloat `json:"timestamp"`
	PriceChanges []wsEvent        `json:"price_changes"`
}

// Normalizer converts raw exchange messages into ticks. Malformed
// fields are dropped, never fatal: a bad message yields zero ticks.
type Normalizer struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewNormalizer creates a message normalizer.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{
		logger: logger,
		now:    time.Now,
	}
}

// Normalize parses one raw message. The exchange sends either a JSON
// array of events or a single object; both are accepted.
func (n *Normalizer) Normalize(message []byte) []types.Tick {
	var events []wsEvent
	err := json.Unmarshal(message, &events)
	if err != nil {
		var single wsEvent
		err = json.Unmarshal(message, &single)
		if err != nil {
			preview := string(message)
			if len(preview) > 100 {
				preview = preview[:100]
			}
			n.logger.Debug("unparseable-feed-message",
				zap.Int("bytes", len(message)),
				zap.String("preview", preview))
			return nil
		}
		events = []wsEvent{single}
	}

	var ticks []types.Tick
	for _, event := range events {
		ticks = append(ticks, n.eventTicks(event)...)
	}
	return ticks
}

func (n *Normalizer) eventTicks(event wsEvent) []types.Tick {
	// Wrapper shape: {"market": "...", "price_changes": [...]} with the
	// market only on the envelope.
	if len(event.PriceChanges) > 0 {
		var ticks []types.Tick
		for _, change := range event.PriceChanges {
			if change.Market == "" {
				change.Market = event.Market
			}
			if change.EventType == "" {
				change.EventType = "price_change"
			}
			ticks = append(ticks, n.eventTicks(change)...)
		}
		return ticks
	}

	switch event.EventType {
	case "price_change", "last_trade_price":
		tick, ok := n.toTick(event)
		if !ok {
			return nil
		}
		EventsTotal.WithLabelValues(event.EventType).Inc()
		return []types.Tick{tick}
	case "book", "tick_size_change", "":
		// Book snapshots and tick-size changes carry no trade price.
		return nil
	default:
		n.logger.Debug("unhandled-feed-event", zap.String("event-type", event.EventType))
		return nil
	}
}

func (n *Normalizer) toTick(event wsEvent) (types.Tick, bool) {
	if event.AssetID == "" || event.Price == nil {
		return types.Tick{}, false
	}

	tick := types.Tick{
		AssetID:   event.AssetID,
		Market:    event.Market,
		Price:     float64(*event.Price),
		Side:      event.Side,
		Timestamp: n.eventTime(event.Timestamp),
	}
	if event.Size != nil {
		tick.Size = types.Float64Ptr(float64(*event.Size))
	}
	if event.BestBid != nil {
		tick.BestBid = types.Float64Ptr(float64(*event.BestBid))
	}
	if event.BestAsk != nil {
		tick.BestAsk = types.Float64Ptr(float64(*event.BestAsk))
	}
	return tick, true
}

// eventTime converts an epoch-milliseconds timestamp, falling back to
// the wall clock when the field is absent.
func (n *Normalizer) eventTime(ts *types.FlexFloat) time.Time {
	if ts == nil || *ts <= 0 {
		return n.now().UTC()
	}
	return time.UnixMilli(int64(*ts)).UTC()
}

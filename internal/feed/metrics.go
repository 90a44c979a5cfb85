package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ActiveConnections tracks active WebSocket connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polytrader_feed_active_connections",
		Help: "Number of active WebSocket connections",
	})

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polytrader_feed_reconnect_attempts_total",
		Help: "Total number of WebSocket reconnection attempts",
	})

	// ReconnectFailuresTotal tracks reconnection failures.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polytrader_feed_reconnect_failures_total",
		Help: "Total number of WebSocket reconnection failures",
	})

	// EventsTotal tracks normalized events by type.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polytrader_feed_events_total",
			Help: "Total number of price events normalized into ticks",
		},
		[]string{"event_type"},
	)

	// TicksDroppedTotal tracks ticks dropped due to a full channel.
	TicksDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polytrader_feed_ticks_dropped_total",
		Help: "Total number of ticks dropped due to channel full",
	})

	// SubscriptionCount tracks active asset subscriptions.
	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polytrader_feed_subscription_count",
		Help: "Number of active asset subscriptions",
	})
)

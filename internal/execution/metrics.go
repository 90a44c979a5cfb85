package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// TradesTotal tracks simulated fills by action.
	TradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polytrader_execution_trades_total",
			Help: "Total number of simulated fills",
		},
		[]string{"action"},
	)

	// FillDurationSeconds tracks fill pricing latency.
	FillDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polytrader_execution_fill_duration_seconds",
		Help:    "Duration of fill price computation",
		Buckets: prometheus.DefBuckets,
	})
)

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// TicksTotal tracks ticks dispatched to observers.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polytrader_engine_ticks_total",
		Help: "Total number of ticks dispatched",
	})

	// ObserverErrorsTotal tracks per-observer failures.
	ObserverErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polytrader_engine_observer_errors_total",
			Help: "Total number of observer failures",
		},
		[]string{"observer"},
	)

	// DispatchDurationSeconds tracks full fan-out latency per tick.
	DispatchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polytrader_engine_dispatch_duration_seconds",
		Help:    "Duration of full observer fan-out per tick",
		Buckets: prometheus.DefBuckets,
	})

	// SignalsTotal tracks validated strategy signals by action.
	SignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polytrader_engine_signals_total",
			Help: "Total number of strategy signals by action",
		},
		[]string{"action"},
	)
)

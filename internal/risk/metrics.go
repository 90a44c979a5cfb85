package risk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ChecksTotal tracks admission checks.
	ChecksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polytrader_risk_checks_total",
		Help: "Total number of order admission checks",
	})

	// RejectionsTotal tracks rejections by limiting rule.
	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polytrader_risk_rejections_total",
			Help: "Total number of rejected orders by rule",
		},
		[]string{"rule"},
	)

	// BreakerState is 1 while the circuit breaker is halted.
	BreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polytrader_risk_breaker_halted",
		Help: "Circuit breaker state (1 = halted, 0 = normal)",
	})

	// BreakerTripsTotal counts breaker trips.
	BreakerTripsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polytrader_risk_breaker_trips_total",
		Help: "Total number of circuit breaker trips",
	})
)

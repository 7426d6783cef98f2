package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var (
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c2d_backend_calls_total",
			Help: "Total number of calls made to the Code2Deploy API",
		},
		[]string{"resource", "method", "status"},
	)

	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "c2d_backend_call_duration_seconds",
			Help:    "Latency of calls made to the Code2Deploy API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource", "method"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "c2d_backend_circuit_breaker_state",
			Help: "Current state of the backend circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	solveTotal    *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	solveErrors   *prometheus.CounterVec
)

// InitMetrics registers all custom metrics with the provided registry
func InitMetrics(registry prometheus.Registerer) {
	solveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dple_solve_total",
			Help: "Total number of periodic Lyapunov solve calls",
		},
		[]string{"strategy"},
	)
	solveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dple_solve_duration_seconds",
			Help:    "Wall-clock duration of solve calls",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		},
		[]string{"strategy", "phase"},
	)
	solveErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dple_solve_errors_total",
			Help: "Total number of failed solve calls",
		},
		[]string{"strategy", "error_type"},
	)

	registry.MustRegister(solveTotal)
	registry.MustRegister(solveDuration)
	registry.MustRegister(solveErrors)
}

// RecordSolve updates counters for a completed solve call.
func RecordSolve(strategy string, total time.Duration) {
	if solveTotal == nil {
		return
	}
	solveTotal.WithLabelValues(strategy).Inc()
	solveDuration.WithLabelValues(strategy, "total").Observe(total.Seconds())
}

// RecordPhase records the duration of a named solve phase.
func RecordPhase(strategy, phase string, d time.Duration) {
	if solveDuration == nil {
		return
	}
	solveDuration.WithLabelValues(strategy, phase).Observe(d.Seconds())
}

// RecordError counts a failed solve call by error type.
func RecordError(strategy, errorType string) {
	if solveErrors == nil {
		return
	}
	solveErrors.WithLabelValues(strategy, errorType).Inc()
}

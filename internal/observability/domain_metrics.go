package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	askRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdata_ask_requests_total",
			Help: "Total number of ask pipeline runs by terminal outcome.",
		},
		[]string{"outcome"},
	)
	askStageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdata_ask_stage_duration_seconds",
			Help:    "Latency of the blocking ask pipeline stages.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)
	askResultRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdata_ask_result_rows",
			Help:    "Number of rows returned by successful ask requests.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)
	sanitizedNonFiniteTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdata_sanitized_nonfinite_total",
			Help: "Total number of NaN/Infinity result values replaced with null.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		askRequestsTotal,
		askStageDurationSeconds,
		askResultRows,
		sanitizedNonFiniteTotal,
	)
}

func ObserveAskOutcome(outcome string) {
	askRequestsTotal.WithLabelValues(outcome).Inc()
}

func ObserveAskStage(stage string, elapsed time.Duration) {
	askStageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func ObserveAskResult(rows, nonFinite int) {
	if rows < 0 {
		rows = 0
	}
	askResultRows.Observe(float64(rows))
	if nonFinite > 0 {
		sanitizedNonFiniteTotal.Add(float64(nonFinite))
	}
}

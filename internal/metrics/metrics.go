// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Latency of each API operation, by endpoint
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loan_decision_request_duration_seconds",
		Help:    "Latency of loan decision API operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// Requests that ended in an error, by endpoint and HTTP status
	RequestErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loan_decision_request_errors_total",
		Help: "Total loan decision requests that failed",
	}, []string{"endpoint", "status"})

	// Decisions served, by predicted label
	DecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loan_decision_decisions_total",
		Help: "Total classifier decisions served, by label",
	}, []string{"label"})

	// Recommendations produced for rejected applications
	RecommendationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "loan_decision_recommendations_total",
		Help: "Total recommendations generated for rejected applications",
	})

	// Rows processed by batch prediction, by outcome
	BatchRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loan_decision_batch_rows_total",
		Help: "Total batch rows processed, by outcome",
	}, []string{"outcome"})
)

var initOnce sync.Once

// Init registers the collectors with the default registry. Calling it more
// than once is a no-op.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration,
			RequestErrors,
			DecisionsTotal,
			RecommendationsTotal,
			BatchRowsTotal,
		)
	})
}

// ObserveBatch records the outcome counts of a batch run.
func ObserveBatch(succeeded, failed int) {
	BatchRowsTotal.WithLabelValues("succeeded").Add(float64(succeeded))
	BatchRowsTotal.WithLabelValues("failed").Add(float64(failed))
}

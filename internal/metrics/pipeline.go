package metrics

import "github.com/prometheus/client_golang/prometheus"

// Attempt results for GenerationAttemptsTotal.
const (
	AttemptSuccess         = "success"
	AttemptProviderError   = "provider_error"
	AttemptParseError      = "parse_error"
	AttemptShapeError      = "shape_error"
	AttemptSchemaViolation = "schema_violation"
)

// Query generation and search Prometheus metrics.
var (
	GenerationAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartsearch",
			Name:      "generation_attempts_total",
			Help:      "Query generation attempts by result",
		},
		[]string{"result"},
	)

	GenerationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "smartsearch",
			Name:      "generation_failures_total",
			Help:      "Query generations that exhausted every attempt",
		},
	)

	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartsearch",
			Name:      "generation_duration_seconds",
			Help:      "End-to-end query generation duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60, 120},
		},
		[]string{"status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartsearch",
			Name:      "search_request_duration_seconds",
			Help:      "Search backend request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"status"},
	)

	SearchEmptyResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "smartsearch",
			Name:      "search_empty_results_total",
			Help:      "Smart searches that matched no documents",
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers generation and search metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(GenerationAttemptsTotal)
	prometheus.MustRegister(GenerationFailuresTotal)
	prometheus.MustRegister(GenerationDuration)
	prometheus.MustRegister(SearchRequestDuration)
	prometheus.MustRegister(SearchEmptyResultsTotal)
	pipelineMetricsRegistered = true
}

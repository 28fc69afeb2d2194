// Package metrics provides Prometheus metrics for the analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts analysis requests.
	RequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "diaryd",
			Name:      "requests_total",
			Help:      "Total number of analysis requests",
		},
	)

	// RequestsSuccess counts successfully answered requests.
	RequestsSuccess = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "diaryd",
			Name:      "requests_success_total",
			Help:      "Total number of successful requests",
		},
	)

	// RequestsFailed counts rejected requests.
	// Labels: error_type (validation, internal)
	RequestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "diaryd",
			Name:      "requests_failed_total",
			Help:      "Total number of failed requests",
		},
		[]string{"error_type"},
	)

	// RequestLatency tracks end-to-end analysis latency.
	RequestLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "diaryd",
			Name:      "request_latency_seconds",
			Help:      "Request latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
	)

	// HeuristicLatency tracks the rule-based parser stage.
	HeuristicLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "diaryd",
			Name:      "heuristic_latency_seconds",
			Help:      "Heuristic parser latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.2, 0.5},
		},
	)

	// LLMLatency tracks the model fallback stage.
	LLMLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "diaryd",
			Name:      "llm_latency_seconds",
			Help:      "Model parser latency in seconds",
			Buckets:   []float64{0.5, 1.0, 2.0, 5.0, 10.0, 20.0},
		},
	)

	// LLMCallsTotal counts model invocations.
	LLMCallsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "diaryd",
			Name:      "llm_calls_total",
			Help:      "Total number of model API calls",
		},
	)

	// LLMErrorsTotal counts failed model invocations.
	LLMErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "diaryd",
			Name:      "llm_errors_total",
			Help:      "Total number of model errors",
		},
	)

	// LLMTokensUsed counts tokens consumed by model calls.
	LLMTokensUsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "diaryd",
			Name:      "llm_tokens_used_total",
			Help:      "Total tokens used by model calls",
		},
	)

	// ActionsExtracted tracks actions per request.
	ActionsExtracted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "diaryd",
			Name:      "actions_extracted",
			Help:      "Number of actions extracted per request",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	// CacheHits counts cache lookups that returned a stored result.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "diaryd",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
	)

	// CacheMisses counts cache lookups that fell through to the pipeline.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "diaryd",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
	)
)

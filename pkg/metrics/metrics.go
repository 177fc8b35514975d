package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "food_expose"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	gateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "transitions_total",
			Help:      "Total number of gate state transitions by target state.",
		},
		[]string{"state"},
	)

	gateStaleReads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "stale_reads_total",
			Help:      "Completion store reads discarded because a newer session arrived.",
		},
	)

	completionStoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "completion_store",
			Name:      "errors_total",
			Help:      "Completion store failures (always fail-open).",
		},
		[]string{"op"},
	)

	nutritionLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nutrition",
			Name:      "lookups_total",
			Help:      "Nutrition lookups by outcome.",
		},
		[]string{"outcome"},
	)

	nutritionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "nutrition",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of nutrition lookups.",
			Buckets:   prometheus.ExponentialBuckets(0.025, 2, 10), // 25ms to ~12s
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		gateTransitions,
		gateStaleReads,
		completionStoreErrors,
		nutritionLookups,
		nutritionDuration,
		httpRequests,
		httpDuration,
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordGateTransition counts a move to state.
func RecordGateTransition(state string) {
	gateTransitions.WithLabelValues(state).Inc()
}

// RecordStaleRead counts a discarded completion read.
func RecordStaleRead() {
	gateStaleReads.Inc()
}

// RecordStoreError counts a completion store failure for op ("get" or "set").
func RecordStoreError(op string) {
	completionStoreErrors.WithLabelValues(op).Inc()
}

// RecordNutritionLookup records a lookup outcome ("found", "not_found", "error").
func RecordNutritionLookup(outcome string, duration time.Duration) {
	nutritionLookups.WithLabelValues(outcome).Inc()
	nutritionDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records a handled request. path should be the route template.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

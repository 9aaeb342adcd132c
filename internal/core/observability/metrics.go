package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	sourceLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_latency_seconds",
			Help:    "Latency of upstream data-source calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"source"},
	)

	sourceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_failures_total",
			Help: "Upstream data-source failures by source and kind.",
		},
		[]string{"source", "kind"},
	)

	aggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregations_total",
			Help: "Suggestion aggregations by outcome.",
		},
		[]string{"outcome"},
	)

	aggregationDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregation_duration_seconds",
			Help:    "End-to-end duration of a suggestion aggregation.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	cacheOpSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_op_seconds",
			Help:    "Latency of cache operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op", "ok"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache results by outcome.",
		},
		[]string{"outcome"},
	)

	invalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invalidations_total",
			Help: "Cache invalidation events by op and outcome.",
		},
		[]string{"op", "outcome"},
	)

	consumerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_errors_total",
			Help: "Kafka consumer errors by kind.",
		},
		[]string{"kind"},
	)

	demandTrackedCells = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "demand_tracked_cells",
			Help: "Number of cells with live search-demand tracking state.",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveSourceLatency(source string, durationSeconds float64) {
	sourceLatencySeconds.WithLabelValues(source).Observe(durationSeconds)
}

func IncSourceFailure(source, kind string) {
	sourceFailuresTotal.WithLabelValues(source, kind).Inc()
}

func ObserveAggregation(outcome string, d time.Duration) {
	aggregationsTotal.WithLabelValues(outcome).Inc()
	aggregationDurationSeconds.Observe(d.Seconds())
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	ok := "true"
	if err != nil {
		ok = "false"
	}
	cacheOpSeconds.WithLabelValues(op, ok).Observe(durationSeconds)
}

func AddCacheHits(n int) {
	if n > 0 {
		cacheResults.WithLabelValues("hit").Add(float64(n))
	}
}

func AddCacheMisses(n int) {
	if n > 0 {
		cacheResults.WithLabelValues("miss").Add(float64(n))
	}
}

func ObserveInvalidation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	invalidationsTotal.WithLabelValues(op, outcome).Inc()
}

func IncKafkaConsumerError(kind string) {
	consumerErrorsTotal.WithLabelValues(kind).Inc()
}

func SetTrackedCellsGauge(n int) {
	demandTrackedCells.Set(float64(n))
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}

// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Table Load Metrics
	TableLoadAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_table_load_attempts_total",
			Help: "Table load outcomes at startup",
		},
		[]string{"table", "result"}, // result: "success", "retry", "failure"
	)

	TableLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datastore_table_load_duration_seconds",
			Help:    "Time to read and index a table",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"table"},
	)

	TableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "datastore_table_rows",
			Help: "Rows held by each loaded table",
		},
		[]string{"table"},
	)

	TableAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "datastore_table_available",
			Help: "Whether a table loaded (1) or is unavailable (0)",
		},
		[]string{"table"},
	)

	DataStoreReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datastore_ready",
			Help: "Whether the data store has been published (1) or is still initializing (0)",
		},
	)

	// Serving Metrics
	SourceLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_source_lookup_duration_seconds",
			Help:    "Duration of per-source lookup and ranking",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"source"},
	)

	SourceLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_source_lookups_total",
			Help: "Per-source lookup outcomes",
		},
		[]string{"source", "result"}, // result: "ok", "empty", "timeout", "error", "rejected"
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_responses_total",
			Help: "Recommendation responses by status",
		},
		[]string{"status"},
	)

	ColdStartFits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_coldstart_fits_total",
			Help: "Cold-start model fits by outcome",
		},
		[]string{"result"}, // result: "success", "invalid", "rate_limited"
	)

	ColdStartFitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_coldstart_fit_duration_seconds",
			Help:    "Duration of cold-start fit and scoring",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Total number of cache backend errors",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordTableLoadAttempt counts a table load outcome.
func RecordTableLoadAttempt(table, result string) {
	TableLoadAttempts.WithLabelValues(table, result).Inc()
}

// ObserveTableLoadDuration records how long a successful table load took.
func ObserveTableLoadDuration(table string, duration time.Duration) {
	TableLoadDuration.WithLabelValues(table).Observe(duration.Seconds())
}

// SetTableState publishes a table's availability and row count.
func SetTableState(table string, available bool, rows int) {
	TableAvailable.WithLabelValues(table).Set(boolToFloat(available))
	TableRows.WithLabelValues(table).Set(float64(rows))
}

// SetDataStoreReady flips the readiness gauge.
func SetDataStoreReady(ready bool) {
	DataStoreReady.Set(boolToFloat(ready))
}

// RecordSourceLookup records one per-source lookup.
func RecordSourceLookup(source, result string, duration time.Duration) {
	SourceLookups.WithLabelValues(source, result).Inc()
	SourceLookupDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordRecommendation counts a served response by status.
func RecordRecommendation(status string) {
	RecommendationsServed.WithLabelValues(status).Inc()
}

// RecordColdStartFit records a cold-start fit outcome. duration is ignored
// unless the fit succeeded.
func RecordColdStartFit(result string, duration time.Duration) {
	ColdStartFits.WithLabelValues(result).Inc()
	if result == "success" {
		ColdStartFitDuration.Observe(duration.Seconds())
	}
}

// RecordCacheHit counts a cache hit for the given backend.
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss counts a cache miss for the given backend.
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordCacheError counts a cache backend error.
func RecordCacheError(cacheType string) {
	CacheErrors.WithLabelValues(cacheType).Inc()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package metrics defines Marquee's Prometheus collectors.
//
// Collectors are registered on the default registry through promauto and
// exposed by the API at /metrics. They cover:
//
//   - API traffic (api_requests_total, api_request_duration_seconds)
//   - startup table loads (datastore_table_*), including per-table availability
//   - the serving path (recommend_source_*, recommend_responses_total,
//     recommend_coldstart_*)
//   - result caches (cache_hits_total, cache_misses_total)
//   - per-source circuit breakers (circuit_breaker_*)
//
// Record* helpers wrap the label plumbing so callers never build label slices.
package metrics

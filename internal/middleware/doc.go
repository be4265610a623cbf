// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package middleware provides HTTP middleware for the recommendation API.

  - RequestID: reuses or generates an X-Request-ID and stores it for logging.Ctx
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled by chi route pattern
  - Compression: pooled gzip writers for clients sending Accept-Encoding: gzip
  - PerformanceMonitor: sliding-window latency percentiles served by /api/v1/stats

RequestID, PrometheusMetrics and Compression are http.HandlerFunc wrappers; the
api package adapts them to chi with its chiMiddleware helper:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
	r.Use(perfMon.Middleware)
*/
package middleware

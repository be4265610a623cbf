// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package api provides the HTTP layer of the recommendation service.

Routes (chi router):

	GET  /api/v1/recommendations/{user_id}?n=&weight=&liked=1,2
	POST /api/v1/cold-start/recommendations   {"items":[...],"n":10}
	GET  /api/v1/cold-start/items?n=&seed=
	GET  /api/v1/items/{item_id}/similar?n=
	GET  /api/v1/stats
	POST /predict                             {"user_id":"42"}
	GET  /health, /health/live, /health/ready
	GET  /metrics

Middleware stack, outermost first: RequestID, RealIP, Recoverer, CORS,
PerformanceMonitor, then per group rate limiting (go-chi/httprate),
security headers, Prometheus instrumentation and gzip.

Every error uses one envelope:

	{"error":{"code":"VALIDATION_ERROR","message":"n: must be between 1 and 100","details":{...}},"request_id":"..."}

Errors from the recommend package map to status codes in errors.go:
validation 400, not found 404, not ready or table unavailable 503, required
source timeout 504, anything else 500 with a generic message.
*/
package api

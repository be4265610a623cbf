// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"github.com/tomtom215/marquee/internal/datastore"
)

// Status describes how a recommendation result was produced.
type Status string

const (
	// StatusOK means every launched source answered.
	StatusOK Status = "ok"

	// StatusPartial means at least one optional source failed or timed out.
	StatusPartial Status = "partial"

	// StatusColdStart means the result came from the cold-start regression.
	StatusColdStart Status = "cold_start"

	// StatusNeedsOnboarding means the user is unknown and supplied no liked items.
	StatusNeedsOnboarding Status = "needs_onboarding"

	// StatusNoRecommendations means no source produced any item.
	StatusNoRecommendations Status = "no_recommendations"
)

// Request is a recommendation request for one user.
type Request struct {
	UserID string

	// N is the result length. Nil means the configured default; an explicit
	// value must be between 1 and the configured maximum.
	N *int

	// Weight is the primary source's blend weight. Nil means the configured default.
	Weight *float64

	// Liked seeds the cold-start path when the user is unknown.
	Liked []string
}

// Result is an ordered, duplicate-free recommendation list.
type Result struct {
	UserID          string             `json:"user_id"`
	Status          Status             `json:"status"`
	Partial         bool               `json:"partial"`
	Recommendations []datastore.Record `json:"recommendations"`
	TopRated        []datastore.Record `json:"top_rated"`

	// Failed names the optional sources that did not contribute.
	Failed []string `json:"failed_sources,omitempty"`

	CacheHit bool `json:"-"`
}

// Stats is a snapshot of the engine counters.
type Stats struct {
	Requests    int64 `json:"requests"`
	ColdStarts  int64 `json:"cold_starts"`
	Partials    int64 `json:"partials"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	Errors      int64 `json:"errors"`
}

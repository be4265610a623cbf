// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package recommend serves movie recommendations from precomputed tables.
//
// # Architecture
//
// The Engine reads the published DataStore and combines:
//
//   - Rank: stable top-K over a user's records
//   - Blend: weighted linear combination of ranked source lists
//   - ColdStartEngine: per-request ridge regression over item features
//   - Filter: optional CEL predicate applied after blending
//
// # Request Flow
//
// For a known user the primary and secondary sources are looked up
// concurrently, each under its own timeout and circuit breaker. An optional
// source that fails is dropped and the result is marked partial; a source
// listed as required fails the request instead. The surviving lists are
// ranked, blended with weights w and 1-w, filtered and truncated.
//
// Unknown users are served by the cold-start regression when they supply
// liked items, and get an empty needs_onboarding result otherwise.
//
// # Determinism
//
// Ranking and blending break ties by first appearance, and the onboarding
// sampler is seeded, so identical inputs produce identical outputs.
//
// # Usage
//
//	holder := datastore.NewHolder()
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), holder, logger)
//	...
//	holder.Publish(ds)
//	n := 10 // nil N uses the configured default
//	res, err := engine.Recommend(ctx, recommend.Request{UserID: "42", N: &n})
package recommend

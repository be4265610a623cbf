// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package datastore loads the precomputed recommendation tables once at
// startup and serves them read-only.
//
// A DataStore holds up to six tables:
//
//	collab, content, neural   (user, item, score) prediction rows
//	ratings                   the users' own ratings
//	features                  item feature vectors (numeric or genre one-hot)
//	popularity                ranked onboarding pool
//
// Tables are read from parquet or CSV files through DuckDB. Column names are
// matched against common MovieLens-style candidates unless a tables.yaml
// manifest overrides them. All identifiers are canonicalized so "42", 42 and
// 42.0 name the same user.
//
// Under the degraded policy a failed table is recorded as unavailable and the
// store is still published; under the strict policy any failure aborts the
// load. The store is handed to readers through a Holder, which is nil until
// the load completes.
package datastore

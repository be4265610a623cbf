// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package logging provides the zerolog-based logging used across Marquee.
//
// A single global logger is configured once from main via Init. Components
// derive child loggers with WithComponent, request handlers use Ctx(ctx) so
// every line carries the request ID, and the suture supervisor logs through
// the slog adapter returned by NewSlogLogger.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("dir", cfg.Tables.Dir).Msg("Loading tables")
//	logging.Ctx(ctx).Debug().Int("n", n).Msg("Serving recommendations")
//
// Always terminate event chains with Msg or Send; an unterminated event is
// never written.
package logging

// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package services adapts application components to suture.Service.
//
//   - LoaderService: loads the recommendation tables once and publishes them
//   - HTTPServerService: runs *http.Server with graceful shutdown on cancellation
package services

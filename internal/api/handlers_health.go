// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/marquee/internal/datastore"
)

// StatusInitializing is reported by /health before the store is published.
const StatusInitializing = "initializing"

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status    string                                         `json:"status"`
	Tables    map[datastore.TableName]datastore.Availability `json:"tables"`
	Breakers  map[string]string                              `json:"breakers,omitempty"`
	UptimeSec float64                                        `json:"uptime_seconds"`
}

// Health handles GET /health. It always answers 200; the status field
// distinguishes initializing, healthy and degraded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    StatusInitializing,
		Tables:    map[datastore.TableName]datastore.Availability{},
		UptimeSec: time.Since(h.startTime).Seconds(),
	}
	if ds := h.store.Store(); ds != nil {
		resp.Status = ds.Status()
		resp.Tables = ds.Availability()
		resp.Breakers = h.engine.BreakerStates()
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// HealthLive handles GET /health/live. It answers 200 while the process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /health/ready. It answers 503 until the store is published.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.store.Store() == nil {
		respondJSON(w, r, http.StatusServiceUnavailable, map[string]any{
			"ready":  false,
			"status": StatusInitializing,
		})
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"ready":  true,
		"status": h.store.Store().Status(),
	})
}

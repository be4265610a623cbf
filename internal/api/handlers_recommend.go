// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/marquee/internal/datastore"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/middleware"
	"github.com/tomtom215/marquee/internal/recommend"
)

// GetRecommendations handles GET /api/v1/recommendations/{user_id}.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	q := RecommendationQuery{
		UserID: chi.URLParam(r, "user_id"),
		Liked:  parseCommaSeparated(r.URL.Query().Get("liked")),
	}
	var apiErr *APIError
	if q.N, apiErr = optionalIntParam(r, "n"); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if q.Weight, apiErr = floatParam(r, "weight"); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if apiErr = validateRequest(&q); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	ctx, cancel := h.servingContext(r.Context())
	defer cancel()

	start := time.Now()
	res, err := h.engine.Recommend(ctx, recommend.Request{
		UserID: q.UserID,
		N:      q.N,
		Weight: q.Weight,
		Liked:  q.Liked,
	})
	if err != nil {
		respondServingError(w, r, "recommend", err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("user_id", sanitizeLogValue(res.UserID)).
		Str("status", string(res.Status)).
		Bool("partial", res.Partial).
		Bool("cache_hit", res.CacheHit).
		Int("count", len(res.Recommendations)).
		Dur("duration", time.Since(start)).
		Msg("Recommendations served")

	respondJSON(w, r, http.StatusOK, res)
}

// ColdStartRecommendations handles POST /api/v1/cold-start/recommendations.
func (h *Handler) ColdStartRecommendations(w http.ResponseWriter, r *http.Request) {
	var req ColdStartRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	ctx, cancel := h.servingContext(r.Context())
	defer cancel()

	res, err := h.engine.ColdStart(ctx, req.Items.Strings(), req.N)
	if err != nil {
		respondServingError(w, r, "cold_start", err)
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}

// ColdStartItems handles GET /api/v1/cold-start/items.
func (h *Handler) ColdStartItems(w http.ResponseWriter, r *http.Request) {
	var q ColdStartItemsQuery
	var apiErr *APIError
	if q.N, apiErr = intParam(r, "n", h.config.OnboardingN); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if q.Seed, apiErr = int64Param(r, "seed"); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if apiErr = validateRequest(&q); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	items, seed, err := h.engine.ColdStartItems(r.Context(), q.N, q.Seed)
	if err != nil {
		respondServingError(w, r, "cold_start_items", err)
		return
	}

	refs := make([]ItemRef, len(items))
	for i, id := range items {
		refs[i] = ItemRef{ItemID: id}
	}
	respondJSON(w, r, http.StatusOK, ColdStartItemsResponse{Items: refs, Seed: seed})
}

// SimilarItems handles GET /api/v1/items/{item_id}/similar.
func (h *Handler) SimilarItems(w http.ResponseWriter, r *http.Request) {
	q := SimilarItemsQuery{ItemID: chi.URLParam(r, "item_id")}
	var apiErr *APIError
	if q.N, apiErr = optionalIntParam(r, "n"); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if apiErr = validateRequest(&q); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	similar, err := h.engine.SimilarItems(r.Context(), q.ItemID, q.N)
	if err != nil {
		respondServingError(w, r, "similar_items", err)
		return
	}

	id, _ := datastore.CanonicalString(q.ItemID)
	respondJSON(w, r, http.StatusOK, SimilarItemsResponse{ItemID: id, Similar: similar})
}

// Predict handles the legacy POST /predict.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	ctx, cancel := h.servingContext(r.Context())
	defer cancel()

	records, err := h.engine.Predict(ctx, string(req.UserID))
	if err != nil {
		respondServingError(w, r, "predict", err)
		return
	}
	respondJSON(w, r, http.StatusOK, PredictResponse{UserID: string(req.UserID), Recommendations: records})
}

// StatsResponse is the payload of GET /api/v1/stats.
type StatsResponse struct {
	Engine    recommend.Stats            `json:"engine"`
	Breakers  map[string]string          `json:"breakers"`
	Endpoints []middleware.EndpointStats `json:"endpoints"`
	UptimeSec float64                    `json:"uptime_seconds"`
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Engine:    h.engine.Stats(),
		Breakers:  h.engine.BreakerStates(),
		Endpoints: []middleware.EndpointStats{},
		UptimeSec: time.Since(h.startTime).Seconds(),
	}
	if h.perfMon != nil {
		resp.Endpoints = h.perfMon.Stats()
	}
	respondJSON(w, r, http.StatusOK, resp)
}

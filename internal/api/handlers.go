// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"time"

	"github.com/tomtom215/marquee/internal/datastore"
	"github.com/tomtom215/marquee/internal/middleware"
	"github.com/tomtom215/marquee/internal/recommend"
)

// Recommender is the serving surface the handlers call. *recommend.Engine implements it.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error)
	ColdStart(ctx context.Context, liked []string, n *int) (*recommend.Result, error)
	ColdStartItems(ctx context.Context, n int, seed *int64) ([]string, int64, error)
	SimilarItems(ctx context.Context, itemID string, n *int) ([]datastore.Record, error)
	Predict(ctx context.Context, userID string) ([]datastore.Record, error)
	Stats() recommend.Stats
	BreakerStates() map[string]string
}

// HandlerConfig holds handler settings.
type HandlerConfig struct {
	// RequestTimeout bounds each serving call. Zero means no extra deadline.
	RequestTimeout time.Duration

	// OnboardingN is the default sample size of /cold-start/items.
	OnboardingN int
}

// Handler serves the recommendation and health endpoints.
type Handler struct {
	engine    Recommender
	store     recommend.StoreProvider
	perfMon   *middleware.PerformanceMonitor
	config    HandlerConfig
	startTime time.Time
}

// NewHandler creates the API handler. perfMon may be nil.
func NewHandler(engine Recommender, store recommend.StoreProvider, perfMon *middleware.PerformanceMonitor, cfg HandlerConfig) *Handler {
	if cfg.OnboardingN <= 0 {
		cfg.OnboardingN = 10
	}
	return &Handler{
		engine:    engine,
		store:     store,
		perfMon:   perfMon,
		config:    cfg,
		startTime: time.Now(),
	}
}

func (h *Handler) servingContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.config.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.config.RequestTimeout)
}

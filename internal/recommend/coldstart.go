// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/marquee/internal/datastore"
	"github.com/tomtom215/marquee/internal/metrics"
)

// ColdStartConfig parameterizes the cold-start regression.
type ColdStartConfig struct {
	// Lambda is the L2 regularization strength.
	Lambda float64

	// Label is the rating assumed for every liked item.
	Label float64

	// FitsPerSecond limits regression fits across all requests. 0 disables the limit.
	FitsPerSecond float64
	Burst         int
}

// ColdStartEngine scores items for users without history. It fits a ridge
// regression (no intercept) from item features to a constant "liked" label
// and ranks every other item by its predicted rating.
//
// All liked items carry the same label, so the fit learns which features the
// liked items share; there are no negatives to learn dislikes from.
type ColdStartEngine struct {
	lambda  float64
	label   float64
	limiter *rate.Limiter
}

// NewColdStartEngine creates a cold-start engine.
func NewColdStartEngine(cfg ColdStartConfig) *ColdStartEngine {
	e := &ColdStartEngine{lambda: cfg.Lambda, label: cfg.Label}
	if cfg.FitsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(cfg.FitsPerSecond), burst)
	}
	return e
}

// Recommend returns the top n feature items for a user who liked the given
// items. Liked IDs are canonicalized and de-duplicated; IDs without features
// are ignored, and a ValidationError is returned when none remain.
func (c *ColdStartEngine) Recommend(ctx context.Context, features *datastore.FeatureTable, liked []string, n int) ([]datastore.Record, error) {
	if features == nil {
		return nil, fmt.Errorf("%w: features", ErrUnavailable)
	}
	if len(liked) == 0 {
		metrics.RecordColdStartFit("invalid", 0)
		return nil, invalid("items", "at least one liked item is required")
	}

	likedSet := make(map[string]struct{}, len(liked))
	var X [][]float64
	for _, raw := range liked {
		id, err := datastore.CanonicalString(raw)
		if err != nil {
			continue
		}
		if _, dup := likedSet[id]; dup {
			continue
		}
		vec, ok := features.Vector(id)
		if !ok {
			continue
		}
		likedSet[id] = struct{}{}
		X = append(X, vec)
	}
	if len(X) == 0 {
		metrics.RecordColdStartFit("invalid", 0)
		return nil, invalid("items", "none of the liked items are known")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.RecordColdStartFit("rate_limited", 0)
			// Wait refuses up front when the next token lies past the
			// deadline; that is throttling, not an expired request.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("cold start fit: %w", ctxErr)
			}
			return nil, fmt.Errorf("%w: %v", ErrColdStartThrottled, err)
		}
	}

	start := time.Now()
	w := c.fit(X, features.Dim())
	metrics.RecordColdStartFit("success", time.Since(start))

	scored := make([]datastore.Record, 0, features.Len())
	features.Each(func(itemID string, vec []float64) bool {
		if _, ok := likedSet[itemID]; !ok {
			scored = append(scored, datastore.Record{ItemID: itemID, Score: dot(w, vec)})
		}
		return true
	})
	return Rank(scored, n), nil
}

// fit solves (XᵀX + λI) w = Xᵀy with y = label for every row.
func (c *ColdStartEngine) fit(X [][]float64, dim int) []float64 {
	A := make([][]float64, dim)
	for i := range A {
		A[i] = make([]float64, dim)
		A[i][i] = c.lambda
	}
	b := make([]float64, dim)

	for _, row := range X {
		for i := 0; i < dim; i++ {
			if row[i] == 0 {
				continue
			}
			b[i] += row[i] * c.label
			for j := 0; j < dim; j++ {
				A[i][j] += row[i] * row[j]
			}
		}
	}
	return solveLinearSystem(A, b)
}

// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/datastore"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// DefaultN is used when a request does not set N.
	DefaultN int `json:"default_n"`

	// MaxN bounds the result length.
	MaxN int `json:"max_n"`

	// DefaultWeight is the primary source's blend weight.
	DefaultWeight float64 `json:"default_weight"`

	// Primary and Secondary are the blended prediction tables.
	Primary   datastore.TableName `json:"primary"`
	Secondary datastore.TableName `json:"secondary"`

	// Required lists sources whose failure fails the whole request.
	Required []datastore.TableName `json:"required"`

	// SourceTimeout is the per-source lookup budget.
	SourceTimeout time.Duration `json:"source_timeout"`

	BlendMode BlendMode `json:"blend_mode"`

	// SourceDepth is how many ranked items each source feeds into the blend. 0 = all.
	SourceDepth int `json:"source_depth"`

	ExcludeRated bool `json:"exclude_rated"`
	TopRatedN    int  `json:"top_rated_n"`

	FavouritesFallback bool    `json:"favourites_fallback"`
	FavouriteThreshold float64 `json:"favourite_threshold"`

	// Filter is an optional CEL expression applied after blending.
	Filter string `json:"filter"`

	// Seed is the default onboarding sampler seed.
	Seed int64 `json:"seed"`

	// PredictN is the legacy predict list length.
	PredictN int `json:"predict_n"`

	// CacheTTL is how long cached results live.
	CacheTTL time.Duration `json:"cache_ttl"`

	ColdStart ColdStartConfig `json:"cold_start"`
	Breaker   BreakerConfig   `json:"breaker"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() *Config {
	return &Config{
		DefaultN:           10,
		MaxN:               100,
		DefaultWeight:      0.6,
		Primary:            datastore.TableCollab,
		Secondary:          datastore.TableContent,
		SourceTimeout:      250 * time.Millisecond,
		BlendMode:          BlendScore,
		SourceDepth:        200,
		ExcludeRated:       true,
		TopRatedN:          5,
		FavouritesFallback: true,
		FavouriteThreshold: 4.0,
		Seed:               42,
		PredictN:           4,
		CacheTTL:           5 * time.Minute,
		ColdStart: ColdStartConfig{
			Lambda:        1.0,
			Label:         5.0,
			FitsPerSecond: 50,
			Burst:         10,
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.DefaultN <= 0 {
		errs = append(errs, fmt.Errorf("default_n must be positive"))
	}
	if c.MaxN < c.DefaultN {
		errs = append(errs, fmt.Errorf("max_n must be >= default_n"))
	}
	if err := ValidateWeight(c.DefaultWeight); err != nil {
		errs = append(errs, fmt.Errorf("default_weight: %w", err))
	}
	for _, src := range append([]datastore.TableName{c.Primary, c.Secondary}, c.Required...) {
		if !isPredictionTable(src) {
			errs = append(errs, fmt.Errorf("source %q is not a prediction table", src))
		}
	}
	if c.Primary == c.Secondary {
		errs = append(errs, fmt.Errorf("primary and secondary sources must differ"))
	}
	if c.SourceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("source_timeout must be positive"))
	}
	if _, err := ParseBlendMode(string(c.BlendMode)); err != nil {
		errs = append(errs, err)
	}
	if c.SourceDepth < 0 || c.TopRatedN < 0 || c.PredictN <= 0 {
		errs = append(errs, fmt.Errorf("source_depth and top_rated_n must be >= 0, predict_n > 0"))
	}
	if c.ColdStart.Lambda <= 0 {
		errs = append(errs, fmt.Errorf("cold_start.lambda must be positive"))
	}
	if c.Filter != "" {
		if _, err := NewFilter(c.Filter); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Required = append([]datastore.TableName(nil), c.Required...)
	return &out
}

func isPredictionTable(name datastore.TableName) bool {
	for _, t := range datastore.PredictionTables {
		if t == name {
			return true
		}
	}
	return false
}

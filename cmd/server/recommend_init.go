// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tomtom215/marquee/internal/cache"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/datastore"
	"github.com/tomtom215/marquee/internal/recommend"
)

// RecommendComponents holds the serving-side components built at startup.
type RecommendComponents struct {
	Holder *datastore.Holder
	Loader *datastore.Loader
	Engine *recommend.Engine
	Cache  cache.Cacher
}

// Close releases the result cache, if any.
func (c *RecommendComponents) Close() error {
	if c == nil || c.Cache == nil {
		return nil
	}
	return c.Cache.Close()
}

// initRecommend builds the table loader, the result cache and the engine.
// The engine reads from the holder, which stays empty until the loader
// service publishes a store.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initRecommend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*RecommendComponents, error) {
	engineCfg, err := buildEngineConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	holder := datastore.NewHolder()
	loader := datastore.NewLoader(&cfg.Tables, logger.With().Str("component", "loader").Logger())

	resultCache, err := cache.New(ctx, &cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}

	var opts []recommend.Option
	if resultCache != nil {
		opts = append(opts, recommend.WithCache(resultCache))
		logger.Info().Str("backend", resultCache.Name()).Dur("ttl", engineCfg.CacheTTL).Msg("result cache enabled")
	} else {
		logger.Info().Msg("result cache disabled")
	}

	engine, err := recommend.NewEngine(engineCfg, holder, logger.With().Str("component", "engine").Logger(), opts...)
	if err != nil {
		if resultCache != nil {
			_ = resultCache.Close()
		}
		return nil, fmt.Errorf("create engine: %w", err)
	}

	logger.Info().
		Str("primary", engineCfg.Primary.String()).
		Str("secondary", engineCfg.Secondary.String()).
		Str("blend_mode", string(engineCfg.BlendMode)).
		Float64("default_weight", engineCfg.DefaultWeight).
		Dur("source_timeout", engineCfg.SourceTimeout).
		Msg("recommendation engine initialized")

	return &RecommendComponents{
		Holder: holder,
		Loader: loader,
		Engine: engine,
		Cache:  resultCache,
	}, nil
}

// buildEngineConfig translates the application config into the engine's.
// Zero values keep the engine defaults.
func buildEngineConfig(cfg *config.Config) (*recommend.Config, error) {
	out := recommend.DefaultConfig()
	s := cfg.Serving

	if s.DefaultN > 0 {
		out.DefaultN = s.DefaultN
	}
	if s.MaxN > 0 {
		out.MaxN = s.MaxN
	}
	out.DefaultWeight = s.DefaultWeight
	if s.SourceTimeout > 0 {
		out.SourceTimeout = s.SourceTimeout
	}

	if s.PrimarySource != "" {
		name, err := datastore.ParseTableName(s.PrimarySource)
		if err != nil {
			return nil, fmt.Errorf("primary_source: %w", err)
		}
		out.Primary = name
	}
	if s.SecondarySource != "" {
		name, err := datastore.ParseTableName(s.SecondarySource)
		if err != nil {
			return nil, fmt.Errorf("secondary_source: %w", err)
		}
		out.Secondary = name
	}
	out.Required = nil
	for _, raw := range s.RequiredSources {
		name, err := datastore.ParseTableName(raw)
		if err != nil {
			return nil, fmt.Errorf("required_sources: %w", err)
		}
		out.Required = append(out.Required, name)
	}

	if s.BlendMode != "" {
		mode, err := recommend.ParseBlendMode(s.BlendMode)
		if err != nil {
			return nil, err
		}
		out.BlendMode = mode
	}

	out.SourceDepth = s.SourceDepth
	out.ExcludeRated = s.ExcludeRated
	out.TopRatedN = s.TopRatedN
	out.FavouritesFallback = s.FavouritesFallback
	if s.FavouriteThreshold > 0 {
		out.FavouriteThreshold = s.FavouriteThreshold
	}
	out.Filter = s.Filter
	out.Seed = s.Seed
	if s.PredictN > 0 {
		out.PredictN = s.PredictN
	}

	out.CacheTTL = cfg.Cache.TTL

	if cfg.ColdStart.Lambda > 0 {
		out.ColdStart.Lambda = cfg.ColdStart.Lambda
	}
	if cfg.ColdStart.Label != 0 {
		out.ColdStart.Label = cfg.ColdStart.Label
	}
	out.ColdStart.FitsPerSecond = cfg.ColdStart.FitsPerSecond
	out.ColdStart.Burst = cfg.ColdStart.Burst

	out.Breaker = recommend.BreakerConfig{
		Enabled:          cfg.Breaker.Enabled,
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

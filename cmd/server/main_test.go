// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/datastore"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/recommend"
)

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func testLogger() zerolog.Logger {
	return logging.NewTestLogger(io.Discard)
}

// --- Test: buildEngineConfig ---

func TestBuildEngineConfig_Defaults(t *testing.T) {
	cfg := loadTestConfig(t)

	got, err := buildEngineConfig(cfg)
	if err != nil {
		t.Fatalf("buildEngineConfig() error = %v", err)
	}
	if got.Primary != datastore.TableCollab {
		t.Errorf("Primary = %v, want %v", got.Primary, datastore.TableCollab)
	}
	if got.Secondary != datastore.TableContent {
		t.Errorf("Secondary = %v, want %v", got.Secondary, datastore.TableContent)
	}
	if got.DefaultWeight != 0.6 {
		t.Errorf("DefaultWeight = %v, want 0.6", got.DefaultWeight)
	}
	if got.BlendMode != recommend.BlendScore {
		t.Errorf("BlendMode = %v, want %v", got.BlendMode, recommend.BlendScore)
	}
	if got.CacheTTL != cfg.Cache.TTL {
		t.Errorf("CacheTTL = %v, want %v", got.CacheTTL, cfg.Cache.TTL)
	}
	if !got.Breaker.Enabled {
		t.Error("Breaker.Enabled = false, want true")
	}
	if len(got.Required) != 0 {
		t.Errorf("Required = %v, want empty", got.Required)
	}
}

func TestBuildEngineConfig_Overrides(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Serving.PrimarySource = "neural"
	cfg.Serving.SecondarySource = "collab"
	cfg.Serving.RequiredSources = []string{"neural"}
	cfg.Serving.BlendMode = "rank_position"
	cfg.Serving.DefaultWeight = 0.25
	cfg.Serving.SourceTimeout = 50 * time.Millisecond
	cfg.Serving.Filter = `score > 1.0`
	cfg.ColdStart.Lambda = 0.5

	got, err := buildEngineConfig(cfg)
	if err != nil {
		t.Fatalf("buildEngineConfig() error = %v", err)
	}
	if got.Primary != datastore.TableNeural {
		t.Errorf("Primary = %v, want %v", got.Primary, datastore.TableNeural)
	}
	if got.Secondary != datastore.TableCollab {
		t.Errorf("Secondary = %v, want %v", got.Secondary, datastore.TableCollab)
	}
	if len(got.Required) != 1 || got.Required[0] != datastore.TableNeural {
		t.Errorf("Required = %v, want [neural]", got.Required)
	}
	if got.BlendMode != recommend.BlendRankPosition {
		t.Errorf("BlendMode = %v, want %v", got.BlendMode, recommend.BlendRankPosition)
	}
	if got.DefaultWeight != 0.25 {
		t.Errorf("DefaultWeight = %v, want 0.25", got.DefaultWeight)
	}
	if got.SourceTimeout != 50*time.Millisecond {
		t.Errorf("SourceTimeout = %v, want 50ms", got.SourceTimeout)
	}
	if got.ColdStart.Lambda != 0.5 {
		t.Errorf("ColdStart.Lambda = %v, want 0.5", got.ColdStart.Lambda)
	}
}

func TestBuildEngineConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown primary", func(c *config.Config) { c.Serving.PrimarySource = "bogus" }},
		{"unknown required", func(c *config.Config) { c.Serving.RequiredSources = []string{"bogus"} }},
		{"non-prediction source", func(c *config.Config) { c.Serving.SecondarySource = "ratings" }},
		{"same sources", func(c *config.Config) { c.Serving.SecondarySource = "collab" }},
		{"bad blend mode", func(c *config.Config) { c.Serving.BlendMode = "median" }},
		{"weight out of range", func(c *config.Config) { c.Serving.DefaultWeight = 1.5 }},
		{"bad filter", func(c *config.Config) { c.Serving.Filter = "score >" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadTestConfig(t)
			tt.mutate(cfg)
			if _, err := buildEngineConfig(cfg); err == nil {
				t.Error("buildEngineConfig() error = nil, want error")
			}
		})
	}
}

// --- Test: initRecommend ---

func TestInitRecommend_NoCache(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Cache.Backend = "none"

	c, err := initRecommend(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("initRecommend() error = %v", err)
	}
	defer c.Close()

	if c.Cache != nil {
		t.Errorf("Cache = %v, want nil", c.Cache)
	}
	if c.Holder.Ready() {
		t.Error("Holder.Ready() = true before load, want false")
	}
	if c.Engine.Ready() {
		t.Error("Engine.Ready() = true before load, want false")
	}
}

func TestInitRecommend_MemoryCache(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Cache.Backend = "memory"

	c, err := initRecommend(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("initRecommend() error = %v", err)
	}
	defer c.Close()

	if c.Cache == nil || c.Cache.Name() != "memory" {
		t.Errorf("Cache = %v, want memory backend", c.Cache)
	}
}

// --- Test: chiMiddlewareConfig ---

func TestChiMiddlewareConfig(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Security.CORSOrigins = []string{"https://example.com"}
	cfg.Security.RateLimitReqs = 7
	cfg.Security.RateLimitWindow = 2 * time.Second
	cfg.Security.RateLimitDisabled = true

	got := chiMiddlewareConfig(cfg)
	if len(got.CORSAllowedOrigins) != 1 || got.CORSAllowedOrigins[0] != "https://example.com" {
		t.Errorf("CORSAllowedOrigins = %v", got.CORSAllowedOrigins)
	}
	if got.RateLimitRequests != 7 {
		t.Errorf("RateLimitRequests = %d, want 7", got.RateLimitRequests)
	}
	if got.RateLimitWindow != 2*time.Second {
		t.Errorf("RateLimitWindow = %v, want 2s", got.RateLimitWindow)
	}
	if !got.RateLimitDisabled {
		t.Error("RateLimitDisabled = false, want true")
	}
}

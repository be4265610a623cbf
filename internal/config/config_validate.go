// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateTables(); err != nil {
		return err
	}
	if err := c.validateServing(); err != nil {
		return err
	}
	if err := c.validateColdStart(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateBreaker(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	return c.validateLogging()
}

var validPolicies = map[string]bool{
	"degraded": true,
	"strict":   true,
}

// ValidSources lists the prediction sources that can be blended.
var ValidSources = map[string]bool{
	"collab":  true,
	"content": true,
	"neural":  true,
}

var validBlendModes = map[string]bool{
	"score":         true,
	"rank_position": true,
}

var validCacheBackends = map[string]bool{
	"memory": true,
	"redis":  true,
	"none":   true,
}

const maxLoadRetries = 20

func (c *Config) validateTables() error {
	if strings.TrimSpace(c.Tables.Dir) == "" {
		return fmt.Errorf("TABLE_DIR is required")
	}
	if !validPolicies[c.Tables.Policy] {
		return fmt.Errorf("TABLE_POLICY must be one of: degraded, strict")
	}
	if c.Tables.PopularityLimit < 1 {
		return fmt.Errorf("POPULARITY_LIMIT must be positive, got %d", c.Tables.PopularityLimit)
	}
	if c.Tables.LoadRetries < 0 || c.Tables.LoadRetries > maxLoadRetries {
		return fmt.Errorf("TABLE_LOAD_RETRIES must be between 0 and %d", maxLoadRetries)
	}
	if c.Tables.RetryInitialInterval <= 0 || c.Tables.RetryMaxInterval < c.Tables.RetryInitialInterval {
		return fmt.Errorf("TABLE_RETRY_MAX_INTERVAL must be >= TABLE_RETRY_INITIAL_INTERVAL and both positive")
	}
	if c.Tables.LoadTimeout <= 0 {
		return fmt.Errorf("TABLE_LOAD_TIMEOUT must be positive")
	}
	if c.Tables.DuckDBThreads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0")
	}
	return nil
}

func (c *Config) validateServing() error {
	s := &c.Serving
	if s.DefaultN < 1 {
		return fmt.Errorf("DEFAULT_N must be positive, got %d", s.DefaultN)
	}
	if s.MaxN < s.DefaultN {
		return fmt.Errorf("MAX_N (%d) must be >= DEFAULT_N (%d)", s.MaxN, s.DefaultN)
	}
	if math.IsNaN(s.DefaultWeight) || s.DefaultWeight < 0 || s.DefaultWeight > 1 {
		return fmt.Errorf("DEFAULT_WEIGHT must be between 0 and 1, got %v", s.DefaultWeight)
	}
	if s.SourceTimeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT must be positive")
	}
	if s.RequestTimeout < s.SourceTimeout {
		return fmt.Errorf("REQUEST_TIMEOUT (%v) must be >= SOURCE_TIMEOUT (%v)", s.RequestTimeout, s.SourceTimeout)
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if !validBlendModes[s.BlendMode] {
		return fmt.Errorf("BLEND_MODE must be one of: score, rank_position")
	}
	if s.SourceDepth < 0 {
		return fmt.Errorf("SOURCE_DEPTH must be >= 0")
	}
	if s.TopRatedN < 0 {
		return fmt.Errorf("TOP_RATED_N must be >= 0")
	}
	if s.PredictN < 1 {
		return fmt.Errorf("PREDICT_N must be positive")
	}
	return nil
}

func (c *Config) validateSources() error {
	s := &c.Serving
	if !ValidSources[s.PrimarySource] {
		return fmt.Errorf("PRIMARY_SOURCE must be one of: collab, content, neural")
	}
	if !ValidSources[s.SecondarySource] {
		return fmt.Errorf("SECONDARY_SOURCE must be one of: collab, content, neural")
	}
	if s.PrimarySource == s.SecondarySource {
		return fmt.Errorf("PRIMARY_SOURCE and SECONDARY_SOURCE must differ, both are %q", s.PrimarySource)
	}
	for _, name := range s.RequiredSources {
		if name != s.PrimarySource && name != s.SecondarySource {
			return fmt.Errorf("REQUIRED_SOURCES entry %q is not a configured source", name)
		}
	}
	return nil
}

func (c *Config) validateColdStart() error {
	cs := &c.ColdStart
	if math.IsNaN(cs.Lambda) || cs.Lambda <= 0 {
		return fmt.Errorf("COLDSTART_LAMBDA must be positive, got %v", cs.Lambda)
	}
	if math.IsNaN(cs.Label) || math.IsInf(cs.Label, 0) || cs.Label <= 0 {
		return fmt.Errorf("COLDSTART_LABEL must be a positive finite value, got %v", cs.Label)
	}
	if cs.FitsPerSecond < 0 {
		return fmt.Errorf("COLDSTART_FITS_PER_SECOND must be >= 0 (0 disables limiting)")
	}
	if cs.FitsPerSecond > 0 && cs.Burst < 1 {
		return fmt.Errorf("COLDSTART_BURST must be positive when limiting is enabled")
	}
	return nil
}

func (c *Config) validateCache() error {
	if !validCacheBackends[c.Cache.Backend] {
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, redis, none")
	}
	if c.Cache.Backend == "none" {
		return nil
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Cache.Backend == "memory" && c.Cache.MaxEntries < 1 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be positive")
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if !c.Breaker.Enabled {
		return nil
	}
	if c.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be positive")
	}
	if c.Breaker.Timeout <= 0 {
		return fmt.Errorf("BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

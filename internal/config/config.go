// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import "time"

// Config holds all application configuration.
type Config struct {
	Tables    TablesConfig    `koanf:"tables"`
	Serving   ServingConfig   `koanf:"serving"`
	ColdStart ColdStartConfig `koanf:"coldstart"`
	Cache     CacheConfig     `koanf:"cache"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// TablesConfig describes where the precomputed tables live and how they are loaded.
type TablesConfig struct {
	// Dir is the directory holding the table files.
	Dir string `koanf:"dir"`

	// Manifest is an optional YAML manifest overriding file and column names.
	// Empty means <dir>/tables.yaml when that file exists.
	Manifest string `koanf:"manifest"`

	// Policy is "degraded" (serve from whatever loaded) or "strict" (any failure is fatal).
	Policy string `koanf:"policy"`

	CollabFile     string `koanf:"collab_file"`
	ContentFile    string `koanf:"content_file"`
	NeuralFile     string `koanf:"neural_file"`
	RatingsFile    string `koanf:"ratings_file"`
	FeaturesFile   string `koanf:"features_file"`
	PopularityFile string `koanf:"popularity_file"`

	// PopularityLimit caps the onboarding pool.
	PopularityLimit int `koanf:"popularity_limit"`

	LoadRetries          int           `koanf:"load_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	LoadTimeout          time.Duration `koanf:"load_timeout"`

	// DuckDB settings for the reader connection. Threads 0 = DuckDB default.
	DuckDBThreads   int    `koanf:"duckdb_threads"`
	DuckDBMaxMemory string `koanf:"duckdb_max_memory"`
}

// ServingConfig controls request-time lookup, ranking and blending.
type ServingConfig struct {
	DefaultN int `koanf:"default_n"`
	MaxN     int `koanf:"max_n"`

	// DefaultWeight is the primary source's blend weight; the secondary gets 1-DefaultWeight.
	DefaultWeight float64 `koanf:"default_weight"`

	SourceTimeout  time.Duration `koanf:"source_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`

	PrimarySource   string   `koanf:"primary_source"`
	SecondarySource string   `koanf:"secondary_source"`
	RequiredSources []string `koanf:"required_sources"`

	// BlendMode is "score" (raw weighted scores) or "rank_position".
	BlendMode string `koanf:"blend_mode"`

	// SourceDepth is how many ranked items each source contributes to the blend. 0 = all.
	SourceDepth int `koanf:"source_depth"`

	ExcludeRated bool `koanf:"exclude_rated"`
	TopRatedN    int  `koanf:"top_rated_n"`

	FavouritesFallback bool    `koanf:"favourites_fallback"`
	FavouriteThreshold float64 `koanf:"favourite_threshold"`

	// Filter is an optional CEL expression over item_id, score and source.
	Filter string `koanf:"filter"`

	// Seed seeds the onboarding sampler when the request does not supply one.
	Seed int64 `koanf:"seed"`

	// PredictN is the list length of the legacy /predict endpoint.
	PredictN int `koanf:"predict_n"`
}

// ColdStartConfig controls the per-request ridge regression.
type ColdStartConfig struct {
	Lambda        float64 `koanf:"lambda"`
	Label         float64 `koanf:"label"`
	FitsPerSecond float64 `koanf:"fits_per_second"`
	Burst         int     `koanf:"burst"`
}

// CacheConfig selects the recommendation result cache.
type CacheConfig struct {
	// Backend is "memory" (ristretto), "redis" or "none".
	Backend    string        `koanf:"backend"`
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int64         `koanf:"max_entries"`

	RedisAddr      string `koanf:"redis_addr"`
	RedisPassword  string `koanf:"redis_password"`
	RedisDB        int    `koanf:"redis_db"`
	RedisKeyPrefix string `koanf:"redis_key_prefix"`
}

// BreakerConfig configures the per-source circuit breakers.
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, the optional config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/marquee/config.yaml",
	"/etc/marquee/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Tables: TablesConfig{
			Dir:                  "./models",
			Manifest:             "",
			Policy:               "degraded",
			CollabFile:           "collab_predictions.parquet",
			ContentFile:          "content_predictions.parquet",
			NeuralFile:           "neural_predictions.parquet",
			RatingsFile:          "ratings.parquet",
			FeaturesFile:         "movies.parquet",
			PopularityFile:       "popular.parquet",
			PopularityLimit:      100,
			LoadRetries:          3,
			RetryInitialInterval: 500 * time.Millisecond,
			RetryMaxInterval:     10 * time.Second,
			LoadTimeout:          5 * time.Minute,
			DuckDBThreads:        0,
			DuckDBMaxMemory:      "",
		},
		Serving: ServingConfig{
			DefaultN:           10,
			MaxN:               100,
			DefaultWeight:      0.6,
			SourceTimeout:      250 * time.Millisecond,
			RequestTimeout:     10 * time.Second,
			PrimarySource:      "collab",
			SecondarySource:    "content",
			RequiredSources:    []string{},
			BlendMode:          "score",
			SourceDepth:        200,
			ExcludeRated:       true,
			TopRatedN:          5,
			FavouritesFallback: true,
			FavouriteThreshold: 4.0,
			Filter:             "",
			Seed:               42,
			PredictN:           4,
		},
		ColdStart: ColdStartConfig{
			Lambda:        1.0,
			Label:         5.0,
			FitsPerSecond: 50,
			Burst:         10,
		},
		Cache: CacheConfig{
			Backend:        "memory",
			TTL:            5 * time.Minute,
			MaxEntries:     10000,
			RedisAddr:      "",
			RedisDB:        0,
			RedisKeyPrefix: "marquee:recs:",
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
		Server: ServerConfig{
			Port:            8000,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration in three layers, each overriding the last:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"serving.required_sources",
}

// processSliceFields converts comma-separated env values into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	// Tables
	"table_dir":                    "tables.dir",
	"table_manifest":               "tables.manifest",
	"table_policy":                 "tables.policy",
	"collab_table":                 "tables.collab_file",
	"content_table":                "tables.content_file",
	"neural_table":                 "tables.neural_file",
	"ratings_table":                "tables.ratings_file",
	"features_table":               "tables.features_file",
	"popularity_table":             "tables.popularity_file",
	"popularity_limit":             "tables.popularity_limit",
	"table_load_retries":           "tables.load_retries",
	"table_retry_initial_interval": "tables.retry_initial_interval",
	"table_retry_max_interval":     "tables.retry_max_interval",
	"table_load_timeout":           "tables.load_timeout",
	"duckdb_threads":               "tables.duckdb_threads",
	"duckdb_max_memory":            "tables.duckdb_max_memory",

	// Serving
	"default_n":           "serving.default_n",
	"max_n":               "serving.max_n",
	"default_weight":      "serving.default_weight",
	"source_timeout":      "serving.source_timeout",
	"request_timeout":     "serving.request_timeout",
	"primary_source":      "serving.primary_source",
	"secondary_source":    "serving.secondary_source",
	"required_sources":    "serving.required_sources",
	"blend_mode":          "serving.blend_mode",
	"source_depth":        "serving.source_depth",
	"exclude_rated":       "serving.exclude_rated",
	"top_rated_n":         "serving.top_rated_n",
	"favourites_fallback": "serving.favourites_fallback",
	"favourite_threshold": "serving.favourite_threshold",
	"recommend_filter":    "serving.filter",
	"sampler_seed":        "serving.seed",
	"predict_n":           "serving.predict_n",

	// Cold start
	"coldstart_lambda":          "coldstart.lambda",
	"coldstart_label":           "coldstart.label",
	"coldstart_fits_per_second": "coldstart.fits_per_second",
	"coldstart_burst":           "coldstart.burst",

	// Cache
	"cache_backend":     "cache.backend",
	"cache_ttl":         "cache.ttl",
	"cache_max_entries": "cache.max_entries",
	"redis_addr":        "cache.redis_addr",
	"redis_password":    "cache.redis_password",
	"redis_db":          "cache.redis_db",
	"redis_key_prefix":  "cache.redis_key_prefix",

	// Circuit breakers
	"breaker_enabled":           "breaker.enabled",
	"breaker_max_requests":      "breaker.max_requests",
	"breaker_interval":          "breaker.interval",
	"breaker_timeout":           "breaker.timeout",
	"breaker_failure_threshold": "breaker.failure_threshold",

	// Server
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
//
//   - TABLE_DIR -> tables.dir
//   - DEFAULT_WEIGHT -> serving.default_weight
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

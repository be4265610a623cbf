// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/config"
)

// Cacher stores serialized recommendation results by key.
// Implementations are safe for concurrent use.
type Cacher interface {
	// Name identifies the backend in metrics and logs.
	Name() string

	// Get returns the value and true when the key is present and not expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given time-to-live.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases the backend's resources.
	Close() error
}

// Backend selects the cache implementation.
type Backend string

const (
	// BackendMemory is a process-local ristretto cache (default).
	BackendMemory Backend = "memory"

	// BackendRedis shares results across replicas through Redis.
	BackendRedis Backend = "redis"

	// BackendNone disables result caching.
	BackendNone Backend = "none"
)

// New creates the cache selected by cfg. It returns nil, nil for BackendNone.
//
// Example:
//
//	c, err := cache.New(ctx, &cfg.Cache)
//	if err != nil { ... }
//	if c != nil {
//	    defer c.Close()
//	}
func New(ctx context.Context, cfg *config.CacheConfig) (Cacher, error) {
	switch Backend(cfg.Backend) {
	case BackendNone:
		return nil, nil
	case BackendRedis:
		return NewRedis(ctx, RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
	case BackendMemory, "":
		return NewMemory(cfg.MaxEntries)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Verify interface implementations at compile time
var (
	_ Cacher = (*Memory)(nil)
	_ Cacher = (*Redis)(nil)
)

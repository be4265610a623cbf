// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// defaultMaxEntries is used when the configured capacity is not positive.
const defaultMaxEntries = 10000

// Memory is a bounded in-process cache backed by ristretto. Every entry
// costs 1, so MaxCost is the entry capacity; admission is decided by
// ristretto's TinyLFU policy.
type Memory struct {
	cache *ristretto.Cache[string, []byte]
}

// NewMemory creates a memory cache holding up to maxEntries results.
func NewMemory(maxEntries int64) (*Memory, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &Memory{cache: c}, nil
}

// Name implements Cacher.
func (m *Memory) Name() string { return string(BackendMemory) }

// Get implements Cacher.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	return v, ok, nil
}

// Set implements Cacher. Writes go through ristretto's buffers and become
// visible to Get shortly after Set returns, unless the admission policy
// rejects them.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.cache.SetWithTTL(key, value, 1, ttl)
	return nil
}

// Close implements Cacher.
func (m *Memory) Close() error {
	m.cache.Close()
	return nil
}

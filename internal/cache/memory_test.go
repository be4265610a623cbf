// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/config"
)

func TestMemory_SetGet(t *testing.T) {
	t.Parallel()

	m, err := NewMemory(100)
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	defer m.Close()
	ctx := context.Background()

	if _, ok, _ := m.Get(ctx, "42|10"); ok {
		t.Error("Get() on empty cache returned a value")
	}

	if err := m.Set(ctx, "42|10", []byte(`{"user_id":"42"}`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	m.cache.Wait()
	got, ok, err := m.Get(ctx, "42|10")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, want hit", ok, err)
	}
	if string(got) != `{"user_id":"42"}` {
		t.Errorf("Get() = %s, want stored value", got)
	}
}

func TestMemory_Expires(t *testing.T) {
	t.Parallel()

	m, err := NewMemory(100)
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	defer m.Close()
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	m.cache.Wait()
	time.Sleep(50 * time.Millisecond)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("Get() after TTL returned a value")
	}
}

func TestMemory_SetIsBuffered(t *testing.T) {
	t.Parallel()

	m, err := NewMemory(100)
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	defer m.Close()
	ctx := context.Background()

	// Writes land asynchronously; Wait flushes them for the assertions.
	for i := 0; i < 50; i++ {
		if err := m.Set(ctx, fmt.Sprintf("user-%d|10", i), []byte("{}"), time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	m.cache.Wait()

	hits := 0
	for i := 0; i < 50; i++ {
		if _, ok, _ := m.Get(ctx, fmt.Sprintf("user-%d|10", i)); ok {
			hits++
		}
	}
	if hits == 0 {
		t.Error("no writes visible after flushing buffers")
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		backend  string
		wantNil  bool
		wantName string
		wantErr  bool
	}{
		{name: "none", backend: "none", wantNil: true},
		{name: "memory", backend: "memory", wantName: "memory"},
		{name: "default is memory", backend: "", wantName: "memory"},
		{name: "unknown", backend: "memcached", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := New(context.Background(), &config.CacheConfig{Backend: tt.backend, MaxEntries: 10})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantNil {
				if c != nil {
					t.Errorf("New() = %v, want nil", c)
				}
				return
			}
			defer c.Close()
			if c.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", c.Name(), tt.wantName)
			}
		})
	}
}

func TestNewRedis_Unreachable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedis(ctx, RedisConfig{Addr: "127.0.0.1:1"}); err == nil {
		t.Error("NewRedis() against a closed port should fail")
	}
}

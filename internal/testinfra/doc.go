// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package testinfra provides container-backed infrastructure for integration tests.
//
// Every file is behind the integration build tag:
//
//	go test -tags integration ./...
//
// # Redis Container
//
// RedisContainer runs a throwaway Redis server for the shared result cache:
//
//	func TestRedisCache(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    redis, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, redis.Container)
//
//	    c, err := cache.NewRedis(ctx, cache.RedisConfig{Addr: redis.Addr})
//	    ...
//	}
//
// Tests skip themselves when Docker is not available.
package testinfra

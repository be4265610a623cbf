// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package cache provides the recommendation result caches.

Two backends implement Cacher:

  - Memory: a process-local ristretto cache bounded by entry count
  - Redis: a go-redis client shared across replicas

Values are opaque bytes; the recommend engine stores JSON-encoded results
keyed by user, list length, blend weight and blend mode. Only complete
results are cached, so a partial answer is recomputed on the next request.

# Usage Example

	c, err := cache.New(ctx, &cfg.Cache)
	if err != nil {
	    return err
	}
	engine, err := recommend.NewEngine(engineCfg, holder, logger, recommend.WithCache(c))

# Thread Safety

Both backends are safe for concurrent use.
*/
package cache

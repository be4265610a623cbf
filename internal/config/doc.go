// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package config loads Marquee configuration with koanf.
//
// Sources are layered with increasing priority: built-in defaults, an
// optional YAML file (CONFIG_PATH, ./config.yaml or /etc/marquee/config.yaml)
// and finally environment variables. Only environment variables listed in
// envMappings are read, so unrelated variables never leak into the config.
//
// Example config.yaml:
//
//	tables:
//	  dir: /data/models
//	  policy: degraded
//	serving:
//	  default_n: 10
//	  default_weight: 0.6
//	  source_timeout: 250ms
//	  filter: "score >= 3.0"
//	cache:
//	  backend: redis
//	  redis_addr: redis:6379
//
// Validate rejects out-of-range values at startup, including a default blend
// weight outside [0, 1].
package config

// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package main is the entry point for the Marquee server.

Marquee serves movie recommendations from precomputed prediction tables
(collaborative, content-based and neural), blends them per request, and
fits a small ridge regression for users without history.

# Application Architecture

The server runs under Suture v4 process supervision:

	RootSupervisor ("marquee")
	├── DataSupervisor ("data-layer")
	│   └── Table loader (one-shot, publishes the DataStore)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Result cache: ristretto (memory), Redis, or none
 4. Recommendation engine over an empty store holder
 5. Supervisor tree: loader in the data layer, HTTP server in the api layer

The HTTP server accepts requests immediately. Until the loader publishes
the store, /health/ready answers 503 and serving endpoints answer 503 with
SERVICE_UNAVAILABLE. A load failure under the strict policy terminates the
tree and the process exits non-zero.

# Configuration

Priority: Environment variables > Config file > Defaults

	TABLE_DIR=./models           # directory holding the table files
	TABLE_POLICY=degraded        # degraded or strict
	DEFAULT_WEIGHT=0.6           # primary source blend weight
	BLEND_MODE=score             # score or rank_position
	REQUIRED_SOURCES=            # comma-separated sources that must answer
	CACHE_BACKEND=memory         # memory, redis or none
	REDIS_ADDR=localhost:6379
	HTTP_PORT=8000
	LOG_LEVEL=info
	LOG_FORMAT=json

CONFIG_PATH points at an explicit YAML file; otherwise config.yaml in the
working directory or /etc/marquee is used when present.

# Endpoints

	GET  /api/v1/recommendations/{user_id}
	POST /api/v1/cold-start/recommendations
	GET  /api/v1/cold-start/items
	GET  /api/v1/items/{item_id}/similar
	GET  /api/v1/stats
	POST /predict
	GET  /health, /health/live, /health/ready
	GET  /metrics

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests within SHUTDOWN_TIMEOUT and the result cache is closed.
*/
package main

// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package supervisor runs the service's long-lived components under a suture v4
supervisor tree.

	marquee
	├── data-layer
	│   └── LoaderService (loads tables once, publishes the store)
	└── api-layer
	    └── HTTPServerService

The HTTP server starts immediately and reports 503 on /health/ready and every
domain endpoint until the loader publishes the store. The loader is one-shot:
it returns suture.ErrDoNotRestart after publishing, and
suture.ErrTerminateSupervisorTree when loading fails, which stops the whole
process.

Supervisor events are logged through sutureslog, fed by the zerolog slog
adapter in the logging package:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewLoaderService(loader, holder, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, addr, timeout, logger))
	err = tree.Serve(ctx)
*/
package supervisor

// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/marquee/internal/api"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/middleware"
	"github.com/tomtom215/marquee/internal/supervisor"
	"github.com/tomtom215/marquee/internal/supervisor/services"
)

const (
	perfMonSamples       = 1000
	perfMonSlowThreshold = time.Second
)

func main() {
	os.Exit(run())
}

// run wires the process together and returns the exit code.
func run() int {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "marquee",
		Output:    os.Stderr,
	})

	logging.Info().
		Str("table_dir", cfg.Tables.Dir).
		Str("policy", cfg.Tables.Policy).
		Str("cache", cfg.Cache.Backend).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Marquee with supervisor tree")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := initRecommend(ctx, cfg, logging.Logger())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize recommendation engine")
		return 1
	}
	defer func() {
		if err := components.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing result cache")
		}
	}()

	perfMon := middleware.NewPerformanceMonitor(perfMonSamples, perfMonSlowThreshold)
	handler := api.NewHandler(components.Engine, components.Holder, perfMon, api.HandlerConfig{
		RequestTimeout: cfg.Serving.RequestTimeout,
		OnboardingN:    cfg.Serving.DefaultN,
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(chiMiddlewareConfig(cfg)), perfMon)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return 1
	}

	// Data layer: one-shot table load that publishes into the holder.
	loaderSvc := services.NewLoaderService(components.Loader, components.Holder, logging.WithComponent("loader-service"))
	tree.AddDataService(loaderSvc)

	// API layer: serves 503 on readiness until the loader publishes.
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout, logging.WithComponent("http")))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	exitCode := 0
	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
			exitCode = 1
		}
	}
	stop()

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if err := loaderSvc.Err(); err != nil {
		logging.Error().Err(err).Msg("Table load failed")
		exitCode = 1
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Int("exit_code", exitCode).Msg("Application stopped")
	return exitCode
}

// chiMiddlewareConfig maps the security settings onto the router middleware.
func chiMiddlewareConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Security.CORSOrigins
	if cfg.Security.RateLimitReqs > 0 {
		mw.RateLimitRequests = cfg.Security.RateLimitReqs
	}
	if cfg.Security.RateLimitWindow > 0 {
		mw.RateLimitWindow = cfg.Security.RateLimitWindow
	}
	mw.RateLimitDisabled = cfg.Security.RateLimitDisabled
	return mw
}

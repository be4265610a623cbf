// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/marquee/internal/datastore"
	"github.com/tomtom215/marquee/internal/metrics"
)

// StoreLoader loads the recommendation tables. *datastore.Loader implements it.
type StoreLoader interface {
	Load(ctx context.Context) (*datastore.DataStore, error)
}

// StorePublisher makes a loaded store visible to handlers. *datastore.Holder implements it.
type StorePublisher interface {
	Publish(ds *datastore.DataStore)
	Ready() bool
}

// LoaderService loads the DataStore once and publishes it, which flips
// readiness. It is a one-shot service: after publishing it returns
// suture.ErrDoNotRestart. A load failure (strict policy, or no table at all)
// terminates the supervisor tree; Err reports the cause.
type LoaderService struct {
	loader    StoreLoader
	publisher StorePublisher
	logger    zerolog.Logger
	name      string

	mu  sync.Mutex
	err error
}

// NewLoaderService creates the table loader service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLoaderService(loader StoreLoader, publisher StorePublisher, logger zerolog.Logger) *LoaderService {
	return &LoaderService{
		loader:    loader,
		publisher: publisher,
		logger:    logger.With().Str("service", "table-loader").Logger(),
		name:      "table-loader",
	}
}

// Serve implements suture.Service.
func (s *LoaderService) Serve(ctx context.Context) error {
	if s.publisher.Ready() {
		return suture.ErrDoNotRestart
	}
	metrics.SetDataStoreReady(false)

	start := time.Now()
	s.logger.Info().Msg("Loading recommendation tables")

	ds, err := s.loader.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		s.logger.Error().Err(err).Msg("Table load failed, stopping")
		return suture.ErrTerminateSupervisorTree
	}

	s.publisher.Publish(ds)
	metrics.SetDataStoreReady(true)

	event := s.logger.Info()
	if ds.Status() != datastore.StatusHealthy {
		event = s.logger.Warn()
	}
	event.Str("status", ds.Status()).
		Dur("duration", time.Since(start)).
		Msg("Recommendation tables published")

	return suture.ErrDoNotRestart
}

// Err returns the load error that terminated the tree, if any.
func (s *LoaderService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// String implements fmt.Stringer.
func (s *LoaderService) String() string {
	return s.name
}

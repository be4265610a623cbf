// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package datastore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/metrics"
)

// loadConcurrency bounds how many tables are read at once.
const loadConcurrency = 3

// Loader reads the configured table directory into a DataStore.
type Loader struct {
	cfg    *config.TablesConfig
	logger zerolog.Logger
}

// NewLoader creates a loader for the given table configuration.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewLoader(cfg *config.TablesConfig, logger zerolog.Logger) *Loader {
	return &Loader{
		cfg:    cfg,
		logger: logger.With().Str("component", "datastore").Logger(),
	}
}

// tableResult is written by exactly one load goroutine.
type tableResult struct {
	prediction *PredictionTable
	ratings    *RatingTable
	features   *FeatureTable
	popularity *PopularityTable
	avail      Availability
	err        error
}

func (r *tableResult) loaded() bool {
	return r.prediction != nil || r.ratings != nil || r.features != nil || r.popularity != nil
}

// Load reads every table once. Each table load is retried with exponential
// backoff; a missing file or missing column is permanent and not retried.
//
// In strict mode the first table failure aborts the load with a *LoadError.
// In degraded mode failures are recorded as unavailable tables, and Load only
// fails (with ErrNoTablesLoaded) when nothing loaded at all.
func (l *Loader) Load(ctx context.Context) (*DataStore, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.LoadTimeout)
	defer cancel()

	manifest, err := l.manifest()
	if err != nil {
		return nil, err
	}

	rd, err := openReader(ctx, l.cfg, loadConcurrency)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rd)

	l.logger.Info().
		Str("dir", l.cfg.Dir).
		Str("policy", l.cfg.Policy).
		Msg("Loading tables")

	results := make(map[TableName]*tableResult, len(AllTables))
	for _, name := range AllTables {
		results[name] = &tableResult{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for _, name := range AllTables {
		res := results[name]
		spec := manifest.Spec(name)
		g.Go(func() error {
			l.loadTable(gctx, rd, name, spec, res)
			if res.err != nil && l.strict() {
				return res.err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return l.assemble(results)
}

func (l *Loader) strict() bool {
	return l.cfg.Policy == "strict"
}

func (l *Loader) manifest() (*Manifest, error) {
	if l.cfg.Manifest != "" {
		return LoadManifest(l.cfg.Manifest, true)
	}
	return LoadManifest(filepath.Join(l.cfg.Dir, ManifestFileName), false)
}

// path resolves a table's file, preferring the manifest override.
func (l *Loader) path(name TableName, spec TableSpec) string {
	file := spec.File
	if file == "" {
		switch name {
		case TableCollab:
			file = l.cfg.CollabFile
		case TableContent:
			file = l.cfg.ContentFile
		case TableNeural:
			file = l.cfg.NeuralFile
		case TableRatings:
			file = l.cfg.RatingsFile
		case TableFeatures:
			file = l.cfg.FeaturesFile
		case TablePopularity:
			file = l.cfg.PopularityFile
		}
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(l.cfg.Dir, file)
}

func (l *Loader) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.cfg.RetryInitialInterval
	b.MaxInterval = l.cfg.RetryMaxInterval
	b.MaxElapsedTime = 0
	// #nosec G115 -- LoadRetries is validated to [0, 20]
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(l.cfg.LoadRetries)), ctx)
}

func (l *Loader) loadTable(ctx context.Context, rd *reader, name TableName, spec TableSpec, res *tableResult) {
	logger := l.logger.With().Str("table", name.String()).Logger()

	if spec.Disabled {
		res.avail = Availability{Disabled: true, Error: "disabled by manifest"}
		logger.Info().Msg("Table disabled by manifest")
		return
	}

	path := l.path(name, spec)
	start := time.Now()

	operation := func() error {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return backoff.Permanent(ErrTableNotFound)
			}
			return err
		}
		src, err := sourceExpr(path)
		if err != nil {
			return backoff.Permanent(err)
		}
		*res = tableResult{}
		err = l.read(ctx, rd, name, src, spec, res)
		if errors.Is(err, ErrMissingColumn) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		metrics.RecordTableLoadAttempt(name.String(), "retry")
		logger.Warn().Err(err).Dur("retry_in", wait).Msg("Table load failed, retrying")
	}

	if err := backoff.RetryNotify(operation, l.backoff(ctx), notify); err != nil {
		*res = tableResult{
			avail: Availability{Error: err.Error()},
			err:   &LoadError{Table: name, Path: path, Err: err},
		}
		metrics.RecordTableLoadAttempt(name.String(), "failure")
		event := logger.Warn()
		if l.strict() {
			event = logger.Error()
		}
		event.Err(err).Str("path", path).Msg("Table unavailable")
		return
	}

	metrics.RecordTableLoadAttempt(name.String(), "success")
	metrics.ObserveTableLoadDuration(name.String(), time.Since(start))
	logger.Info().
		Str("path", path).
		Dur("duration", time.Since(start)).
		Msg("Table loaded")
}

func (l *Loader) read(ctx context.Context, rd *reader, name TableName, src string, spec TableSpec, res *tableResult) error {
	switch name {
	case TableCollab, TableContent, TableNeural:
		table := NewPredictionTable(name.String())
		if err := rd.readPredictions(ctx, table, src, spec); err != nil {
			return err
		}
		l.logSkipped(name, table)
		res.prediction = table
	case TableRatings:
		table := NewRatingTable()
		if err := rd.readPredictions(ctx, table.PredictionTable, src, spec); err != nil {
			return err
		}
		l.logSkipped(name, table.PredictionTable)
		res.ratings = table
	case TableFeatures:
		table, err := rd.readFeatures(ctx, src, spec)
		if err != nil {
			return err
		}
		res.features = table
	case TablePopularity:
		table, err := rd.readPopularity(ctx, src, spec, l.cfg.PopularityLimit)
		if err != nil {
			return err
		}
		res.popularity = table
	default:
		return fmt.Errorf("unknown table %s", name)
	}
	return nil
}

func (l *Loader) logSkipped(name TableName, table *PredictionTable) {
	if table.Skipped() > 0 {
		l.logger.Warn().
			Str("table", name.String()).
			Int("skipped", table.Skipped()).
			Msg("Dropped rows with invalid IDs or non-finite scores")
	}
}

// assemble builds the DataStore from per-table results.
func (l *Loader) assemble(results map[TableName]*tableResult) (*DataStore, error) {
	tables := Tables{
		Collab:     results[TableCollab].prediction,
		Content:    results[TableContent].prediction,
		Neural:     results[TableNeural].prediction,
		Ratings:    results[TableRatings].ratings,
		Features:   results[TableFeatures].features,
		Popularity: results[TablePopularity].popularity,
	}

	failures := make(map[TableName]Availability)
	for name, res := range results {
		if !res.loaded() {
			failures[name] = res.avail
		}
	}

	if tables.Popularity == nil && tables.Ratings != nil && !results[TablePopularity].avail.Disabled {
		if derived := popularityFromRatings(tables.Ratings, l.cfg.PopularityLimit); derived.Len() > 0 {
			tables.Popularity = derived
			failures[TablePopularity] = Availability{Derived: true}
			l.logger.Info().Int("items", derived.Len()).Msg("Derived popularity pool from ratings")
		}
	}

	ds := New(tables, failures)
	for name, a := range ds.Availability() {
		metrics.SetTableState(name.String(), a.Available, a.Rows)
	}

	if ds.loadedCount() == 0 {
		return nil, fmt.Errorf("%w from %s", ErrNoTablesLoaded, l.cfg.Dir)
	}

	l.logger.Info().
		Str("status", ds.Status()).
		Int("loaded", ds.loadedCount()).
		Int("total", len(AllTables)).
		Msg("Tables ready")
	return ds, nil
}

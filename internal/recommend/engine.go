// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/marquee/internal/datastore"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

// maxUserIDLength bounds user identifiers accepted from callers.
const maxUserIDLength = 64

// StoreProvider returns the published DataStore, or nil while loading.
// *datastore.Holder implements it.
type StoreProvider interface {
	Store() *datastore.DataStore
}

// ResultCache stores serialized results for known users.
type ResultCache interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Option customizes an Engine.
type Option func(*Engine)

// WithCache enables result caching.
func WithCache(c ResultCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithSources replaces the sources with matching names.
func WithSources(sources ...Source) Option {
	return func(e *Engine) {
		for _, s := range sources {
			e.sources[s.Name()] = s
		}
	}
}

// Engine serves recommendations from the published DataStore.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	store  StoreProvider

	sources   map[string]Source
	breakers  map[string]*sourceBreaker
	required  map[string]bool
	coldStart *ColdStartEngine
	filter    *Filter
	cache     ResultCache

	requestCount atomic.Int64
	coldStarts   atomic.Int64
	partials     atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	errorCount   atomic.Int64
}

// NewEngine creates a recommendation engine reading from store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, store StoreProvider, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg = cfg.Clone()

	e := &Engine{
		config:    cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
		store:     store,
		sources:   make(map[string]Source),
		breakers:  make(map[string]*sourceBreaker),
		required:  make(map[string]bool),
		coldStart: NewColdStartEngine(cfg.ColdStart),
	}

	for _, table := range datastore.PredictionTables {
		var src Source = TableSource(table)
		if table == datastore.TableContent && cfg.FavouritesFallback {
			src = favouritesSource{Source: src, threshold: cfg.FavouriteThreshold}
		}
		e.sources[src.Name()] = src
	}
	for _, opt := range opts {
		opt(e)
	}
	for name := range e.sources {
		e.breakers[name] = newSourceBreaker(name, cfg.Breaker)
	}
	for _, name := range cfg.Required {
		e.required[name.String()] = true
	}

	if cfg.Filter != "" {
		f, err := NewFilter(cfg.Filter)
		if err != nil {
			return nil, err
		}
		e.filter = f
	}

	e.logger.Info().
		Str("primary", cfg.Primary.String()).
		Str("secondary", cfg.Secondary.String()).
		Float64("default_weight", cfg.DefaultWeight).
		Str("blend_mode", string(cfg.BlendMode)).
		Bool("cache", e.cache != nil).
		Msg("Recommendation engine configured")
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Ready reports whether a store has been published.
func (e *Engine) Ready() bool {
	return e.store.Store() != nil
}

// BreakerStates returns the circuit breaker state of each source.
func (e *Engine) BreakerStates() map[string]string {
	out := make(map[string]string, len(e.breakers))
	for name, b := range e.breakers {
		out[name] = b.state()
	}
	return out
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Requests:    e.requestCount.Load(),
		ColdStarts:  e.coldStarts.Load(),
		Partials:    e.partials.Load(),
		CacheHits:   e.cacheHits.Load(),
		CacheMisses: e.cacheMisses.Load(),
		Errors:      e.errorCount.Load(),
	}
}

func (e *Engine) requestLogger(ctx context.Context) zerolog.Logger {
	if id := logging.RequestIDFromContext(ctx); id != "" {
		return e.logger.With().Str("request_id", id).Logger()
	}
	return e.logger
}

// Recommend serves a recommendation request.
//
// Known users get the blend of the primary and secondary sources. Unknown
// users with liked items get a cold-start result; unknown users without
// liked items get an empty needs_onboarding result.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Result, error) {
	e.requestCount.Add(1)
	res, err := e.recommend(ctx, req)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}
	metrics.RecordRecommendation(string(res.Status))
	return res, nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) recommend(ctx context.Context, req Request) (*Result, error) {
	ds := e.store.Store()
	if ds == nil {
		return nil, ErrNotReady
	}

	userID, err := validateUserID(req.UserID)
	if err != nil {
		return nil, err
	}
	n, err := e.resolveN(req.N)
	if err != nil {
		return nil, err
	}
	weight := e.config.DefaultWeight
	if req.Weight != nil {
		weight = *req.Weight
	}
	if err := ValidateWeight(weight); err != nil {
		return nil, err
	}

	logger := e.requestLogger(ctx).With().Str("user_id", userID).Logger()

	if !ds.HasUser(userID) {
		if len(req.Liked) == 0 {
			logger.Debug().Msg("Unknown user without liked items")
			return &Result{
				UserID:          userID,
				Status:          StatusNeedsOnboarding,
				Recommendations: []datastore.Record{},
				TopRated:        []datastore.Record{},
			}, nil
		}
		res, err := e.coldStartResult(ctx, ds, req.Liked, n)
		if err != nil {
			return nil, err
		}
		res.UserID = userID
		logger.Debug().Int("returned", len(res.Recommendations)).Msg("Served cold start")
		return res, nil
	}

	key := fmt.Sprintf("%s|%d|%g|%s", userID, n, weight, e.config.BlendMode)
	if res := e.cached(ctx, key, logger); res != nil {
		return res, nil
	}

	res, err := e.blendForUser(ctx, ds, userID, weight, n, logger)
	if err != nil {
		return nil, err
	}
	if res.Status == StatusOK {
		e.cacheResult(ctx, key, res, logger)
	}
	return res, nil
}

// blendForUser fans out to the primary and secondary sources and blends them.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) blendForUser(ctx context.Context, ds *datastore.DataStore, userID string, weight float64, n int, logger zerolog.Logger) (*Result, error) {
	planned := []WeightedList{
		{Source: e.config.Primary.String(), Weight: weight},
		{Source: e.config.Secondary.String(), Weight: 1 - weight},
	}
	// Zero-weight sources are not queried at all.
	launched := planned[:0]
	for _, p := range planned {
		if p.Weight > 0 {
			launched = append(launched, p)
		}
	}

	var rated map[string]struct{}
	if e.config.ExcludeRated {
		rated = ds.Ratings.Rated(userID)
	}
	errs, err := e.fanOut(ctx, ds, userID, rated, launched)
	if err != nil {
		logger.Warn().Err(err).Msg("Required source failed")
		return nil, err
	}

	var failed []string
	lists := make([]WeightedList, 0, len(launched))
	for i, list := range launched {
		if errs[i] != nil {
			failed = append(failed, list.Source)
			logger.Warn().Err(errs[i]).Str("source", list.Source).Msg("Source unavailable, serving partial result")
			continue
		}
		lists = append(lists, list)
	}

	blended, origin := blend(lists, e.config.BlendMode)
	filtered, err := e.filter.Apply(blended, origin)
	if err != nil {
		return nil, &InternalError{Op: "apply filter", Err: err}
	}

	res := &Result{
		UserID:          userID,
		Status:          StatusOK,
		Partial:         len(failed) > 0,
		Recommendations: truncate(filtered, n),
		TopRated:        Rank(ds.Lookup(datastore.TableRatings, userID), e.config.TopRatedN),
		Failed:          failed,
	}
	switch {
	case len(res.Recommendations) == 0:
		res.Status = StatusNoRecommendations
	case res.Partial:
		res.Status = StatusPartial
	}
	if res.Partial {
		e.partials.Add(1)
	}

	logger.Debug().
		Str("status", string(res.Status)).
		Int("returned", len(res.Recommendations)).
		Strs("failed_sources", failed).
		Msg("Served blended recommendations")
	return res, nil
}

// fanOut looks up every launched source concurrently. Each goroutine drops
// the items in rated and ranks its own list to SourceDepth before the join.
// The returned slice holds each optional source's error. A failing required
// source cancels the others and is returned as err.
func (e *Engine) fanOut(ctx context.Context, ds *datastore.DataStore, userID string, rated map[string]struct{}, lists []WeightedList) ([]error, error) {
	errs := make([]error, len(lists))
	g, gctx := errgroup.WithContext(ctx)
	for i := range lists {
		name := lists[i].Source
		g.Go(func() error {
			records, err := e.lookup(gctx, ds, name, userID)
			if err != nil {
				if e.required[name] {
					return requiredFailure(name, err)
				}
				errs[i] = err
				return nil
			}
			records = excludeItems(records, rated)
			depth := e.config.SourceDepth
			if depth == 0 {
				depth = len(records)
			}
			lists[i].Records = Rank(records, depth)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return errs, nil
}

func requiredFailure(name string, err error) error {
	var timeout *UpstreamTimeoutError
	if errors.As(err, &timeout) {
		return timeout
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: required source %s: %v", ErrUnavailable, name, err)
}

// lookup runs one source under its timeout budget and circuit breaker.
func (e *Engine) lookup(ctx context.Context, ds *datastore.DataStore, name, userID string) ([]datastore.Record, error) {
	src, ok := e.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown source %s", ErrUnavailable, name)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.config.SourceTimeout)
	defer cancel()

	records, err := e.breakers[name].execute(func() ([]datastore.Record, error) {
		return callSource(ctx, src, ds, userID)
	})
	if errors.Is(err, context.DeadlineExceeded) {
		err = &UpstreamTimeoutError{Source: name, Budget: e.config.SourceTimeout}
	}

	result := "success"
	switch {
	case err == nil:
	case errors.As(err, new(*UpstreamTimeoutError)):
		result = "timeout"
	default:
		result = "error"
	}
	metrics.RecordSourceLookup(name, result, time.Since(start))
	return records, err
}

// callSource returns when the source answers or ctx ends, whichever is first.
func callSource(ctx context.Context, src Source, ds *datastore.DataStore, userID string) ([]datastore.Record, error) {
	type answer struct {
		records []datastore.Record
		err     error
	}
	ch := make(chan answer, 1)
	go func() {
		records, err := src.Lookup(ctx, ds, userID)
		ch <- answer{records, err}
	}()

	select {
	case a := <-ch:
		return a.records, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func excludeItems(records []datastore.Record, exclude map[string]struct{}) []datastore.Record {
	if len(exclude) == 0 {
		return records
	}
	out := make([]datastore.Record, 0, len(records))
	for _, r := range records {
		if _, skip := exclude[r.ItemID]; !skip {
			out = append(out, r)
		}
	}
	return out
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) cached(ctx context.Context, key string, logger zerolog.Logger) *Result {
	if e.cache == nil {
		return nil
	}
	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		metrics.RecordCacheError(e.cache.Name())
		logger.Warn().Err(err).Msg("Result cache read failed")
		return nil
	}
	if !ok {
		e.cacheMisses.Add(1)
		metrics.RecordCacheMiss(e.cache.Name())
		return nil
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		metrics.RecordCacheError(e.cache.Name())
		logger.Warn().Err(err).Msg("Discarding undecodable cache entry")
		return nil
	}
	e.cacheHits.Add(1)
	metrics.RecordCacheHit(e.cache.Name())
	res.CacheHit = true
	logger.Debug().Msg("cache hit")
	return &res
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) cacheResult(ctx context.Context, key string, res *Result, logger zerolog.Logger) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		logger.Warn().Err(err).Msg("Result not cacheable")
		return
	}
	if err := e.cache.Set(ctx, key, data, e.config.CacheTTL); err != nil {
		metrics.RecordCacheError(e.cache.Name())
		logger.Warn().Err(err).Msg("Result cache write failed")
	}
}

// ColdStart recommends items for a user described only by liked items.
// A nil n means the configured default.
func (e *Engine) ColdStart(ctx context.Context, liked []string, n *int) (*Result, error) {
	e.requestCount.Add(1)
	ds := e.store.Store()
	if ds == nil {
		e.errorCount.Add(1)
		return nil, ErrNotReady
	}
	count, err := e.resolveN(n)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}
	res, err := e.coldStartResult(ctx, ds, liked, count)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}
	metrics.RecordRecommendation(string(res.Status))
	return res, nil
}

func (e *Engine) coldStartResult(ctx context.Context, ds *datastore.DataStore, liked []string, n int) (*Result, error) {
	records, err := e.coldStart.Recommend(ctx, ds.Features, liked, n)
	if err != nil {
		return nil, err
	}
	e.coldStarts.Add(1)
	return &Result{
		Status:          StatusColdStart,
		Recommendations: records,
		TopRated:        []datastore.Record{},
	}, nil
}

// ColdStartItems samples n distinct items from the popularity pool for an
// onboarding screen. The sample is deterministic for a given seed; a nil
// seed uses the configured one. The seed used is returned.
func (e *Engine) ColdStartItems(_ context.Context, n int, seed *int64) ([]string, int64, error) {
	ds := e.store.Store()
	if ds == nil {
		return nil, 0, ErrNotReady
	}
	if n <= 0 {
		return nil, 0, invalid("n", "must be positive")
	}
	if ds.Popularity == nil || ds.Popularity.Len() == 0 {
		return nil, 0, fmt.Errorf("%w: popularity", ErrUnavailable)
	}

	s := e.config.Seed
	if seed != nil {
		s = *seed
	}
	pool := append([]string(nil), ds.Popularity.Items()...)
	rng := rand.New(rand.NewSource(s)) //nolint:gosec // deterministic sampling, not security sensitive
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	if n < len(pool) {
		pool = pool[:n]
	}
	return pool, s, nil
}

// SimilarItems returns the n items whose feature vectors are most similar to
// itemID. A nil n means the configured default.
func (e *Engine) SimilarItems(_ context.Context, itemID string, n *int) ([]datastore.Record, error) {
	ds := e.store.Store()
	if ds == nil {
		return nil, ErrNotReady
	}
	id, err := datastore.CanonicalString(itemID)
	if err != nil {
		return nil, invalid("item_id", "must not be empty")
	}
	count, err := e.resolveN(n)
	if err != nil {
		return nil, err
	}
	if ds.Features == nil {
		return nil, fmt.Errorf("%w: features", ErrUnavailable)
	}
	target, ok := ds.Features.Vector(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	scored := make([]datastore.Record, 0, ds.Features.Len())
	ds.Features.Each(func(other string, vec []float64) bool {
		if other != id {
			scored = append(scored, datastore.Record{ItemID: other, Score: cosineSimilarity(target, vec)})
		}
		return true
	})
	return Rank(scored, count), nil
}

// Predict returns the top items of the primary source for a known user.
func (e *Engine) Predict(ctx context.Context, userID string) ([]datastore.Record, error) {
	ds := e.store.Store()
	if ds == nil {
		return nil, ErrNotReady
	}
	id, err := validateUserID(userID)
	if err != nil {
		return nil, err
	}
	if !ds.HasUser(id) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}

	name := e.config.Primary.String()
	records, err := e.lookup(ctx, ds, name, id)
	if err != nil {
		return nil, requiredFailure(name, err)
	}
	if e.config.ExcludeRated {
		records = excludeItems(records, ds.Ratings.Rated(id))
	}
	return Rank(records, e.config.PredictN), nil
}

// resolveN applies the default to an absent n and rejects explicit values outside [1, MaxN].
func (e *Engine) resolveN(n *int) (int, error) {
	if n == nil {
		return e.config.DefaultN, nil
	}
	if *n <= 0 || *n > e.config.MaxN {
		return 0, invalid("n", "must be between 1 and %d", e.config.MaxN)
	}
	return *n, nil
}

func validateUserID(raw string) (string, error) {
	id, err := datastore.CanonicalString(raw)
	if err != nil {
		return "", invalid("user_id", "must not be empty")
	}
	if len(id) > maxUserIDLength {
		return "", invalid("user_id", "must be at most %d characters", maxUserIDLength)
	}
	for _, r := range id {
		if !unicode.IsPrint(r) {
			return "", invalid("user_id", "must be printable text")
		}
	}
	return id, nil
}

// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/datastore"
)

// testStore builds a small store:
//
//	collab   42: 7=4.5 9=3.0 1=4.9
//	content  42: 11=3.9 7=1.0
//	ratings  42: 1=5 2=4   50: 1=4.5
//	features 1,2=[1 0] 3,11=[0 1] 7=[1 1]
//	popular  1 2 3 7 9 11
func testStore(t *testing.T) *datastore.DataStore {
	t.Helper()

	collab := datastore.NewPredictionTable("collab")
	collab.Add("42", "7", 4.5)
	collab.Add("42", "9", 3.0)
	collab.Add("42", "1", 4.9)

	content := datastore.NewPredictionTable("content")
	content.Add("42", "11", 3.9)
	content.Add("42", "7", 1.0)

	ratings := datastore.NewRatingTable()
	ratings.Add("42", "1", 5)
	ratings.Add("42", "2", 4)
	ratings.Add("50", "1", 4.5)

	features := datastore.NewFeatureTable([]string{"Action", "Drama"})
	for _, f := range []struct {
		id  string
		vec []float64
	}{
		{"1", []float64{1, 0}},
		{"2", []float64{1, 0}},
		{"3", []float64{0, 1}},
		{"7", []float64{1, 1}},
		{"11", []float64{0, 1}},
	} {
		if err := features.Add(f.id, f.vec); err != nil {
			t.Fatalf("features.Add: %v", err)
		}
	}

	return datastore.New(datastore.Tables{
		Collab:     collab,
		Content:    content,
		Ratings:    ratings,
		Features:   features,
		Popularity: datastore.NewPopularityTable([]string{"1", "2", "3", "7", "9", "11"}, 0),
	}, nil)
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.SourceTimeout = 50 * time.Millisecond
	cfg.Breaker.Enabled = false
	cfg.ColdStart.FitsPerSecond = 0
	return cfg
}

func newTestEngine(t *testing.T, cfg *Config, opts ...Option) *Engine {
	t.Helper()
	holder := datastore.NewHolder()
	holder.Publish(testStore(t))
	e, err := NewEngine(cfg, holder, zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

// slowSource blocks until its delay elapses or ctx ends.
type slowSource struct {
	name  string
	delay time.Duration
}

func (s slowSource) Name() string { return s.name }

func (s slowSource) Lookup(ctx context.Context, _ *datastore.DataStore, _ string) ([]datastore.Record, error) {
	select {
	case <-time.After(s.delay):
		return []datastore.Record{rec("late", 100)}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// failingSource always errors.
type failingSource struct{ name string }

func (s failingSource) Name() string { return s.name }

func (s failingSource) Lookup(context.Context, *datastore.DataStore, string) ([]datastore.Record, error) {
	return nil, errors.New("source exploded")
}

// mapCache is an in-process ResultCache.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{entries: map[string][]byte{}} }

func (c *mapCache) Name() string { return "test" }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *mapCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func itemIDs(records []datastore.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ItemID
	}
	return ids
}

func weight(w float64) *float64 { return &w }

func count(n int) *int { return &n }

// --- Test: NewEngine ---

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.DefaultWeight = 1.5
	if _, err := NewEngine(cfg, datastore.NewHolder(), zerolog.Nop()); err == nil {
		t.Error("NewEngine() with weight 1.5 should fail")
	}
}

// --- Test: Recommend ---

func TestRecommend_KnownUser(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig())
	res, err := e.Recommend(context.Background(), Request{UserID: "42"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// collab*0.6: 7=2.7 9=1.8 (1 is rated); content*0.4: 11=1.56 7=0.4
	want := []datastore.Record{rec("7", 3.1), rec("9", 1.8), rec("11", 1.56)}
	if !recordsAlmostEqual(res.Recommendations, want) {
		t.Errorf("Recommendations = %v, want %v", res.Recommendations, want)
	}
	if res.Status != StatusOK || res.Partial {
		t.Errorf("Status = %q partial=%v, want ok", res.Status, res.Partial)
	}
	if got := itemIDs(res.TopRated); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("TopRated = %v, want [1 2]", got)
	}
}

func TestRecommend_SourceDepthAppliesAfterExclusion(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.SourceDepth = 1
	e := newTestEngine(t, cfg)

	res, err := e.Recommend(context.Background(), Request{UserID: "42"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// Rated 1 is dropped before each source keeps its top item:
	// collab 7=4.5 -> 2.7, content 11=3.9 -> 1.56. 9 and content's 7 fall below depth.
	want := []datastore.Record{rec("7", 2.7), rec("11", 1.56)}
	if !recordsAlmostEqual(res.Recommendations, want) {
		t.Errorf("Recommendations = %v, want %v", res.Recommendations, want)
	}
}

func TestRecommend_CanonicalUserID(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig())
	res, err := e.Recommend(context.Background(), Request{UserID: " 42.0 ", N: count(1)})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if res.UserID != "42" || len(res.Recommendations) != 1 || res.Recommendations[0].ItemID != "7" {
		t.Errorf("Recommend(42.0) = %+v, want user 42 with item 7", res)
	}
}

func TestRecommend_WeightBoundaries(t *testing.T) {
	t.Parallel()

	// The secondary source is never queried at weight 1, so its failure is invisible.
	e := newTestEngine(t, testConfig(), WithSources(failingSource{name: "content"}))
	res, err := e.Recommend(context.Background(), Request{UserID: "42", Weight: weight(1)})
	if err != nil {
		t.Fatalf("Recommend(w=1) error = %v", err)
	}
	if res.Status != StatusOK {
		t.Errorf("Status = %q, want ok", res.Status)
	}
	if !recordsAlmostEqual(res.Recommendations, []datastore.Record{rec("7", 4.5), rec("9", 3.0)}) {
		t.Errorf("w=1 recommendations = %v, want collab alone", res.Recommendations)
	}

	e = newTestEngine(t, testConfig())
	res, err = e.Recommend(context.Background(), Request{UserID: "42", Weight: weight(0)})
	if err != nil {
		t.Fatalf("Recommend(w=0) error = %v", err)
	}
	if !recordsAlmostEqual(res.Recommendations, []datastore.Record{rec("11", 3.9), rec("7", 1.0)}) {
		t.Errorf("w=0 recommendations = %v, want content alone", res.Recommendations)
	}
}

func TestRecommend_Idempotent(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig())
	req := Request{UserID: "42", N: count(3)}
	first, err := e.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	second, err := e.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestRecommend_Validation(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig())

	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"zero n", Request{UserID: "42", N: count(0)}, "n"},
		{"negative n", Request{UserID: "42", N: count(-1)}, "n"},
		{"n above max", Request{UserID: "42", N: count(101)}, "n"},
		{"weight above one", Request{UserID: "42", Weight: weight(1.5)}, "weight"},
		{"negative weight", Request{UserID: "42", Weight: weight(-0.1)}, "weight"},
		{"empty user", Request{UserID: "  "}, "user_id"},
		{"long user", Request{UserID: strings.Repeat("u", 65)}, "user_id"},
		{"unprintable user", Request{UserID: "a\x00b"}, "user_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := e.Recommend(context.Background(), tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestRecommend_SourceTimeoutIsPartial(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(), WithSources(slowSource{name: "content", delay: time.Second}))
	start := time.Now()
	res, err := e.Recommend(context.Background(), Request{UserID: "42"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Recommend took %v, want it bounded by the source timeout", elapsed)
	}
	if !res.Partial || res.Status != StatusPartial {
		t.Errorf("Status = %q partial=%v, want partial", res.Status, res.Partial)
	}
	if !reflect.DeepEqual(res.Failed, []string{"content"}) {
		t.Errorf("Failed = %v, want [content]", res.Failed)
	}
	if !recordsAlmostEqual(res.Recommendations, []datastore.Record{rec("7", 2.7), rec("9", 1.8)}) {
		t.Errorf("Recommendations = %v, want collab share only", res.Recommendations)
	}
	if e.Stats().Partials != 1 {
		t.Errorf("Stats().Partials = %d, want 1", e.Stats().Partials)
	}
}

func TestRecommend_AllSourcesFail(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig(),
		WithSources(failingSource{name: "collab"}, slowSource{name: "content", delay: time.Second}))
	res, err := e.Recommend(context.Background(), Request{UserID: "42"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if res.Status != StatusNoRecommendations || len(res.Recommendations) != 0 {
		t.Errorf("result = %+v, want empty no_recommendations", res)
	}
	if !res.Partial {
		t.Error("Partial should be set when sources failed")
	}
}

func TestRecommend_RequiredSourceFails(t *testing.T) {
	t.Parallel()

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Required = []datastore.TableName{datastore.TableContent}
		e := newTestEngine(t, cfg, WithSources(slowSource{name: "content", delay: time.Second}))

		_, err := e.Recommend(context.Background(), Request{UserID: "42"})
		var timeout *UpstreamTimeoutError
		if !errors.As(err, &timeout) {
			t.Fatalf("error = %v, want *UpstreamTimeoutError", err)
		}
		if timeout.Source != "content" {
			t.Errorf("Source = %q, want content", timeout.Source)
		}
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Required = []datastore.TableName{datastore.TableCollab}
		e := newTestEngine(t, cfg, WithSources(failingSource{name: "collab"}))

		_, err := e.Recommend(context.Background(), Request{UserID: "42"})
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("error = %v, want ErrUnavailable", err)
		}
		if e.Stats().Errors != 1 {
			t.Errorf("Stats().Errors = %d, want 1", e.Stats().Errors)
		}
	})
}

func TestRecommend_UnknownUser(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig())

	res, err := e.Recommend(context.Background(), Request{UserID: "999"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if res.Status != StatusNeedsOnboarding || len(res.Recommendations) != 0 {
		t.Errorf("result = %+v, want empty needs_onboarding", res)
	}

	res, err = e.Recommend(context.Background(), Request{UserID: "999", Liked: []string{"3"}, N: count(2)})
	if err != nil {
		t.Fatalf("Recommend(liked) error = %v", err)
	}
	if res.Status != StatusColdStart || res.UserID != "999" {
		t.Errorf("Status = %q user=%q, want cold_start for 999", res.Status, res.UserID)
	}
	// Liked item 3 is [0 1]; 7 and 11 both carry the Drama feature and tie.
	if got := itemIDs(res.Recommendations); !reflect.DeepEqual(got, []string{"7", "11"}) {
		t.Errorf("Recommendations = %v, want [7 11]", got)
	}
	if e.Stats().ColdStarts != 1 {
		t.Errorf("Stats().ColdStarts = %d, want 1", e.Stats().ColdStarts)
	}
}

func TestRecommend_FavouritesFallback(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig())
	res, err := e.Recommend(context.Background(), Request{UserID: "50"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	// Favourite 1 is [1 0]: 2 is identical, 7 is at 45 degrees, 3 and 11 orthogonal.
	got := itemIDs(res.Recommendations)
	if len(got) < 2 || got[0] != "2" || got[1] != "7" {
		t.Errorf("Recommendations = %v, want [2 7 ...]", got)
	}
	for _, id := range got {
		if id == "1" {
			t.Error("rated item 1 should be excluded")
		}
	}

	cfg := testConfig()
	cfg.FavouritesFallback = false
	e = newTestEngine(t, cfg)
	res, err = e.Recommend(context.Background(), Request{UserID: "50"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if res.Status != StatusNoRecommendations {
		t.Errorf("without fallback Status = %q, want no_recommendations", res.Status)
	}
}

func TestRecommend_Filter(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Filter = `source == "collab" && score > 2.0`
	e := newTestEngine(t, cfg)

	res, err := e.Recommend(context.Background(), Request{UserID: "42"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if got := itemIDs(res.Recommendations); !reflect.DeepEqual(got, []string{"7"}) {
		t.Errorf("filtered = %v, want [7]", got)
	}
}

func TestRecommend_RankPositionMode(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.BlendMode = BlendRankPosition
	e := newTestEngine(t, cfg)

	res, err := e.Recommend(context.Background(), Request{UserID: "42"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	// collab [7 9] -> 0.6, 0; content [11 7] -> 0.4, 0
	want := []datastore.Record{rec("7", 0.6), rec("11", 0.4), rec("9", 0)}
	if !recordsAlmostEqual(res.Recommendations, want) {
		t.Errorf("Recommendations = %v, want %v", res.Recommendations, want)
	}
}

func TestRecommend_Cache(t *testing.T) {
	t.Parallel()

	cache := newMapCache()
	e := newTestEngine(t, testConfig(), WithCache(cache))

	first, err := e.Recommend(context.Background(), Request{UserID: "42"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if first.CacheHit {
		t.Error("first request should miss the cache")
	}

	second, err := e.Recommend(context.Background(), Request{UserID: "42"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !second.CacheHit {
		t.Error("second request should hit the cache")
	}
	if !recordsAlmostEqual(first.Recommendations, second.Recommendations) {
		t.Errorf("cached %v, want %v", second.Recommendations, first.Recommendations)
	}

	stats := e.Stats()
	if stats.CacheHits != 1 || stats.CacheMisses != 1 {
		t.Errorf("Stats() = %+v, want 1 hit and 1 miss", stats)
	}
}

func TestRecommend_PartialNotCached(t *testing.T) {
	t.Parallel()

	cache := newMapCache()
	e := newTestEngine(t, testConfig(), WithCache(cache), WithSources(failingSource{name: "content"}))

	if _, err := e.Recommend(context.Background(), Request{UserID: "42"}); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if cache.len() != 0 {
		t.Errorf("cache has %d entries, want partial result not cached", cache.len())
	}
}

func TestEngine_NotReady(t *testing.T) {
	t.Parallel()

	e, err := NewEngine(testConfig(), datastore.NewHolder(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	ctx := context.Background()

	if e.Ready() {
		t.Error("Ready() = true before publish")
	}
	if _, err := e.Recommend(ctx, Request{UserID: "42"}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Recommend error = %v, want ErrNotReady", err)
	}
	if _, err := e.ColdStart(ctx, []string{"1"}, count(5)); !errors.Is(err, ErrNotReady) {
		t.Errorf("ColdStart error = %v, want ErrNotReady", err)
	}
	if _, _, err := e.ColdStartItems(ctx, 5, nil); !errors.Is(err, ErrNotReady) {
		t.Errorf("ColdStartItems error = %v, want ErrNotReady", err)
	}
	if _, err := e.SimilarItems(ctx, "1", count(5)); !errors.Is(err, ErrNotReady) {
		t.Errorf("SimilarItems error = %v, want ErrNotReady", err)
	}
	if _, err := e.Predict(ctx, "42"); !errors.Is(err, ErrNotReady) {
		t.Errorf("Predict error = %v, want ErrNotReady", err)
	}
}

// --- Test: ColdStart ---

func TestEngine_ColdStart(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig())

	res, err := e.ColdStart(context.Background(), []string{"1"}, count(2))
	if err != nil {
		t.Fatalf("ColdStart() error = %v", err)
	}
	if res.Status != StatusColdStart {
		t.Errorf("Status = %q, want cold_start", res.Status)
	}
	if got := itemIDs(res.Recommendations); !reflect.DeepEqual(got, []string{"2", "7"}) {
		t.Errorf("ColdStart = %v, want [2 7]", got)
	}

	var verr *ValidationError
	if _, err := e.ColdStart(context.Background(), nil, count(2)); !errors.As(err, &verr) {
		t.Errorf("ColdStart(no items) error = %v, want *ValidationError", err)
	}
	if _, err := e.ColdStart(context.Background(), []string{"1"}, count(0)); !errors.As(err, &verr) || verr.Field != "n" {
		t.Errorf("ColdStart(n=0) error = %v, want *ValidationError on n", err)
	}
}

// --- Test: ColdStartItems ---

func TestEngine_ColdStartItems(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig())
	ctx := context.Background()
	seed := int64(7)

	first, usedSeed, err := e.ColdStartItems(ctx, 4, &seed)
	if err != nil {
		t.Fatalf("ColdStartItems() error = %v", err)
	}
	if usedSeed != 7 {
		t.Errorf("seed = %d, want 7", usedSeed)
	}
	second, _, _ := e.ColdStartItems(ctx, 4, &seed)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed gave %v and %v", first, second)
	}

	seen := map[string]bool{}
	for _, id := range first {
		if seen[id] {
			t.Errorf("duplicate item %s in %v", id, first)
		}
		seen[id] = true
	}
	if len(first) != 4 {
		t.Errorf("len = %d, want 4", len(first))
	}

	all, defaultSeed, _ := e.ColdStartItems(ctx, 100, nil)
	if len(all) != 6 || defaultSeed != 42 {
		t.Errorf("ColdStartItems(100) = %d items seed %d, want 6 items seed 42", len(all), defaultSeed)
	}

	var verr *ValidationError
	if _, _, err := e.ColdStartItems(ctx, 0, nil); !errors.As(err, &verr) {
		t.Errorf("ColdStartItems(0) error = %v, want *ValidationError", err)
	}
}

// --- Test: SimilarItems ---

func TestEngine_SimilarItems(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig())

	got, err := e.SimilarItems(context.Background(), "1", count(2))
	if err != nil {
		t.Fatalf("SimilarItems() error = %v", err)
	}
	if ids := itemIDs(got); !reflect.DeepEqual(ids, []string{"2", "7"}) {
		t.Errorf("SimilarItems(1) = %v, want [2 7]", ids)
	}

	if _, err := e.SimilarItems(context.Background(), "404", count(2)); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("SimilarItems(404) error = %v, want ErrItemNotFound", err)
	}

	var verr *ValidationError
	if _, err := e.SimilarItems(context.Background(), "1", count(0)); !errors.As(err, &verr) || verr.Field != "n" {
		t.Errorf("SimilarItems(n=0) error = %v, want *ValidationError on n", err)
	}
	all, err := e.SimilarItems(context.Background(), "1", nil)
	if err != nil {
		t.Fatalf("SimilarItems(nil n) error = %v", err)
	}
	if len(all) < len(got) {
		t.Errorf("SimilarItems(nil n) returned %d items, want the default length", len(all))
	}
}

// --- Test: Predict ---

func TestEngine_Predict(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testConfig())

	got, err := e.Predict(context.Background(), "42")
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if ids := itemIDs(got); !reflect.DeepEqual(ids, []string{"7", "9"}) {
		t.Errorf("Predict(42) = %v, want [7 9]", ids)
	}

	if _, err := e.Predict(context.Background(), "999"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Predict(999) error = %v, want ErrUserNotFound", err)
	}
}

// --- Test: circuit breaker ---

func TestRecommend_BreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Breaker = BreakerConfig{Enabled: true, MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 2}
	e := newTestEngine(t, cfg, WithSources(failingSource{name: "content"}))

	for i := 0; i < 3; i++ {
		res, err := e.Recommend(context.Background(), Request{UserID: "42"})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if !res.Partial {
			t.Errorf("request %d: want partial result", i)
		}
	}
	if got := e.BreakerStates()["content"]; got != "open" {
		t.Errorf("content breaker = %q, want open", got)
	}
	if got := e.BreakerStates()["collab"]; got != "closed" {
		t.Errorf("collab breaker = %q, want closed", got)
	}
}

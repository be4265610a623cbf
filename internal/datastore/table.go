// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package datastore

import (
	"fmt"
	"math"
	"sort"
)

// Record is one (item, score) pair of a user's row set.
type Record struct {
	ItemID string  `json:"item_id"`
	Score  float64 `json:"score"`
}

// PredictionTable holds (user, item, score) rows indexed by user.
// Per-user records keep file order. A table is built once and is read-only
// afterwards; slices returned by Lookup must not be modified.
type PredictionTable struct {
	name    string
	byUser  map[string][]Record
	users   []string
	rows    int
	skipped int
}

// NewPredictionTable creates an empty table.
func NewPredictionTable(name string) *PredictionTable {
	return &PredictionTable{name: name, byUser: make(map[string][]Record)}
}

// Add appends a row. Non-finite scores are dropped and counted.
func (t *PredictionTable) Add(userID, itemID string, score float64) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		t.skipped++
		return
	}
	if _, ok := t.byUser[userID]; !ok {
		t.users = append(t.users, userID)
	}
	t.byUser[userID] = append(t.byUser[userID], Record{ItemID: itemID, Score: score})
	t.rows++
}

// Name returns the table name.
func (t *PredictionTable) Name() string { return t.name }

// Lookup returns the user's records, or nil when the user is absent.
// Absence is a normal outcome, not an error.
func (t *PredictionTable) Lookup(userID string) []Record {
	if t == nil {
		return nil
	}
	return t.byUser[userID]
}

// Has reports whether the user has at least one row.
func (t *PredictionTable) Has(userID string) bool {
	if t == nil {
		return false
	}
	return len(t.byUser[userID]) > 0
}

// Rows returns the number of stored rows.
func (t *PredictionTable) Rows() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// Users returns the number of distinct users.
func (t *PredictionTable) Users() int {
	if t == nil {
		return 0
	}
	return len(t.byUser)
}

// Skipped returns the number of rows dropped for non-finite scores.
func (t *PredictionTable) Skipped() int {
	if t == nil {
		return 0
	}
	return t.skipped
}

// RatingTable is a PredictionTable whose scores are the user's own ratings.
type RatingTable struct {
	*PredictionTable
}

// NewRatingTable creates an empty rating table.
func NewRatingTable() *RatingTable {
	return &RatingTable{PredictionTable: NewPredictionTable(TableRatings.String())}
}

// Rated returns the set of items the user has rated.
func (t *RatingTable) Rated(userID string) map[string]struct{} {
	if t == nil {
		return nil
	}
	records := t.Lookup(userID)
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[r.ItemID] = struct{}{}
	}
	return seen
}

// Favourites returns the items the user rated at or above threshold, in file order.
func (t *RatingTable) Favourites(userID string, threshold float64) []string {
	if t == nil {
		return nil
	}
	var items []string
	for _, r := range t.Lookup(userID) {
		if r.Score >= threshold {
			items = append(items, r.ItemID)
		}
	}
	return items
}

// FeatureTable maps items to fixed-length feature vectors, keeping load order.
type FeatureTable struct {
	names   []string
	items   []string
	index   map[string]int
	vectors [][]float64
}

// NewFeatureTable creates an empty feature table whose vectors have one entry per name.
func NewFeatureTable(names []string) *FeatureTable {
	return &FeatureTable{
		names: append([]string(nil), names...),
		index: make(map[string]int),
	}
}

// Add stores an item's vector. Duplicate items keep their first vector.
func (t *FeatureTable) Add(itemID string, vec []float64) error {
	if len(vec) != len(t.names) {
		return fmt.Errorf("item %s: feature vector has %d entries, want %d", itemID, len(vec), len(t.names))
	}
	for _, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("item %s: non-finite feature value", itemID)
		}
	}
	if _, dup := t.index[itemID]; dup {
		return nil
	}
	t.index[itemID] = len(t.items)
	t.items = append(t.items, itemID)
	t.vectors = append(t.vectors, append([]float64(nil), vec...))
	return nil
}

// Vector returns the item's feature vector.
func (t *FeatureTable) Vector(itemID string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.index[itemID]
	if !ok {
		return nil, false
	}
	return t.vectors[i], true
}

// Dim returns the feature dimension.
func (t *FeatureTable) Dim() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Names returns the feature names in vector order.
func (t *FeatureTable) Names() []string {
	if t == nil {
		return nil
	}
	return t.names
}

// Len returns the number of items.
func (t *FeatureTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.items)
}

// Each calls fn for every item in load order until fn returns false.
func (t *FeatureTable) Each(fn func(itemID string, vec []float64) bool) {
	if t == nil {
		return
	}
	for i, item := range t.items {
		if !fn(item, t.vectors[i]) {
			return
		}
	}
}

// PopularityTable is a ranked list of popular item IDs used for onboarding.
type PopularityTable struct {
	items []string
}

// NewPopularityTable builds a table from ranked IDs, dropping duplicates and
// truncating to limit when limit > 0.
func NewPopularityTable(items []string, limit int) *PopularityTable {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, id := range items {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return &PopularityTable{items: out}
}

// Items returns the ranked IDs. The slice must not be modified.
func (t *PopularityTable) Items() []string {
	if t == nil {
		return nil
	}
	return t.items
}

// Len returns the number of items.
func (t *PopularityTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.items)
}

// popularityFromRatings ranks items by rating count, ties broken by first appearance.
func popularityFromRatings(ratings *RatingTable, limit int) *PopularityTable {
	counts := make(map[string]int)
	var order []string
	for _, user := range ratings.users {
		for _, r := range ratings.Lookup(user) {
			if counts[r.ItemID] == 0 {
				order = append(order, r.ItemID)
			}
			counts[r.ItemID]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return NewPopularityTable(order, limit)
}

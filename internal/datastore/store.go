// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package datastore

import (
	"fmt"
	"sync/atomic"
)

// TableName identifies one of the fixed tables of a DataStore.
type TableName string

const (
	TableCollab     TableName = "collab"
	TableContent    TableName = "content"
	TableNeural     TableName = "neural"
	TableRatings    TableName = "ratings"
	TableFeatures   TableName = "features"
	TablePopularity TableName = "popularity"
)

// AllTables lists every table in load order.
var AllTables = []TableName{TableCollab, TableContent, TableNeural, TableRatings, TableFeatures, TablePopularity}

// PredictionTables lists the tables that can act as recommendation sources.
var PredictionTables = []TableName{TableCollab, TableContent, TableNeural}

func (n TableName) String() string { return string(n) }

// ParseTableName converts a configured source name into a TableName.
func ParseTableName(s string) (TableName, error) {
	for _, n := range AllTables {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown table %q", s)
}

// Availability describes the load outcome of one table.
type Availability struct {
	Available bool   `json:"available"`
	Disabled  bool   `json:"disabled,omitempty"`
	Derived   bool   `json:"derived,omitempty"`
	Rows      int    `json:"rows"`
	Error     string `json:"error,omitempty"`
}

// Health states reported by DataStore.Status.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Tables is the set of loaded tables handed to New. Nil fields are unavailable.
type Tables struct {
	Collab     *PredictionTable
	Content    *PredictionTable
	Neural     *PredictionTable
	Ratings    *RatingTable
	Features   *FeatureTable
	Popularity *PopularityTable
}

// DataStore owns all tables for the life of the process. It is never
// mutated after New returns and is shared by concurrent requests without locks.
type DataStore struct {
	Collab     *PredictionTable
	Content    *PredictionTable
	Neural     *PredictionTable
	Ratings    *RatingTable
	Features   *FeatureTable
	Popularity *PopularityTable

	availability map[TableName]Availability
}

// New builds a DataStore from already-loaded tables. failures records why
// absent tables are missing; tables without an entry are reported as not loaded.
func New(t Tables, failures map[TableName]Availability) *DataStore {
	ds := &DataStore{
		Collab:       t.Collab,
		Content:      t.Content,
		Neural:       t.Neural,
		Ratings:      t.Ratings,
		Features:     t.Features,
		Popularity:   t.Popularity,
		availability: make(map[TableName]Availability, len(AllTables)),
	}

	rows := map[TableName]int{
		TableCollab:     t.Collab.Rows(),
		TableContent:    t.Content.Rows(),
		TableNeural:     t.Neural.Rows(),
		TableFeatures:   t.Features.Len(),
		TablePopularity: t.Popularity.Len(),
	}
	if t.Ratings != nil {
		rows[TableRatings] = t.Ratings.Rows()
	}

	for _, name := range AllTables {
		if ds.present(name) {
			a := failures[name]
			a.Available = true
			a.Rows = rows[name]
			a.Error = ""
			ds.availability[name] = a
			continue
		}
		a, ok := failures[name]
		if !ok {
			a = Availability{Error: "not loaded"}
		}
		a.Available = false
		ds.availability[name] = a
	}
	return ds
}

func (ds *DataStore) present(name TableName) bool {
	switch name {
	case TableCollab:
		return ds.Collab != nil
	case TableContent:
		return ds.Content != nil
	case TableNeural:
		return ds.Neural != nil
	case TableRatings:
		return ds.Ratings != nil
	case TableFeatures:
		return ds.Features != nil
	case TablePopularity:
		return ds.Popularity != nil
	default:
		return false
	}
}

// Prediction returns the named prediction table, or nil when unavailable.
func (ds *DataStore) Prediction(name TableName) *PredictionTable {
	switch name {
	case TableCollab:
		return ds.Collab
	case TableContent:
		return ds.Content
	case TableNeural:
		return ds.Neural
	case TableRatings:
		if ds.Ratings == nil {
			return nil
		}
		return ds.Ratings.PredictionTable
	default:
		return nil
	}
}

// Lookup returns the user's records from a prediction or rating table. An
// absent user or an unavailable table yields an empty result, never an error.
func (ds *DataStore) Lookup(name TableName, userID string) []Record {
	return ds.Prediction(name).Lookup(userID)
}

// HasUser reports whether the user appears in any prediction or rating table.
func (ds *DataStore) HasUser(userID string) bool {
	for _, name := range []TableName{TableCollab, TableContent, TableNeural, TableRatings} {
		if ds.Prediction(name).Has(userID) {
			return true
		}
	}
	return false
}

// Available reports whether the named table loaded.
func (ds *DataStore) Available(name TableName) bool {
	return ds.availability[name].Available
}

// Availability returns a copy of the per-table load outcomes.
func (ds *DataStore) Availability() map[TableName]Availability {
	out := make(map[TableName]Availability, len(ds.availability))
	for k, v := range ds.availability {
		out[k] = v
	}
	return out
}

// Status is StatusHealthy when every enabled table loaded and StatusDegraded otherwise.
func (ds *DataStore) Status() string {
	for _, a := range ds.availability {
		if !a.Available && !a.Disabled {
			return StatusDegraded
		}
	}
	return StatusHealthy
}

// loadedCount returns how many tables are available.
func (ds *DataStore) loadedCount() int {
	n := 0
	for _, a := range ds.availability {
		if a.Available {
			n++
		}
	}
	return n
}

// Holder publishes a DataStore to request handlers once loading completes.
// A nil Store means the service is still initializing.
type Holder struct {
	store atomic.Pointer[DataStore]
}

// NewHolder creates an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Publish makes the store visible to readers.
func (h *Holder) Publish(ds *DataStore) {
	h.store.Store(ds)
}

// Store returns the published store, or nil before Publish.
func (h *Holder) Store() *DataStore {
	return h.store.Load()
}

// Ready reports whether a store has been published.
func (h *Holder) Ready() bool {
	return h.store.Load() != nil
}

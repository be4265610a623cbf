// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"fmt"

	"github.com/tomtom215/marquee/internal/datastore"
)

// Source produces a user's candidate records from a published store.
// Lookups must honour ctx cancellation; an absent user is an empty result.
type Source interface {
	Name() string
	Lookup(ctx context.Context, ds *datastore.DataStore, userID string) ([]datastore.Record, error)
}

// tableSource reads one prediction table.
type tableSource struct {
	table datastore.TableName
}

// TableSource returns a Source reading the named prediction table.
func TableSource(table datastore.TableName) Source {
	return tableSource{table: table}
}

func (s tableSource) Name() string { return s.table.String() }

func (s tableSource) Lookup(ctx context.Context, ds *datastore.DataStore, userID string) ([]datastore.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ds.Available(s.table) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, s.table)
	}
	return ds.Lookup(s.table, userID), nil
}

// favouritesSource wraps a table source. When the table has no rows for a
// user who has ratings, it scores every unrated feature item by cosine
// similarity to the mean feature vector of the user's favourites.
type favouritesSource struct {
	Source
	threshold float64
}

func (s favouritesSource) Lookup(ctx context.Context, ds *datastore.DataStore, userID string) ([]datastore.Record, error) {
	records, err := s.Source.Lookup(ctx, ds, userID)
	if len(records) > 0 {
		return records, nil
	}
	if ds.Ratings == nil || ds.Features == nil || !ds.Ratings.Has(userID) {
		return records, err
	}

	fallback := favouriteScores(ds.Features, ds.Ratings, userID, s.threshold)
	if len(fallback) == 0 {
		return records, err
	}
	return fallback, nil
}

// favouriteScores scores unrated items against the user's favourites profile.
func favouriteScores(features *datastore.FeatureTable, ratings *datastore.RatingTable, userID string, threshold float64) []datastore.Record {
	profile := make([]float64, features.Dim())
	count := 0
	for _, item := range ratings.Favourites(userID, threshold) {
		vec, ok := features.Vector(item)
		if !ok {
			continue
		}
		for i, v := range vec {
			profile[i] += v
		}
		count++
	}
	if count == 0 {
		return nil
	}
	for i := range profile {
		profile[i] /= float64(count)
	}

	rated := ratings.Rated(userID)
	scored := make([]datastore.Record, 0, features.Len())
	features.Each(func(itemID string, vec []float64) bool {
		if _, seen := rated[itemID]; !seen {
			scored = append(scored, datastore.Record{ItemID: itemID, Score: cosineSimilarity(profile, vec)})
		}
		return true
	})
	return scored
}

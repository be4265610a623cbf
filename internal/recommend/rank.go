// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"sort"

	"github.com/tomtom215/marquee/internal/datastore"
)

// Rank returns the n highest-scoring records, descending. Equal scores keep
// their input order. The input slice is not modified.
func Rank(records []datastore.Record, n int) []datastore.Record {
	if n <= 0 || len(records) == 0 {
		return []datastore.Record{}
	}

	ranked := make([]datastore.Record, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

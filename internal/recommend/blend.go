// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/marquee/internal/datastore"
)

// BlendMode selects how source scores are combined.
type BlendMode string

const (
	// BlendScore sums raw scores times source weight.
	BlendScore BlendMode = "score"

	// BlendRankPosition scores the item at position i of a list of length L
	// as (1 - i/(L-1)) times the source weight.
	BlendRankPosition BlendMode = "rank_position"
)

// ParseBlendMode parses a configured blend mode. Empty means BlendScore.
func ParseBlendMode(s string) (BlendMode, error) {
	switch BlendMode(s) {
	case "", BlendScore:
		return BlendScore, nil
	case BlendRankPosition:
		return BlendRankPosition, nil
	default:
		return "", fmt.Errorf("unknown blend mode %q", s)
	}
}

// WeightedList is one ranked source list and its blend weight.
type WeightedList struct {
	Source  string
	Records []datastore.Record
	Weight  float64
}

// ValidateWeight checks that w is a usable blend weight in [0, 1].
func ValidateWeight(w float64) error {
	if math.IsNaN(w) || w < 0 || w > 1 {
		return invalid("weight", "must be between 0 and 1, got %v", w)
	}
	return nil
}

// Blend combines two ranked lists: items of a score weightA times their score,
// items of b score (1-weightA) times theirs, and items in both sum the terms.
// The top n items are returned, ties in order of first appearance.
func Blend(a []datastore.Record, weightA float64, b []datastore.Record, n int) ([]datastore.Record, error) {
	if err := ValidateWeight(weightA); err != nil {
		return nil, err
	}
	return BlendSources([]WeightedList{
		{Source: "a", Records: a, Weight: weightA},
		{Source: "b", Records: b, Weight: 1 - weightA},
	}, n), nil
}

// BlendSources is the N-source form of Blend using raw scores.
func BlendSources(lists []WeightedList, n int) []datastore.Record {
	blended, _ := blend(lists, BlendScore)
	return truncate(blended, n)
}

// BlendRankPositions blends by rank position instead of raw score.
func BlendRankPositions(lists []WeightedList, n int) []datastore.Record {
	blended, _ := blend(lists, BlendRankPosition)
	return truncate(blended, n)
}

// blend returns every item of lists, sorted descending by blended score, and
// the first source that contributed each item. Lists with zero weight are
// skipped. An item repeated inside one list counts once, at its first position.
func blend(lists []WeightedList, mode BlendMode) ([]datastore.Record, map[string]string) {
	scores := make(map[string]float64)
	origin := make(map[string]string)
	var order []string

	for _, list := range lists {
		if list.Weight == 0 || len(list.Records) == 0 {
			continue
		}
		seen := make(map[string]struct{}, len(list.Records))
		last := len(list.Records) - 1
		for i, rec := range list.Records {
			if _, dup := seen[rec.ItemID]; dup {
				continue
			}
			seen[rec.ItemID] = struct{}{}

			var term float64
			switch mode {
			case BlendRankPosition:
				position := 1.0
				if last > 0 {
					position = 1 - float64(i)/float64(last)
				}
				term = position * list.Weight
			default:
				term = rec.Score * list.Weight
			}

			if _, ok := scores[rec.ItemID]; !ok {
				order = append(order, rec.ItemID)
				origin[rec.ItemID] = list.Source
			}
			scores[rec.ItemID] += term
		}
	}

	blended := make([]datastore.Record, len(order))
	for i, id := range order {
		blended[i] = datastore.Record{ItemID: id, Score: scores[id]}
	}
	sort.SliceStable(blended, func(i, j int) bool {
		return blended[i].Score > blended[j].Score
	})
	return blended, origin
}

func truncate(records []datastore.Record, n int) []datastore.Record {
	if n <= 0 {
		return []datastore.Record{}
	}
	if len(records) > n {
		return records[:n]
	}
	return records
}

// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"math"
	"reflect"
	"testing"

	"github.com/tomtom215/marquee/internal/datastore"
)

func rec(item string, score float64) datastore.Record {
	return datastore.Record{ItemID: item, Score: score}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func recordsAlmostEqual(got, want []datastore.Record) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i].ItemID != want[i].ItemID || !almostEqual(got[i].Score, want[i].Score) {
			return false
		}
	}
	return true
}

// --- Test: Rank ---

func TestRank(t *testing.T) {
	t.Parallel()

	input := []datastore.Record{rec("9", 3.0), rec("7", 4.5), rec("5", 3.0), rec("2", 1.0)}

	tests := []struct {
		name string
		n    int
		want []datastore.Record
	}{
		{"top one", 1, []datastore.Record{rec("7", 4.5)}},
		{"ties keep input order", 3, []datastore.Record{rec("7", 4.5), rec("9", 3.0), rec("5", 3.0)}},
		{"n larger than input", 10, []datastore.Record{rec("7", 4.5), rec("9", 3.0), rec("5", 3.0), rec("2", 1.0)}},
		{"zero", 0, []datastore.Record{}},
		{"negative", -1, []datastore.Record{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Rank(input, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Rank(n=%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestRank_Properties(t *testing.T) {
	t.Parallel()

	input := []datastore.Record{rec("a", 0.1), rec("b", 2.5), rec("c", -1), rec("d", 2.5), rec("e", 9)}
	original := append([]datastore.Record(nil), input...)

	for n := 0; n <= len(input)+1; n++ {
		got := Rank(input, n)
		want := n
		if want > len(input) {
			want = len(input)
		}
		if len(got) != want {
			t.Errorf("len(Rank(n=%d)) = %d, want %d", n, len(got), want)
		}
		for i := 1; i < len(got); i++ {
			if got[i].Score > got[i-1].Score {
				t.Errorf("Rank(n=%d) not non-increasing at %d: %v", n, i, got)
			}
		}
	}

	if !reflect.DeepEqual(input, original) {
		t.Errorf("Rank modified its input: %v", input)
	}
}

func TestRank_Empty(t *testing.T) {
	t.Parallel()

	got := Rank(nil, 5)
	if got == nil || len(got) != 0 {
		t.Errorf("Rank(nil) = %#v, want empty non-nil slice", got)
	}
}

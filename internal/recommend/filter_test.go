// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"reflect"
	"testing"

	"github.com/tomtom215/marquee/internal/datastore"
)

// --- Test: Filter ---

func TestNewFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr    string
		wantErr bool
	}{
		{`score > 0.5`, false},
		{`source == "collab" && item_id != "7"`, false},
		{`!(item_id in ["1", "2"])`, false},
		{`score + 1.0`, true},
		{`rating > 3.0`, true},
		{`score > `, true},
		{`item_id > 0.5`, true},
	}

	for _, tt := range tests {
		_, err := NewFilter(tt.expr)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewFilter(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
		}
	}
}

func TestFilter_Apply(t *testing.T) {
	t.Parallel()

	records := []datastore.Record{rec("7", 3.1), rec("9", 1.8), rec("11", 1.56)}
	origin := map[string]string{"7": "collab", "9": "collab", "11": "content"}

	tests := []struct {
		expr string
		want []string
	}{
		{`score > 2.0`, []string{"7"}},
		{`source == "collab"`, []string{"7", "9"}},
		{`source != "collab" || score > 3.0`, []string{"7", "11"}},
		{`false`, []string{}},
	}

	for _, tt := range tests {
		f, err := NewFilter(tt.expr)
		if err != nil {
			t.Fatalf("NewFilter(%q) error = %v", tt.expr, err)
		}
		kept, err := f.Apply(records, origin)
		if err != nil {
			t.Fatalf("Apply(%q) error = %v", tt.expr, err)
		}
		got := make([]string, 0, len(kept))
		for _, r := range kept {
			got = append(got, r.ItemID)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Apply(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestFilter_NilKeepsEverything(t *testing.T) {
	t.Parallel()

	var f *Filter
	records := []datastore.Record{rec("1", 1)}
	got, err := f.Apply(records, nil)
	if err != nil || !reflect.DeepEqual(got, records) {
		t.Errorf("nil Filter.Apply = %v, %v; want input unchanged", got, err)
	}
}

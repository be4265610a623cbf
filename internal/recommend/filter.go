// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/tomtom215/marquee/internal/datastore"
)

// Filter is a compiled CEL predicate applied to blended items. The
// expression sees item_id (string), score (double) and source (string, the
// first source that produced the item), for example:
//
//	score > 0.5 && source != "neural"
//	!(item_id in ["1", "2"])
//
// A compiled Filter is safe for concurrent use.
type Filter struct {
	expr string
	prg  cel.Program
}

// NewFilter compiles expr. The expression must evaluate to a bool.
func NewFilter(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("item_id", cel.StringType),
		cel.Variable("score", cel.DoubleType),
		cel.Variable("source", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("filter environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("filter %q must return bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("filter program: %w", err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Keep reports whether the item passes the filter.
func (f *Filter) Keep(rec datastore.Record, source string) (bool, error) {
	out, _, err := f.prg.Eval(map[string]any{
		"item_id": rec.ItemID,
		"score":   rec.Score,
		"source":  source,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate filter: %w", err)
	}
	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter returned %T, want bool", out.Value())
	}
	return keep, nil
}

// Apply keeps the records that pass the filter, in order. A nil Filter keeps everything.
func (f *Filter) Apply(records []datastore.Record, origin map[string]string) ([]datastore.Record, error) {
	if f == nil {
		return records, nil
	}
	kept := make([]datastore.Record, 0, len(records))
	for _, rec := range records {
		ok, err := f.Keep(rec, origin[rec.ItemID])
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, rec)
		}
	}
	return kept, nil
}

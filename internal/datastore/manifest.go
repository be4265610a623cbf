// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package datastore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is looked up in the table directory when no manifest path is configured.
const ManifestFileName = "tables.yaml"

// TableSpec overrides how one table is located and read. Empty fields fall
// back to the configured file name and the built-in column candidates.
type TableSpec struct {
	File           string   `yaml:"file"`
	UserColumn     string   `yaml:"user_column"`
	ItemColumn     string   `yaml:"item_column"`
	ScoreColumn    string   `yaml:"score_column"`
	GenresColumn   string   `yaml:"genres_column"`
	FeatureColumns []string `yaml:"feature_columns"`
	OrderColumn    string   `yaml:"order_column"`
	Disabled       bool     `yaml:"disabled"`
}

// Manifest describes the table directory layout.
//
//	tables:
//	  collab:
//	    file: svd_predictions.parquet
//	    item_column: movieId
//	    score_column: estimated_rating
//	  neural:
//	    disabled: true
type Manifest struct {
	Tables map[TableName]TableSpec `yaml:"tables"`
}

// LoadManifest reads a manifest. A missing file at the default location is
// not an error; an explicitly configured manifest must exist.
func LoadManifest(path string, explicit bool) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return &Manifest{Tables: map[TableName]TableSpec{}}, nil
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Tables == nil {
		m.Tables = map[TableName]TableSpec{}
	}
	for name := range m.Tables {
		if _, err := ParseTableName(string(name)); err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
	}
	return &m, nil
}

// Spec returns the override for a table, or the zero spec.
func (m *Manifest) Spec(name TableName) TableSpec {
	if m == nil {
		return TableSpec{}
	}
	return m.Tables[name]
}

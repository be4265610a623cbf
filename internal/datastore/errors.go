// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package datastore

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNoTablesLoaded is returned when degraded mode ends with zero usable tables.
	ErrNoTablesLoaded = errors.New("no tables loaded")

	// ErrMissingColumn is returned when a table lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrTableNotFound is returned when a table file does not exist.
	ErrTableNotFound = errors.New("table file not found")
)

// LoadError reports a table that failed to load at startup.
type LoadError struct {
	Table TableName
	Path  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load table %s from %s: %v", e.Table, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// closeQuietly closes a resource in cleanup paths where the error is not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

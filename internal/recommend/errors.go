// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotReady is returned by every operation before the store is published.
	ErrNotReady = errors.New("recommendation data not loaded yet")

	// ErrUnavailable is returned when a table an operation depends on did not load.
	ErrUnavailable = errors.New("required table unavailable")

	// ErrUserNotFound is returned by Predict for users absent from every table.
	ErrUserNotFound = errors.New("user not found")

	// ErrItemNotFound is returned by SimilarItems for items without features.
	ErrItemNotFound = errors.New("item not found")

	// ErrColdStartThrottled is returned when the fit limiter cannot admit a
	// cold-start fit before the request deadline.
	ErrColdStartThrottled = errors.New("cold start fits are rate limited")
)

// ValidationError reports invalid caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UpstreamTimeoutError reports a source lookup that exceeded its budget.
type UpstreamTimeoutError struct {
	Source string
	Budget time.Duration
}

func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("source %s exceeded %s budget", e.Source, e.Budget)
}

// InternalError wraps an unexpected fault. Its message is not shown to callers.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

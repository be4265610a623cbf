// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/marquee/internal/recommend"
)

// Error codes used in the error envelope.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeUpstreamTimeout    = "UPSTREAM_TIMEOUT"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
)

// APIError is the body of the "error" member of the envelope.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// classifyError maps a serving error to an HTTP status and envelope error.
// Internal faults get a generic message; the caller logs the original.
func classifyError(err error) (int, *APIError) {
	var verr *recommend.ValidationError
	var terr *recommend.UpstreamTimeoutError

	switch {
	case errors.As(err, &verr):
		details := map[string]any{}
		if verr.Field != "" {
			details["field"] = verr.Field
		}
		return http.StatusBadRequest, &APIError{Code: ErrCodeValidation, Message: verr.Error(), Details: details}

	case errors.Is(err, recommend.ErrUserNotFound), errors.Is(err, recommend.ErrItemNotFound):
		return http.StatusNotFound, &APIError{Code: ErrCodeNotFound, Message: err.Error()}

	case errors.Is(err, recommend.ErrNotReady):
		return http.StatusServiceUnavailable, &APIError{
			Code:    ErrCodeServiceUnavailable,
			Message: "Recommendation data is still loading",
		}

	case errors.Is(err, recommend.ErrUnavailable):
		return http.StatusServiceUnavailable, &APIError{Code: ErrCodeServiceUnavailable, Message: err.Error()}

	case errors.Is(err, recommend.ErrColdStartThrottled):
		return http.StatusTooManyRequests, &APIError{
			Code:    ErrCodeRateLimitExceeded,
			Message: "Cold-start capacity exhausted, retry later",
		}

	case errors.As(err, &terr):
		return http.StatusGatewayTimeout, &APIError{
			Code:    ErrCodeUpstreamTimeout,
			Message: terr.Error(),
			Details: map[string]any{"source": terr.Source, "budget_ms": terr.Budget.Milliseconds()},
		}

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, &APIError{Code: ErrCodeUpstreamTimeout, Message: "Request deadline exceeded"}

	default:
		return http.StatusInternalServerError, &APIError{Code: ErrCodeInternal, Message: "Internal server error"}
	}
}

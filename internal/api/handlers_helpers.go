// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/validation"
)

// validateRequest validates v and returns the VALIDATION_ERROR envelope content on failure.
func validateRequest(v any) *APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}
	apiErr := verr.ToAPIError()
	return &APIError{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details}
}

func badRequest(field, message string) *APIError {
	return &APIError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("%s: %s", field, message),
		Details: map[string]any{"field": field},
	}
}

// intParam parses an optional integer query parameter. Absent means def.
func intParam(r *http.Request, key string, def int) (int, *APIError) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(key, "must be an integer")
	}
	return v, nil
}

// optionalIntParam parses an optional integer query parameter. Absent means
// nil, so an explicit zero stays distinguishable from a missing value.
func optionalIntParam(r *http.Request, key string) (*int, *APIError) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, badRequest(key, "must be an integer")
	}
	return &v, nil
}

// int64Param parses an optional int64 query parameter. Absent means nil.
func int64Param(r *http.Request, key string) (*int64, *APIError) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, badRequest(key, "must be an integer")
	}
	return &v, nil
}

// floatParam parses an optional finite float query parameter. Absent means nil.
func floatParam(r *http.Request, key string) (*float64, *APIError) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, badRequest(key, "must be a number")
	}
	return &v, nil
}

// parseCommaSeparated splits a comma-separated list, dropping blank entries.
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// decodeJSONBody decodes a size-limited JSON body into dst, rejecting unknown fields.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) *APIError {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return &APIError{Code: ErrCodeValidation, Message: "request body is required"}
		case errors.As(err, &maxErr):
			return &APIError{Code: ErrCodeValidation, Message: fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes)}
		default:
			return &APIError{Code: ErrCodeValidation, Message: "invalid JSON body: " + err.Error()}
		}
	}
	return nil
}

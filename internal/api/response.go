// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/logging"
)

// errorEnvelope is the body of every non-2xx response.
type errorEnvelope struct {
	Error     *APIError `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// respondJSON writes v as JSON with the given status.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		status = http.StatusInternalServerError
		data = []byte(`{"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError writes the error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, apiErr *APIError) {
	respondJSON(w, r, status, errorEnvelope{
		Error:     apiErr,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

// respondServingError classifies err, logs it at a level matching its
// severity, and writes the envelope.
func respondServingError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, apiErr := classifyError(err)

	logger := logging.Ctx(r.Context())
	event := logger.Debug()
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable:
		event = logger.Error()
	case status == http.StatusServiceUnavailable, status == http.StatusTooManyRequests:
		event = logger.Warn()
	}
	event.Str("op", op).
		Int("status", status).
		Str("code", apiErr.Code).
		Str("error", sanitizeLogValue(err.Error())).
		Msg("Request failed")

	respondError(w, r, status, apiErr)
}

// sanitizeLogValue escapes control characters so caller-supplied text
// cannot forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

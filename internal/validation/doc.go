// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package validation validates API request structs with go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and is safe for concurrent use. Failed rules are reported with the
// field's JSON name so messages match the request the caller sent:
//
//	type ColdStartRequest struct {
//	    Items []string `json:"items" validate:"required,min=1,max=500,dive,required,max=64,printable"`
//	    N     *int     `json:"n" validate:"omitempty,gt=0,lte=1000"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError() // Code "VALIDATION_ERROR"
//	    ...
//	}
//
// The custom "printable" tag rejects strings containing control characters.
package validation

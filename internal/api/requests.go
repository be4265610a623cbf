// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/datastore"
)

const (
	maxBodyBytes  = 64 << 10
	maxLikedItems = 500
)

// RecommendationQuery is the query string of GET /api/v1/recommendations/{user_id}.
type RecommendationQuery struct {
	UserID string   `query:"user_id" validate:"required,max=64,printable"`
	N      *int     `query:"n" validate:"omitempty,gt=0"`
	Weight *float64 `query:"weight" validate:"omitempty,gte=0,lte=1"`
	Liked  []string `query:"liked" validate:"max=500,dive,required,max=64,printable"`
}

// ColdStartRequest is the body of POST /api/v1/cold-start/recommendations.
type ColdStartRequest struct {
	Items IDList `json:"items" validate:"required,min=1,max=500,dive,required,max=64,printable"`
	N     *int   `json:"n" validate:"omitempty,gt=0"`
}

// ColdStartItemsQuery is the query string of GET /api/v1/cold-start/items.
type ColdStartItemsQuery struct {
	N    int    `query:"n" validate:"gt=0"`
	Seed *int64 `query:"seed"`
}

// SimilarItemsQuery is the query string of GET /api/v1/items/{item_id}/similar.
type SimilarItemsQuery struct {
	ItemID string `query:"item_id" validate:"required,max=64,printable"`
	N      *int   `query:"n" validate:"omitempty,gt=0"`
}

// PredictRequest is the body of the legacy POST /predict.
type PredictRequest struct {
	UserID IDValue `json:"user_id" validate:"required,max=64,printable"`
}

// ColdStartItemsResponse lists onboarding candidates.
type ColdStartItemsResponse struct {
	Items []ItemRef `json:"items"`
	Seed  int64     `json:"seed"`
}

// ItemRef identifies an item without a score.
type ItemRef struct {
	ItemID string `json:"item_id"`
}

// SimilarItemsResponse lists the nearest items by feature similarity.
type SimilarItemsResponse struct {
	ItemID  string             `json:"item_id"`
	Similar []datastore.Record `json:"similar"`
}

// PredictResponse is the legacy /predict payload.
type PredictResponse struct {
	UserID          string             `json:"user_id"`
	Recommendations []datastore.Record `json:"recommendations"`
}

// IDValue is an identifier that clients may send as a JSON string or number.
// It decodes to the canonical string form, so 42, 42.0 and "42" are equal.
type IDValue string

// UnmarshalJSON accepts strings, integers and integral floats.
func (v *IDValue) UnmarshalJSON(data []byte) error {
	id, err := decodeID(data)
	if err != nil {
		return err
	}
	*v = IDValue(id)
	return nil
}

// IDList is a list of IDValue.
type IDList []IDValue

// Strings returns the identifiers as plain strings.
func (l IDList) Strings() []string {
	out := make([]string, len(l))
	for i, v := range l {
		out[i] = string(v)
	}
	return out
}

func decodeID(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		// Blank strings stay blank so the required rule reports them.
		id, err := datastore.CanonicalString(s)
		if err != nil {
			return "", nil
		}
		return id, nil
	}
	if i, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		return datastore.CanonicalID(i)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return "", fmt.Errorf("identifier must be a string or number, got %s", data)
	}
	return datastore.CanonicalID(f)
}

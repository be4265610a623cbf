// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package datastore

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ErrInvalidID is returned for identifiers that cannot be canonicalized.
var ErrInvalidID = errors.New("invalid identifier")

// CanonicalID converts a user or item identifier read from a table into its
// canonical string form. Integers and integral floats render as plain decimal
// text ("42", never "42.0"), strings are trimmed, so a user stored as BIGINT in
// one table and VARCHAR in another resolves to the same key.
func CanonicalID(v any) (string, error) {
	switch id := v.(type) {
	case nil:
		return "", fmt.Errorf("%w: null", ErrInvalidID)
	case string:
		return CanonicalString(id)
	case []byte:
		return CanonicalString(string(id))
	case int:
		return strconv.FormatInt(int64(id), 10), nil
	case int8:
		return strconv.FormatInt(int64(id), 10), nil
	case int16:
		return strconv.FormatInt(int64(id), 10), nil
	case int32:
		return strconv.FormatInt(int64(id), 10), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	case uint:
		return strconv.FormatUint(uint64(id), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(id), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(id), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(id), 10), nil
	case uint64:
		return strconv.FormatUint(id, 10), nil
	case float32:
		return canonicalFloat(float64(id))
	case float64:
		return canonicalFloat(id)
	case *big.Int:
		if id == nil {
			return "", fmt.Errorf("%w: null", ErrInvalidID)
		}
		return id.String(), nil
	case fmt.Stringer:
		return CanonicalString(id.String())
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidID, v)
	}
}

// CanonicalString canonicalizes an identifier supplied as text, for example a
// path parameter. "42.0" and " 42 " both become "42".
func CanonicalString(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if dot := strings.IndexByte(s, '.'); dot > 0 && isDigits(strings.TrimPrefix(s[:dot], "-")) && strings.Trim(s[dot+1:], "0") == "" {
		return s[:dot], nil
	}
	return s, nil
}

func canonicalFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: non-finite number", ErrInvalidID)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10), nil
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

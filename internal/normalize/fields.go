// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps raw API records onto the fixed Game and Review
// schemas. Missing, null, or malformed values resolve to documented defaults
// here and never reach the caller as errors.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/steam-harvest/pkg/types"
)

// SafeInt converts a raw JSON value to a non-negative integer.
//
// Absent, null, non-numeric, boolean, object, and array values yield 0.
// Numbers and numeric strings ("42", " 42 ", "42.9") are truncated toward
// zero; negative results clamp to 0.
func SafeInt(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		text = strings.TrimSpace(s)
	}
	n, ok := parseInt(text)
	if !ok || n < 0 {
		return 0
	}
	return n
}

func parseInt(s string) (int64, bool) {
	if s == "" || s == "null" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// intField returns the safe integer value of key; absent and null are 0.
func intField(rec types.RawRecord, key string) int64 {
	v, _ := rec.Lookup(key)
	return SafeInt(v)
}

// stringField returns the string value of key. Absent and null yield "".
// Numbers, booleans, and nested values are kept in their JSON text form.
// A value that claims to be a string but does not decode is an error.
func stringField(rec types.RawRecord, key string) (string, error) {
	v, state := rec.Lookup(key)
	if state != types.FieldPresent {
		return "", nil
	}
	if v[0] != '"' {
		return string(v), nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("field %q: %w", key, err)
	}
	return s, nil
}

// boolField returns the boolean value of key. Absent, null, and
// unrecognized values are false; numbers are true when non-zero.
func boolField(rec types.RawRecord, key string) bool {
	v, state := rec.Lookup(key)
	if state != types.FieldPresent {
		return false
	}
	switch string(v) {
	case "true", `"true"`:
		return true
	case "false", `"false"`:
		return false
	}
	return SafeInt(v) != 0
}

// objectField decodes key as a nested object. Anything other than a JSON
// object yields nil.
func objectField(rec types.RawRecord, key string) types.RawRecord {
	v, state := rec.Lookup(key)
	if state != types.FieldPresent || v[0] != '{' {
		return nil
	}
	var obj types.RawRecord
	if err := json.Unmarshal(v, &obj); err != nil {
		return nil
	}
	return obj
}

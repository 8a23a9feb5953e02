// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the steam-harvest pipeline:
// raw API records, normalized games and reviews, crawl progress, run
// manifests, and configuration.
package types

import (
	"bytes"
	"encoding/json"
)

// FieldState distinguishes the three ways a key can appear in a raw record.
type FieldState int

const (
	// FieldAbsent means the key is not in the record.
	FieldAbsent FieldState = iota
	// FieldNull means the key is present with a JSON null value.
	FieldNull
	// FieldPresent means the key is present with a non-null value.
	FieldPresent
)

// String returns a short label used in log output.
func (s FieldState) String() string {
	switch s {
	case FieldNull:
		return "null"
	case FieldPresent:
		return "present"
	default:
		return "absent"
	}
}

// RawRecord is one entity exactly as the upstream API returned it. Values
// stay undecoded until the normalizer asks for them, so a field's shape can
// change between API releases without breaking the crawl or the progress
// file.
type RawRecord map[string]json.RawMessage

// Lookup returns the raw value for key and reports whether it was absent,
// null, or present. A nil record reports every key as absent.
func (r RawRecord) Lookup(key string) (json.RawMessage, FieldState) {
	v, ok := r[key]
	if !ok {
		return nil, FieldAbsent
	}
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, FieldNull
	}
	return trimmed, FieldPresent
}

// Keys returns the record's keys in no particular order.
func (r RawRecord) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	return keys
}

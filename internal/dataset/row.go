// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset stores normalized records as CSV files and merges new
// records into an existing dataset without duplicating keys.
package dataset

import "github.com/pdiddy/steam-harvest/pkg/types"

// Row is an ordered set of named string fields, one CSV record.
type Row struct {
	fields []string
	values map[string]string
}

// NewRow builds a row from parallel field and value slices. Missing values
// are empty; a repeated field keeps its first position and last value.
func NewRow(fields, values []string) Row {
	r := Row{values: make(map[string]string, len(fields))}
	for i, f := range fields {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		r.Set(f, v)
	}
	return r
}

// Set assigns a field, appending it to the field order if new.
func (r *Row) Set(field, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.values[field] = value
}

// Get returns a field's value and whether the row has the field.
func (r Row) Get(field string) (string, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Fields returns the field names in insertion order.
func (r Row) Fields() []string {
	return append([]string(nil), r.fields...)
}

// Values projects the row onto columns; fields the row lacks are empty.
func (r Row) Values(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = r.values[c]
	}
	return out
}

// Len returns the number of fields.
func (r Row) Len() int { return len(r.fields) }

// GameRows converts normalized games to rows in GameFields order.
func GameRows(games []types.Game) []Row {
	rows := make([]Row, len(games))
	for i, g := range games {
		rows[i] = NewRow(types.GameFields, g.Values())
	}
	return rows
}

// ReviewRows converts normalized reviews to rows in ReviewFields order.
func ReviewRows(reviews []types.Review) []Row {
	rows := make([]Row, len(reviews))
	for i, r := range reviews {
		rows[i] = NewRow(types.ReviewFields, r.Values())
	}
	return rows
}

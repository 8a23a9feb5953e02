// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strconv"
	"strings"
)

// ownersSeparator splits SteamSpy's owner range, e.g. "20,000 .. 50,000".
const ownersSeparator = " .. "

// OwnerRange is a parsed owner-count range.
type OwnerRange struct {
	Min      int64
	Max      int64
	Estimate int64 // (Min + Max) / 2, floor
}

// ParseOwners parses "<min> .. <max>" with optional comma grouping. It
// reports false for any other input and returns the zero range with it.
func ParseOwners(s string) (OwnerRange, bool) {
	parts := strings.Split(strings.ReplaceAll(s, ",", ""), ownersSeparator)
	if len(parts) != 2 {
		return OwnerRange{}, false
	}
	lo, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || lo < 0 {
		return OwnerRange{}, false
	}
	hi, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil || hi < 0 {
		return OwnerRange{}, false
	}
	return OwnerRange{Min: lo, Max: hi, Estimate: midpoint(lo, hi)}, true
}

// midpoint is floor((a+b)/2) for non-negative a and b without overflowing.
func midpoint(a, b int64) int64 {
	return a/2 + b/2 + (a%2+b%2)/2
}

// OwnersOrZero returns the parsed range, or the zero range when s does not parse.
func OwnersOrZero(s string) OwnerRange {
	r, _ := ParseOwners(s)
	return r
}

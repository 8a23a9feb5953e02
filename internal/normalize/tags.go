// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/steam-harvest/pkg/types"
)

const tagPrefix = "tags"

// Tags collects a record's tag votes into a JSON object string.
//
// appdetails responses carry a nested "tags" object; older exports flatten
// it into keys such as "tagsAction". Both forms are merged, flattened keys
// winning on conflict. A record without tags yields "{}". Keys are sorted,
// so equal tag sets always serialize identically.
func Tags(rec types.RawRecord) (string, error) {
	tags := make(map[string]json.RawMessage)

	for name, v := range objectField(rec, tagPrefix) {
		tags[name] = v
	}
	for key, v := range rec {
		name, ok := strings.CutPrefix(key, tagPrefix)
		if !ok || name == "" {
			continue
		}
		tags[name] = v
	}

	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(data), nil
}

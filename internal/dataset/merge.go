// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"fmt"
	"path/filepath"
	"time"
)

// TimestampLayout is the date-time token embedded in dated file names.
const TimestampLayout = "20060102_150405"

// Dedupe keeps the first row for each value of keyField and returns the
// kept rows in their original order plus the number removed. Rows without
// the key field are all kept.
func Dedupe(rows []Row, keyField string) ([]Row, int) {
	seen := make(map[string]struct{}, len(rows))
	deduped := make([]Row, 0, len(rows))
	removed := 0

	for _, r := range rows {
		key, ok := r.Get(keyField)
		if ok {
			if _, dup := seen[key]; dup {
				removed++
				continue
			}
			seen[key] = struct{}{}
		}
		deduped = append(deduped, r)
	}
	return deduped, removed
}

// MergeAndSave merges newRows into the dataset at path and writes the
// result back. Existing rows come first, so when a key appears in both the
// stored row wins and the fresh one is dropped. When there is nothing to
// write, neither existing nor new rows, the file is left alone and nil is
// returned.
func MergeAndSave(newRows []Row, path, keyField string) ([]Row, error) {
	existing, err := Read(path)
	if err != nil {
		return nil, fmt.Errorf("loading existing dataset: %w", err)
	}

	combined := make([]Row, 0, len(existing)+len(newRows))
	combined = append(combined, existing...)
	combined = append(combined, newRows...)
	if len(combined) == 0 {
		return nil, nil
	}

	merged, _ := Dedupe(combined, keyField)
	if err := Write(path, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// SnapshotName returns "<prefix>_YYYYMMDD_HHMMSS.csv" for t.
func SnapshotName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, t.Format(TimestampLayout))
}

// SaveSnapshot writes rows to a dated file in dir and returns its path.
// No rows means no file and an empty path.
func SaveSnapshot(dir, prefix string, rows []Row, now time.Time) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	path := filepath.Join(dir, SnapshotName(prefix, now))
	if err := Write(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

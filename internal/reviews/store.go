// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reviews

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/steam-harvest/internal/dataset"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

// CleanName turns a game name into a file-name fragment: every rune that is
// not a letter or digit becomes '_'. An empty name becomes "App<appid>".
func CleanName(appid, name string) string {
	if name == "" {
		name = "App" + appid
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, name)
}

// EntityDir returns the per-game directory name, "<appid>_<clean name>".
func EntityDir(appid, name string) string {
	return appid + "_" + CleanName(appid, name)
}

// Save writes reviews to
// <dataDir>/<appid>_<clean>/<appid>_<clean>_reviews_YYYYMMDD_HHMMSS.csv and
// returns the path. Reviews repeated across pages are written once. No
// reviews means no file and an empty path.
func Save(dataDir, appid, name string, reviews []types.Review, now time.Time) (string, error) {
	if len(reviews) == 0 {
		return "", nil
	}
	entity := EntityDir(appid, name)
	rows, _ := dataset.Dedupe(dataset.ReviewRows(reviews), "recommendationid")

	path := filepath.Join(dataDir, entity, dataset.SnapshotName(entity+"_reviews", now))
	if err := dataset.WriteColumns(path, types.ReviewFields, rows); err != nil {
		return "", fmt.Errorf("saving reviews for %s: %w", appid, err)
	}
	return path, nil
}

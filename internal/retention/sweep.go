// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retention deletes dated data files older than a retention window
// and removes per-game directories left empty.
package retention

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/steam-harvest/internal/dataset"
	"github.com/pdiddy/steam-harvest/internal/metrics"
)

// DefaultPatterns match the dated game snapshots at the top of the data
// directory.
var DefaultPatterns = []string{"steam_games_*.csv", "steam_game_*.csv"}

// ErrInvalidYears is returned when the retention window is not positive.
var ErrInvalidYears = errors.New("retention years must be at least 1")

// Result counts what one sweep did.
type Result struct {
	FilesDeleted int
	FilesKept    int
	FilesSkipped int
	DirsRemoved  int
	Errors       int

	// Expired lists the files past the cutoff, deleted or not.
	Expired []string
}

// Sweeper applies the retention window to one data directory.
type Sweeper struct {
	Root  string
	Years int

	// Patterns select top-level files; nil uses DefaultPatterns.
	Patterns []string

	// DryRun reports expired files without deleting anything.
	DryRun bool

	Now    func() time.Time
	Logger *slog.Logger

	remove func(string) error
}

// NewSweeper returns a Sweeper for root keeping years of data.
func NewSweeper(root string, years int, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{Root: root, Years: years, Now: time.Now, Logger: logger}
}

// ParseTimestamp reads the YYYYMMDD_HHMMSS suffix of a file name, taken
// from the last two '_'-separated tokens of the name without its extension.
func ParseTimestamp(name string, loc *time.Location) (time.Time, bool) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) < 2 {
		return time.Time{}, false
	}
	stamp := parts[len(parts)-2] + "_" + parts[len(parts)-1]
	t, err := time.ParseInLocation(dataset.TimestampLayout, stamp, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Cutoff returns the oldest timestamp kept, years*365 days before now.
func Cutoff(now time.Time, years int) time.Time {
	return now.AddDate(0, 0, -365*years)
}

// Sweep deletes top-level files matching Patterns and CSV files inside
// entity directories (directories whose name contains '_') whose embedded
// timestamp is before the cutoff, then removes entity directories that are
// empty. Files without a readable timestamp are kept. Individual failures
// are logged and counted; only a missing or unreadable root, or an invalid
// window, returns an error.
func (s *Sweeper) Sweep() (Result, error) {
	var res Result
	if s.Years <= 0 {
		return res, ErrInvalidYears
	}
	log := s.logger()

	now := s.now()
	cutoff := Cutoff(now, s.Years)
	log.Info("sweeping old data", "root", s.Root, "years", s.Years, "cutoff", cutoff.Format(time.RFC3339))

	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, nil
		}
		return res, fmt.Errorf("reading data directory: %w", err)
	}

	for _, e := range entries {
		path := filepath.Join(s.Root, e.Name())
		switch {
		case e.IsDir() && strings.Contains(e.Name(), "_"):
			s.sweepEntity(path, cutoff, now.Location(), &res)
		case !e.IsDir() && s.matches(e.Name()):
			s.sweepFile(path, cutoff, now.Location(), &res)
		}
	}

	log.Info("sweep finished",
		"deleted", res.FilesDeleted,
		"kept", res.FilesKept,
		"skipped", res.FilesSkipped,
		"dirs_removed", res.DirsRemoved,
		"errors", res.Errors)
	return res, nil
}

func (s *Sweeper) sweepEntity(dir string, cutoff time.Time, loc *time.Location, res *Result) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger().Error("reading entity directory", "dir", dir, "error", err)
		res.Errors++
		return
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".csv" {
			continue
		}
		s.sweepFile(filepath.Join(dir, e.Name()), cutoff, loc, res)
	}

	left, err := os.ReadDir(dir)
	if err != nil {
		s.logger().Error("reading entity directory", "dir", dir, "error", err)
		res.Errors++
		return
	}
	if len(left) > 0 || s.DryRun {
		return
	}
	if err := s.removeFn()(dir); err != nil {
		s.logger().Error("removing empty directory", "dir", dir, "error", err)
		res.Errors++
		return
	}
	metrics.RetentionDeleted.WithLabelValues("dir").Inc()
	s.logger().Info("removed empty directory", "dir", dir)
	res.DirsRemoved++
}

func (s *Sweeper) sweepFile(path string, cutoff time.Time, loc *time.Location, res *Result) {
	ts, ok := ParseTimestamp(path, loc)
	if !ok {
		s.logger().Warn("no timestamp in file name, keeping", "file", path)
		res.FilesSkipped++
		return
	}
	if !ts.Before(cutoff) {
		res.FilesKept++
		return
	}
	res.Expired = append(res.Expired, path)
	if s.DryRun {
		s.logger().Info("would remove old file", "file", path)
		return
	}
	if err := s.removeFn()(path); err != nil {
		s.logger().Error("removing old file", "file", path, "error", err)
		res.Errors++
		return
	}
	metrics.RetentionDeleted.WithLabelValues("file").Inc()
	s.logger().Info("removed old file", "file", path)
	res.FilesDeleted++
}

func (s *Sweeper) matches(name string) bool {
	patterns := s.Patterns
	if patterns == nil {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

func (s *Sweeper) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Sweeper) removeFn() func(string) error {
	if s.remove == nil {
		return os.Remove
	}
	return s.remove
}

func (s *Sweeper) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

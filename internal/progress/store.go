// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress persists the state of a paginated crawl so an
// interrupted run resumes at the next page instead of starting over.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdiddy/steam-harvest/pkg/types"
)

// DefaultFile is the progress file name inside the data directory.
const DefaultFile = "progress.json"

// Store reads and writes one CrawlProgress file.
type Store struct {
	Path   string
	Logger *slog.Logger
}

// NewStore returns a Store for path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{Path: path, Logger: logger}
}

// Load returns the saved progress. A missing, unreadable, or corrupt file
// yields a fresh CrawlProgress; corruption is logged, never returned.
func (s *Store) Load() types.CrawlProgress {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger().Warn("progress file unreadable, starting fresh", "path", s.Path, "error", err)
		}
		return types.NewCrawlProgress()
	}

	var p types.CrawlProgress
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger().Warn("progress file corrupt, starting fresh", "path", s.Path, "error", err)
		return types.NewCrawlProgress()
	}
	if p.LastPage < types.NoPageCompleted {
		s.logger().Warn("progress file has invalid last_page, starting fresh", "path", s.Path, "last_page", p.LastPage)
		return types.NewCrawlProgress()
	}
	if p.Games == nil {
		p.Games = make(map[string]types.RawRecord)
	}
	return p
}

// Save replaces the progress file with p. The full state is written to a
// temporary file in the same directory and renamed over the target, so a
// crash leaves either the old or the new state on disk.
func (s *Store) Save(p types.CrawlProgress) error {
	if p.Games == nil {
		p.Games = make(map[string]types.RawRecord)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	return writeFileAtomic(s.Path, data)
}

// Clear removes the progress file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing progress file: %w", err)
	}
	return nil
}

func (s *Store) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".progress-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing progress: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

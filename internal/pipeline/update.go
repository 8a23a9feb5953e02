// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one scheduled update: fetch games, merge them into
// the games dataset, collect recent reviews, sweep expired files, and record
// what happened in a run manifest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/pdiddy/steam-harvest/internal/dataset"
	"github.com/pdiddy/steam-harvest/internal/metrics"
	"github.com/pdiddy/steam-harvest/internal/normalize"
	"github.com/pdiddy/steam-harvest/internal/progress"
	"github.com/pdiddy/steam-harvest/internal/retention"
	"github.com/pdiddy/steam-harvest/internal/reviews"
	"github.com/pdiddy/steam-harvest/internal/steamspy"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

// Game fetch modes.
const (
	ModeAll = "all"
	ModeTop = "top"
)

const (
	// DatasetFile is the canonical games dataset inside the data directory.
	DatasetFile = "games.csv"

	// SnapshotPrefix names the dated per-run games snapshots.
	SnapshotPrefix = "steam_games"

	// KeyField is the dataset key column.
	KeyField = "appid"
)

// ErrUnknownMode is returned for a mode other than ModeAll or ModeTop.
var ErrUnknownMode = errors.New("unknown update mode")

// Options select what one run does.
type Options struct {
	// Mode is ModeAll (resumable crawl) or ModeTop (top games by CCU).
	Mode string

	// TopCount is the number of games fetched in ModeTop.
	TopCount int

	// ReviewLimit caps review collection to the games with the most
	// concurrent users; 0 collects reviews for every fetched game.
	ReviewLimit int

	SkipReviews bool
	SkipSweep   bool
}

// Updater wires the fetchers, stores, and sweeper for one data directory.
type Updater struct {
	Config     *types.Config
	SteamSpy   *steamspy.Client
	Crawler    *steamspy.Crawler
	Normalizer *normalize.Normalizer
	Collector  *reviews.Collector
	Sweeper    *retention.Sweeper

	Now      func() time.Time
	NewRunID func() string
	Logger   *slog.Logger
}

// New builds an Updater from configuration.
func New(cfg *types.Config, httpClient *http.Client, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	spy := steamspy.NewClient(httpClient, cfg, logger)
	store := progress.NewStore(filepath.Join(cfg.DataDir, progress.DefaultFile), logger)
	crawler := steamspy.NewCrawler(spy, store, cfg.SteamSpy.PageDelay, logger)
	crawler.MaxPages = cfg.SteamSpy.MaxPages

	norm := normalize.New(cfg.SteamSpy.SkipAppID, logger)

	return &Updater{
		Config:     cfg,
		SteamSpy:   spy,
		Crawler:    crawler,
		Normalizer: norm,
		Collector:  reviews.NewCollector(reviews.NewClient(httpClient, cfg, logger), norm, cfg, logger),
		Sweeper:    retention.NewSweeper(cfg.DataDir, cfg.Retention.Years, logger),
		Now:        time.Now,
		NewRunID:   uuid.NewString,
		Logger:     logger,
	}
}

// DatasetPath returns the path of the games dataset.
func (u *Updater) DatasetPath() string {
	return filepath.Join(u.Config.DataDir, DatasetFile)
}

// ManifestPath returns the path of the run manifest.
func (u *Updater) ManifestPath() string {
	return filepath.Join(u.Config.DataDir, ManifestFile)
}

// Run performs one update. A failure to fetch games is logged and the run
// continues without reviews; per-game review failures and sweep failures
// are logged and counted. Only a failure to write the dataset or the
// manifest, an unknown mode, or cancellation returns an error. The manifest
// is returned in every case.
func (u *Updater) Run(ctx context.Context, opts Options) (types.RunManifest, error) {
	log := u.logger()
	if opts.Mode != ModeAll && opts.Mode != ModeTop {
		return types.RunManifest{}, fmt.Errorf("%w: %q", ErrUnknownMode, opts.Mode)
	}

	m := types.RunManifest{
		RunID:     u.NewRunID(),
		Mode:      opts.Mode,
		StartedAt: u.Now(),
	}
	log.Info("starting update", "mode", opts.Mode, "run_id", m.RunID)

	games, err := u.UpdateGames(ctx, opts, &m)
	if err != nil {
		return m, err
	}
	if len(games) == 0 {
		log.Warn("no games fetched, skipping reviews")
	}

	if !opts.SkipReviews && len(games) > 0 {
		if err := u.CollectReviews(ctx, selectForReviews(games, opts.ReviewLimit), &m); err != nil {
			return m, err
		}
	}

	if !opts.SkipSweep {
		res, err := u.Sweeper.Sweep()
		if err != nil {
			log.Error("sweeping old data", "stage", "sweep", "error", err)
		}
		m.FilesDeleted = res.FilesDeleted
		m.DirsRemoved = res.DirsRemoved
		m.SweepErrors = res.Errors
	}

	m.FinishedAt = u.Now()
	if err := WriteManifest(u.ManifestPath(), m); err != nil {
		return m, err
	}
	metrics.MarkSuccess(m.FinishedAt)
	if path := u.Config.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			log.Warn("exporting metrics", "path", path, "error", err)
		}
	}

	log.Info("update finished",
		"games", m.GamesFetched,
		"dataset_rows", m.DatasetRows,
		"review_files", m.ReviewFiles,
		"reviews", m.ReviewsSaved,
		"files_deleted", m.FilesDeleted,
		"duration", m.FinishedAt.Sub(m.StartedAt).Round(time.Second))
	return m, nil
}

// UpdateGames fetches games in opts.Mode, normalizes them, merges them into
// the dataset, and writes this run's snapshot, recording counts in m. A
// fetch failure is logged and whatever was fetched is stored; only a
// storage failure or cancellation is returned. A completed crawl's progress
// is cleared after the dataset is written, and kept when the write fails.
func (u *Updater) UpdateGames(ctx context.Context, opts Options, m *types.RunManifest) ([]types.Game, error) {
	raw, err := u.fetchGames(ctx, opts, m)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		u.logger().Error("fetching games", "stage", "fetch", "error", err)
	}

	games := u.Normalizer.Games(raw)
	m.GamesFetched = len(games)
	if len(games) > 0 {
		if err := u.storeGames(games, m); err != nil {
			return nil, err
		}
	}

	// Crawl progress is only discarded once its records are in the dataset.
	if opts.Mode == ModeAll && m.CrawlComplete {
		if err := u.Crawler.Finish(); err != nil {
			u.logger().Warn("finishing crawl", "stage", "fetch", "error", err)
		}
	}
	return games, nil
}

func (u *Updater) fetchGames(ctx context.Context, opts Options, m *types.RunManifest) (map[string]types.RawRecord, error) {
	if opts.Mode == ModeTop {
		n := opts.TopCount
		if n <= 0 {
			n = u.Config.SteamSpy.TopCount
		}
		return u.SteamSpy.FetchTop(ctx, n, u.Config.SteamSpy.RequestDelay)
	}

	raw, stats, err := u.Crawler.FetchAll(ctx)
	m.PagesFetched = stats.PagesFetched
	m.PagesSkipped = stats.PagesSkipped
	m.CrawlComplete = stats.Complete
	return raw, err
}

// storeGames merges games into the dataset and writes this run's snapshot.
func (u *Updater) storeGames(games []types.Game, m *types.RunManifest) error {
	rows := dataset.GameRows(games)
	merged, err := dataset.MergeAndSave(rows, u.DatasetPath(), KeyField)
	if err != nil {
		return fmt.Errorf("updating games dataset: %w", err)
	}
	m.DatasetRows = len(merged)
	metrics.DatasetRows.Set(float64(len(merged)))

	snapshot, err := dataset.SaveSnapshot(u.Config.DataDir, SnapshotPrefix, rows, u.Now())
	if err != nil {
		return fmt.Errorf("writing games snapshot: %w", err)
	}
	m.SnapshotPath = snapshot
	u.logger().Info("stored games", "new", len(rows), "dataset_rows", len(merged), "snapshot", snapshot)
	return nil
}

// CollectReviews gathers and saves the recent reviews of each game in turn,
// GameDelay apart. Each game's file is written as soon as it is collected.
// Per-game failures are logged and counted in m; only cancellation stops
// the loop.
func (u *Updater) CollectReviews(ctx context.Context, games []types.Game, m *types.RunManifest) error {
	log := u.logger()
	limiter := rate.NewLimiter(rate.Inf, 1)
	if d := u.Config.Reviews.GameDelay; d > 0 {
		limiter = rate.NewLimiter(rate.Every(d), 1)
	}

	log.Info("collecting reviews", "games", len(games), "years_back", u.Config.Reviews.YearsBack)
	for i, g := range games {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		now := u.Now()
		log.Info("updating reviews", "appid", g.AppID, "name", g.Name, "n", i+1, "of", len(games))
		rs, err := u.Collector.Collect(ctx, g.AppID, g.Name, reviews.RecentWindow(now, u.Config.Reviews.YearsBack))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.ReviewErrors++
			log.Error("collecting reviews", "appid", g.AppID, "stage", "reviews", "error", err)
		}

		path, err := reviews.Save(u.Config.DataDir, g.AppID, g.Name, rs, now)
		if err != nil {
			m.ReviewErrors++
			log.Error("saving reviews", "appid", g.AppID, "stage", "save", "error", err)
			continue
		}
		if path != "" {
			m.ReviewFiles++
			m.ReviewsSaved += len(rs)
		}
	}
	return nil
}

// selectForReviews returns the limit games with the highest CCU, ties in
// app id order. A limit of 0 or more than len(games) keeps every game.
func selectForReviews(games []types.Game, limit int) []types.Game {
	if limit <= 0 || limit >= len(games) {
		return games
	}
	ranked := append([]types.Game(nil), games...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].CCU > ranked[j].CCU })
	return ranked[:limit]
}

func (u *Updater) logger() *slog.Logger {
	if u.Logger == nil {
		return slog.Default()
	}
	return u.Logger
}

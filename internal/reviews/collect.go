// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reviews

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/steam-harvest/internal/metrics"
	"github.com/pdiddy/steam-harvest/internal/normalize"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

// DefaultMaxPages caps the pages collected for one game.
const DefaultMaxPages = 20

// Window bounds review creation times. A zero Start or End leaves that side
// open.
type Window struct {
	Start time.Time
	End   time.Time
}

// RecentWindow returns the window covering the last years*365 days up to now.
func RecentWindow(now time.Time, years int) Window {
	return Window{Start: now.AddDate(0, 0, -365*years), End: now}
}

// Collector pages through a game's reviews, newest first.
type Collector struct {
	Client     *Client
	Normalizer *normalize.Normalizer
	Query      Query

	// MaxPages caps the pages fetched per game; 0 uses DefaultMaxPages.
	MaxPages int

	// PageDelay is the pause between pages of one game.
	PageDelay time.Duration

	Logger *slog.Logger
}

// NewCollector builds a Collector from configuration.
func NewCollector(client *Client, norm *normalize.Normalizer, cfg *types.Config, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		Client:     client,
		Normalizer: norm,
		Query: Query{
			Language:   cfg.Reviews.Language,
			NumPerPage: cfg.Reviews.NumPerPage,
		},
		MaxPages:  cfg.Reviews.MaxPages,
		PageDelay: cfg.Reviews.PageDelay,
		Logger:    logger,
	}
}

// Collect gathers the reviews of appid created inside w.
//
// Paging stops when the API reports failure or no reviews, when the cursor
// is empty or repeats, when MaxPages is reached, or when a review older than
// w.Start appears. Reviews newer than w.End are skipped. A page that cannot
// be fetched ends the collection: the reviews gathered so far are returned
// together with the error.
func (c *Collector) Collect(ctx context.Context, appid, name string, w Window) ([]types.Review, error) {
	log := c.logger().With("appid", appid)

	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if c.PageDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(c.PageDelay), 1)
	}

	var out []types.Review
	cursor := StartCursor
	seen := map[string]struct{}{cursor: {}}

	for page := 0; page < maxPages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			return out, err
		}

		p, err := c.Client.Page(ctx, appid, c.Query, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			return out, fmt.Errorf("page %d: %w", page, err)
		}
		if p.Success != 1 {
			log.Warn("review API reported failure", "page", page, "success", p.Success)
			break
		}
		if p.QuerySummary.NumReviews == 0 {
			log.Debug("no more reviews", "page", page)
			break
		}

		reachedStart := false
		for _, raw := range p.Reviews {
			created := normalize.SafeInt(raw["timestamp_created"])
			if !w.End.IsZero() && created > w.End.Unix() {
				continue
			}
			if !w.Start.IsZero() && created < w.Start.Unix() {
				reachedStart = true
				break
			}

			r, err := c.Normalizer.Review(appid, name, raw)
			if err != nil {
				metrics.NormalizeFailures.WithLabelValues(metrics.KindReview).Inc()
				log.Warn("skipping review", "stage", "normalize", "page", page, "error", err)
				continue
			}
			metrics.RecordsNormalized.WithLabelValues(metrics.KindReview).Inc()
			out = append(out, r)
		}
		if reachedStart {
			log.Debug("reached reviews older than window", "page", page)
			break
		}

		if p.Cursor == "" {
			break
		}
		if _, dup := seen[p.Cursor]; dup {
			log.Debug("cursor repeated, stopping", "page", page)
			break
		}
		seen[p.Cursor] = struct{}{}
		cursor = p.Cursor
	}

	log.Info("collected reviews", "name", name, "reviews", len(out))
	return out, nil
}

func (c *Collector) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

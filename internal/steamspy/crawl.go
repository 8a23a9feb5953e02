// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package steamspy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/steam-harvest/internal/metrics"
	"github.com/pdiddy/steam-harvest/internal/progress"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

// DefaultMaxConsecutiveSkips stops a crawl after this many failed pages in
// a row.
const DefaultMaxConsecutiveSkips = 5

// Reasons a crawl stopped, reported in CrawlStats.StoppedBy.
const (
	StopComplete    = "complete"
	StopPermanent   = "permanent"
	StopMaxPages    = "max_pages"
	StopSkipLimit   = "skip_limit"
	StopCancelled   = "cancelled"
	StopSaveFailure = "save_failure"
)

// CrawlStats summarizes one FetchAll run.
type CrawlStats struct {
	StartPage    int
	LastPage     int
	PagesFetched int
	PagesSkipped int
	Complete     bool
	StoppedBy    string
}

// Crawler walks every page of request=all, persisting progress after each
// page so an interrupted crawl resumes where it left off.
type Crawler struct {
	Client *Client
	Store  *progress.Store

	// PageDelay is the minimum spacing between page requests. The first
	// request is not delayed.
	PageDelay time.Duration

	// MaxPages bounds the pages attempted in one run; 0 is unlimited.
	MaxPages int

	// MaxConsecutiveSkips ends a crawl whose pages keep failing; 0 uses
	// DefaultMaxConsecutiveSkips.
	MaxConsecutiveSkips int

	Logger *slog.Logger

	limiter *rate.Limiter
}

// NewCrawler returns a Crawler that paces pages pageDelay apart.
func NewCrawler(client *Client, store *progress.Store, pageDelay time.Duration, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		Client:    client,
		Store:     store,
		PageDelay: pageDelay,
		Logger:    logger,
	}
}

// FetchAll crawls from the page after the last saved one until the
// catalogue ends. It always returns the records accumulated so far, seeded
// with those of the saved progress.
//
// A terminal page marks the crawl Complete but leaves the progress file in
// place; call Finish once the records are stored. A permanent upstream failure,
// the MaxPages bound, or too many consecutive skipped pages stop the crawl
// early with progress kept and a nil error. A page whose retries are
// exhausted is skipped.
func (c *Crawler) FetchAll(ctx context.Context) (map[string]types.RawRecord, CrawlStats, error) {
	log := c.logger()
	state := c.Store.Load()
	acc := state.Games

	page := state.NextPage()
	stats := CrawlStats{StartPage: page, LastPage: state.LastPage}
	if page > 0 {
		log.Info("resuming crawl", "page", page, "games", len(acc))
	}

	maxSkips := c.MaxConsecutiveSkips
	if maxSkips <= 0 {
		maxSkips = DefaultMaxConsecutiveSkips
	}
	limiter := c.pageLimiter()
	skipped := 0

	for ; ; page++ {
		if c.MaxPages > 0 && stats.PagesFetched+stats.PagesSkipped >= c.MaxPages {
			log.Info("page limit reached, progress kept", "max_pages", c.MaxPages, "next_page", page)
			stats.StoppedBy = StopMaxPages
			return acc, stats, nil
		}

		if err := limiter.Wait(ctx); err != nil {
			stats.StoppedBy = StopCancelled
			return acc, stats, ctxErr(ctx, err)
		}

		records, err := c.Client.AllPage(ctx, page)
		switch {
		case err == nil && len(records) == 0:
			metrics.PagesTotal.WithLabelValues("terminal").Inc()
			log.Info("crawl complete", "pages", stats.PagesFetched, "games", len(acc))
			stats.Complete = true
			stats.StoppedBy = StopComplete
			return acc, stats, nil

		case err == nil:
			added := 0
			for id, rec := range records {
				if _, ok := acc[id]; ok {
					continue
				}
				acc[id] = rec
				added++
			}
			if err := c.Store.Save(types.CrawlProgress{LastPage: page, Games: acc}); err != nil {
				stats.StoppedBy = StopSaveFailure
				return acc, stats, fmt.Errorf("saving progress after page %d: %w", page, err)
			}
			metrics.PagesTotal.WithLabelValues("fetched").Inc()
			stats.PagesFetched++
			stats.LastPage = page
			skipped = 0
			log.Info("fetched page", "page", page, "records", len(records), "added", added, "total", len(acc))

		case ctx.Err() != nil:
			stats.StoppedBy = StopCancelled
			return acc, stats, ctx.Err()

		case errors.Is(err, ErrPermanent):
			log.Error("permanent failure, stopping crawl", "page", page, "error", err)
			stats.StoppedBy = StopPermanent
			return acc, stats, nil

		default:
			metrics.PagesTotal.WithLabelValues("skipped").Inc()
			stats.PagesSkipped++
			skipped++
			log.Error("skipping page", "page", page, "error", err)
			if skipped >= maxSkips {
				log.Error("too many consecutive failed pages, stopping crawl", "skipped", skipped, "page", page)
				stats.StoppedBy = StopSkipLimit
				return acc, stats, nil
			}
		}
	}
}

// Finish discards the saved progress of a completed crawl. The next
// FetchAll starts again from page 0.
func (c *Crawler) Finish() error {
	if err := c.Store.Clear(); err != nil {
		return fmt.Errorf("clearing crawl progress: %w", err)
	}
	c.logger().Info("crawl progress cleared", "file", c.Store.Path)
	return nil
}

// pageLimiter returns the crawler's limiter, creating it on first use so
// pacing holds across FetchAll calls on the same Crawler.
func (c *Crawler) pageLimiter() *rate.Limiter {
	if c.limiter == nil {
		c.limiter = newPacer(c.PageDelay)
	}
	return c.limiter
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// newPacer allows one event immediately and then one per delay.
func newPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// ctxErr prefers the context's own error over the limiter's wrapped one.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

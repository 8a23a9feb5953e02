// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/pdiddy/steam-harvest/internal/metrics"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

// DefaultSkipAppID is SteamSpy's placeholder entry for hidden apps.
const DefaultSkipAppID = "999999"

// ErrNullRecord is returned for an app whose record is JSON null.
var ErrNullRecord = errors.New("record is null")

// Normalizer converts raw SteamSpy and Steam review records.
type Normalizer struct {
	// SkipAppID is never emitted. Empty disables the skip.
	SkipAppID string

	// Now stamps CollectedAt. Tests pin it.
	Now func() time.Time

	Logger *slog.Logger
}

// New returns a Normalizer that skips skipAppID and stamps wall-clock time.
func New(skipAppID string, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{SkipAppID: skipAppID, Now: time.Now, Logger: logger}
}

// Games normalizes a batch of raw app records keyed by app id. The skip app
// is dropped; a record that fails to normalize is logged and dropped while
// the rest of the batch continues. The result is ordered by numeric app id.
func (n *Normalizer) Games(raw map[string]types.RawRecord) []types.Game {
	ids := make([]string, 0, len(raw))
	for id := range raw {
		if n.SkipAppID != "" && id == n.SkipAppID {
			continue
		}
		ids = append(ids, id)
	}
	SortAppIDs(ids)

	games := make([]types.Game, 0, len(ids))
	for _, id := range ids {
		g, err := n.Game(id, raw[id])
		if err != nil {
			n.logger().Error("skipping game", "appid", id, "stage", "normalize", "error", err)
			metrics.NormalizeFailures.WithLabelValues(metrics.KindGame).Inc()
			continue
		}
		metrics.RecordsNormalized.WithLabelValues(metrics.KindGame).Inc()
		games = append(games, g)
	}
	return games
}

// Game normalizes one app record.
func (n *Normalizer) Game(appid string, rec types.RawRecord) (types.Game, error) {
	if rec == nil {
		return types.Game{}, ErrNullRecord
	}

	g := types.Game{AppID: appid}
	var err error
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"name", &g.Name},
		{"developer", &g.Developer},
		{"publisher", &g.Publisher},
		{"languages", &g.Languages},
		{"genre", &g.Genre},
	} {
		if *f.dst, err = stringField(rec, f.key); err != nil {
			return types.Game{}, err
		}
	}

	// Absent, null, and non-string owners fail to parse and become zero.
	owners, _ := stringField(rec, "owners")
	r := OwnersOrZero(owners)
	g.OwnersMin, g.OwnersMax, g.OwnersEstimate = r.Min, r.Max, r.Estimate

	g.AveragePlaytimeForever = intField(rec, "average_forever")
	g.AveragePlaytime2Weeks = intField(rec, "average_2weeks")
	g.MedianPlaytimeForever = intField(rec, "median_forever")
	g.MedianPlaytime2Weeks = intField(rec, "median_2weeks")
	g.CCU = intField(rec, "ccu")
	g.PriceCents = intField(rec, "price")
	g.InitialPriceCents = intField(rec, "initialprice")
	g.DiscountPercent = intField(rec, "discount")
	g.PositiveReviews = intField(rec, "positive")
	g.NegativeReviews = intField(rec, "negative")

	if g.Tags, err = Tags(rec); err != nil {
		return types.Game{}, err
	}

	g.RevenueEstimate = float64(g.OwnersEstimate) * float64(g.PriceCents) / 100
	g.CollectedAt = n.now()
	return g, nil
}

// SortAppIDs orders ids numerically; non-numeric ids sort after numeric
// ones, lexically.
func SortAppIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, aErr := strconv.ParseInt(ids[i], 10, 64)
		b, bErr := strconv.ParseInt(ids[j], 10, 64)
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

func (n *Normalizer) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

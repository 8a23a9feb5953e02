// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package steamspy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pdiddy/steam-harvest/internal/normalize"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

// TopByCCU returns the ids of the n games with the most concurrent users,
// ties broken by app id order. The normalizer's placeholder id is skipped.
func TopByCCU(games map[string]types.RawRecord, n int) []string {
	type ranked struct {
		id  string
		ccu int64
	}
	all := make([]ranked, 0, len(games))
	for id, rec := range games {
		if id == normalize.DefaultSkipAppID {
			continue
		}
		var ccu int64
		if raw, state := rec.Lookup("ccu"); state == types.FieldPresent {
			ccu = normalize.SafeInt(raw)
		}
		all = append(all, ranked{id: id, ccu: ccu})
	}

	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.id
	}
	normalize.SortAppIDs(ids)
	order := make(map[string]int, len(ids))
	for i, id := range ids {
		order[id] = i
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].ccu != all[j].ccu {
			return all[i].ccu > all[j].ccu
		}
		return order[all[i].id] < order[all[j].id]
	})

	if n > len(all) || n < 0 {
		n = len(all)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = all[i].id
	}
	return out
}

// FetchTop fetches page 0 of the catalogue, picks the n games with the most
// concurrent users, and fetches full details for each, pace apart. Apps
// whose details cannot be fetched are logged and left out.
func (c *Client) FetchTop(ctx context.Context, n int, pace time.Duration) (map[string]types.RawRecord, error) {
	log := c.logger()

	page, err := c.AllPage(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching top games: %w", err)
	}
	ids := TopByCCU(page, n)
	log.Info("fetching top games", "count", len(ids))

	limiter := newPacer(pace)
	out := make(map[string]types.RawRecord, len(ids))
	for i, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			return out, ctxErr(ctx, err)
		}
		rec, err := c.AppDetails(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			log.Warn("skipping app", "appid", id, "stage", "appdetails", "error", err)
			continue
		}
		out[id] = rec
		log.Debug("fetched app", "appid", id, "n", i+1, "of", len(ids))
	}
	return out, nil
}

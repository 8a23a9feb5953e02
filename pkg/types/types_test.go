// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawRecordLookup(t *testing.T) {
	var rec RawRecord
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Portal","price":null,"ccu": 12 }`), &rec))

	v, state := rec.Lookup("name")
	assert.Equal(t, FieldPresent, state)
	assert.Equal(t, `"Portal"`, string(v))

	v, state = rec.Lookup("ccu")
	assert.Equal(t, FieldPresent, state)
	assert.Equal(t, "12", string(v))

	_, state = rec.Lookup("price")
	assert.Equal(t, FieldNull, state)

	_, state = rec.Lookup("tags")
	assert.Equal(t, FieldAbsent, state)

	_, state = RawRecord(nil).Lookup("name")
	assert.Equal(t, FieldAbsent, state)

	keys := rec.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"ccu", "name", "price"}, keys)
}

func TestFieldStateString(t *testing.T) {
	assert.Equal(t, "absent", FieldAbsent.String())
	assert.Equal(t, "null", FieldNull.String())
	assert.Equal(t, "present", FieldPresent.String())
}

func TestCrawlProgress(t *testing.T) {
	p := NewCrawlProgress()
	assert.Equal(t, 0, p.NextPage())
	assert.NotNil(t, p.Games)

	p.LastPage = 6
	assert.Equal(t, 7, p.NextPage())
}

func TestValuesAlignWithFields(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	g := Game{AppID: "730", Name: "CS", OwnersMin: 10, RevenueEstimate: 1.5, Tags: "{}", CollectedAt: at}
	gv := g.Values()
	require.Len(t, gv, len(GameFields))
	assert.Equal(t, "730", gv[0])
	assert.Equal(t, "1.5", gv[20])
	assert.Equal(t, "2026-01-02T03:04:05Z", gv[len(gv)-1])

	r := Review{GameID: "730", RecommendationID: "r1", VotedUp: true, CollectedAt: at}
	rv := r.Values()
	require.Len(t, rv, len(ReviewFields))
	assert.Equal(t, "730", rv[0])
	assert.Equal(t, "true", rv[11])
	assert.Equal(t, "false", rv[15])
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60*time.Second, cfg.SteamSpy.PageDelay)
	assert.Equal(t, "999999", cfg.SteamSpy.SkipAppID)
	assert.Equal(t, 100, cfg.Reviews.NumPerPage)
	assert.Equal(t, 5, cfg.Retention.Years)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }, ErrEmptyDataDir},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }, ErrInvalidTimeout},
		{"negative steamspy retries", func(c *Config) { c.SteamSpy.MaxRetries = -1 }, ErrInvalidRetries},
		{"negative review retries", func(c *Config) { c.Reviews.MaxRetries = -1 }, ErrInvalidRetries},
		{"zero retention", func(c *Config) { c.Retention.Years = 0 }, ErrInvalidRetention},
		{"page size too large", func(c *Config) { c.Reviews.NumPerPage = 101 }, ErrInvalidReviewPage},
		{"page size zero", func(c *Config) { c.Reviews.NumPerPage = 0 }, ErrInvalidReviewPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

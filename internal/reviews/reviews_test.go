// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reviews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/steam-harvest/internal/dataset"
	"github.com/pdiddy/steam-harvest/internal/httputil"
	"github.com/pdiddy/steam-harvest/internal/normalize"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeReviews answers by cursor and records the queries it received.
type fakeReviews struct {
	mu       sync.Mutex
	byCursor map[string]string
	paths    []string
	cursors  []string
	query    map[string]string
}

func (f *fakeReviews) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cursor := q.Get("cursor")
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	f.cursors = append(f.cursors, cursor)
	f.query = map[string]string{
		"json":         q.Get("json"),
		"language":     q.Get("language"),
		"num_per_page": q.Get("num_per_page"),
		"filter":       q.Get("filter"),
	}
	body, ok := f.byCursor[cursor]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Write([]byte(body))
}

func review(id string, created int64) string {
	return fmt.Sprintf(`{"recommendationid":%q,"author":{"steamid":"7656%s","playtime_forever":120},"review":"text %s","timestamp_created":%d,"timestamp_updated":%d,"voted_up":true,"votes_up":1,"votes_funny":0,"weighted_vote_score":"0.5"}`,
		id, id, id, created, created)
}

func page(cursor string, reviews ...string) string {
	return fmt.Sprintf(`{"success":1,"query_summary":{"num_reviews":%d},"reviews":[%s],"cursor":%q}`,
		len(reviews), strings.Join(reviews, ","), cursor)
}

func newTestCollector(ts *httptest.Server) *Collector {
	norm := normalize.New(normalize.DefaultSkipAppID, nil)
	norm.Now = func() time.Time { return testNow }
	return &Collector{
		Client: &Client{
			HTTP:    ts.Client(),
			BaseURL: ts.URL,
			Retry:   httputil.Policy{MaxRetries: 1, Delay: time.Millisecond},
		},
		Normalizer: norm,
		Query:      Query{Language: "english", NumPerPage: 100},
	}
}

func TestCollect_FollowsCursorUntilEmpty(t *testing.T) {
	fake := &fakeReviews{byCursor: map[string]string{
		"*":  page("c1", review("1", 300), review("2", 200)),
		"c1": page("", review("3", 100)),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	got, err := newTestCollector(ts).Collect(context.Background(), "570", "Dota 2", Window{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"*", "c1"}, fake.cursors)
	assert.Equal(t, "/570", fake.paths[0])
	assert.Equal(t, map[string]string{"json": "1", "language": "english", "num_per_page": "100", "filter": "recent"}, fake.query)

	first := got[0]
	assert.Equal(t, "570", first.GameID)
	assert.Equal(t, "Dota 2", first.GameName)
	assert.Equal(t, "76561", first.AuthorSteamID)
	assert.Equal(t, int64(120), first.PlaytimeForever)
	assert.Equal(t, testNow, first.CollectedAt)
}

func TestCollect_StopsOnRepeatedCursor(t *testing.T) {
	fake := &fakeReviews{byCursor: map[string]string{
		"*":  page("c1", review("1", 300)),
		"c1": page("c1", review("2", 200)),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	got, err := newTestCollector(ts).Collect(context.Background(), "1", "", Window{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"*", "c1"}, fake.cursors)
}

func TestCollect_MaxPages(t *testing.T) {
	fake := &fakeReviews{byCursor: map[string]string{
		"*":  page("c1", review("1", 300)),
		"c1": page("c2", review("2", 200)),
		"c2": page("c3", review("3", 100)),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	c := newTestCollector(ts)
	c.MaxPages = 2
	got, err := c.Collect(context.Background(), "1", "", Window{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"*", "c1"}, fake.cursors)
}

func TestCollect_Window(t *testing.T) {
	fake := &fakeReviews{byCursor: map[string]string{
		"*":  page("c1", review("new", 500), review("in1", 400)),
		"c1": page("c2", review("in2", 300), review("old", 100), review("older", 50)),
		"c2": page("", review("never", 10)),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	w := Window{Start: time.Unix(200, 0), End: time.Unix(450, 0)}
	got, err := newTestCollector(ts).Collect(context.Background(), "1", "", w)
	require.NoError(t, err)

	var ids []string
	for _, r := range got {
		ids = append(ids, r.RecommendationID)
	}
	assert.Equal(t, []string{"in1", "in2"}, ids)
	assert.Equal(t, []string{"*", "c1"}, fake.cursors, "paging stops once the window start is passed")
}

func TestCollect_StopConditions(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"success flag", `{"success":2}`},
		{"no reviews", `{"success":1,"query_summary":{"num_reviews":0},"reviews":[],"cursor":"c1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeReviews{byCursor: map[string]string{"*": tt.body}}
			ts := httptest.NewServer(fake)
			defer ts.Close()

			got, err := newTestCollector(ts).Collect(context.Background(), "1", "", Window{})
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.Len(t, fake.cursors, 1)
		})
	}
}

func TestCollect_FailedPageReturnsGathered(t *testing.T) {
	fake := &fakeReviews{byCursor: map[string]string{
		"*": page("missing", review("1", 300)),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	got, err := newTestCollector(ts).Collect(context.Background(), "1", "", Window{})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Len(t, got, 1)
}

func TestCollect_SkipsBadReview(t *testing.T) {
	fake := &fakeReviews{byCursor: map[string]string{
		"*": page("", `{"review":"no id","timestamp_created":300}`, review("2", 200)),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	got, err := newTestCollector(ts).Collect(context.Background(), "1", "", Window{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].RecommendationID)
}

func TestRecentWindow(t *testing.T) {
	w := RecentWindow(testNow, 5)
	assert.Equal(t, testNow, w.End)
	assert.Equal(t, testNow.AddDate(0, 0, -1825), w.Start)
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		appid, name, want string
	}{
		{"570", "Dota 2", "Dota_2"},
		{"620", "Portal 2: Perpetual Testing!", "Portal_2__Perpetual_Testing_"},
		{"42", "", "App42"},
		{"1", "Café", "Café"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanName(tt.appid, tt.name), tt.name)
	}
	assert.Equal(t, "570_Dota_2", EntityDir("570", "Dota 2"))
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	rs := []types.Review{
		{GameID: "570", RecommendationID: "1", Text: "gg, wp", CollectedAt: testNow},
		{GameID: "570", RecommendationID: "2", CollectedAt: testNow},
		{GameID: "570", RecommendationID: "1", Text: "dup", CollectedAt: testNow},
	}

	path, err := Save(dir, "570", "Dota 2", rs, testNow)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "570_Dota_2", "570_Dota_2_reviews_20260601_120000.csv"), path)

	rows, err := dataset.Read(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, types.ReviewFields, rows[0].Fields())
	text, _ := rows[0].Get("review_text")
	assert.Equal(t, "gg, wp", text)

	path, err = Save(dir, "1", "x", nil, testNow)
	require.NoError(t, err)
	assert.Empty(t, path)
	_, err = os.Stat(filepath.Join(dir, "1_x"))
	assert.True(t, os.IsNotExist(err))
}

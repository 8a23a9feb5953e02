// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package steamspy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/steam-harvest/internal/httputil"
	"github.com/pdiddy/steam-harvest/internal/progress"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

// fakeSteamSpy serves request=all pages and request=appdetails from fixed
// bodies and records the requests it saw.
type fakeSteamSpy struct {
	mu      sync.Mutex
	pages   map[int]func(w http.ResponseWriter)
	details map[string]string
	seen    []int
	times   []time.Time
	apps    []string
}

func (f *fakeSteamSpy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch q.Get("request") {
	case "all":
		page, _ := strconv.Atoi(q.Get("page"))
		f.mu.Lock()
		f.seen = append(f.seen, page)
		f.times = append(f.times, time.Now())
		h, ok := f.pages[page]
		f.mu.Unlock()
		if !ok {
			w.Write([]byte("{}"))
			return
		}
		h(w)
	case "appdetails":
		id := q.Get("appid")
		f.mu.Lock()
		f.apps = append(f.apps, id)
		body, ok := f.details[id]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(body))
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (f *fakeSteamSpy) requested() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.seen...)
}

func (f *fakeSteamSpy) requestTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.times...)
}

func body(s string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { w.Write([]byte(s)) }
}

func status(code int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { w.WriteHeader(code) }
}

func newTestClient(ts *httptest.Server) *Client {
	return &Client{
		HTTP:    ts.Client(),
		BaseURL: ts.URL,
		Retry:   httputil.Policy{MaxRetries: 2, Delay: time.Millisecond},
	}
}

func newTestCrawler(t *testing.T, ts *httptest.Server) (*Crawler, *progress.Store) {
	t.Helper()
	store := progress.NewStore(filepath.Join(t.TempDir(), progress.DefaultFile), nil)
	return NewCrawler(newTestClient(ts), store, 0, nil), store
}

func TestAllPage_EmptyBodies(t *testing.T) {
	for _, b := range []string{"", "null", "{}", "[]", "  {\n}  "} {
		t.Run(fmt.Sprintf("%q", b), func(t *testing.T) {
			fake := &fakeSteamSpy{pages: map[int]func(http.ResponseWriter){0: body(b)}}
			ts := httptest.NewServer(fake)
			defer ts.Close()

			recs, err := newTestClient(ts).AllPage(context.Background(), 0)
			require.NoError(t, err)
			assert.NotNil(t, recs)
			assert.Empty(t, recs)
		})
	}
}

func TestAllPage_DecodesEntries(t *testing.T) {
	fake := &fakeSteamSpy{pages: map[int]func(http.ResponseWriter){
		0: body(`{"10":{"appid":10,"name":"Counter-Strike"},"20":null,"30":7}`),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	recs, err := newTestClient(ts).AllPage(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 2, "non-object entry is dropped")

	name, state := recs["10"].Lookup("name")
	assert.Equal(t, types.FieldPresent, state)
	assert.JSONEq(t, `"Counter-Strike"`, string(name))

	rec, ok := recs["20"]
	assert.True(t, ok)
	assert.Nil(t, rec)
}

func TestAllPage_Errors(t *testing.T) {
	fake := &fakeSteamSpy{pages: map[int]func(http.ResponseWriter){
		0: status(http.StatusForbidden),
		1: status(http.StatusBadGateway),
		2: body(`not json`),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()
	c := newTestClient(ts)

	_, err := c.AllPage(context.Background(), 0)
	assert.ErrorIs(t, err, ErrPermanent)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)

	_, err = c.AllPage(context.Background(), 1)
	assert.ErrorIs(t, err, httputil.ErrRetriesExhausted)
	assert.NotErrorIs(t, err, ErrPermanent)

	_, err = c.AllPage(context.Background(), 2)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermanent)
}

func TestAppDetails(t *testing.T) {
	fake := &fakeSteamSpy{details: map[string]string{
		"570": `{"appid":570,"name":"Dota 2","ccu":500000}`,
		"1":   `{}`,
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()
	c := newTestClient(ts)

	rec, err := c.AppDetails(context.Background(), "570")
	require.NoError(t, err)
	_, state := rec.Lookup("ccu")
	assert.Equal(t, types.FieldPresent, state)

	_, err = c.AppDetails(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = c.AppDetails(context.Background(), "2")
	assert.ErrorIs(t, err, httputil.ErrRetriesExhausted)
}

func TestFetchAll_StopsAtTerminalPage(t *testing.T) {
	fake := &fakeSteamSpy{pages: map[int]func(http.ResponseWriter){
		0: body(`{"10":{"name":"a"},"20":{"name":"b"}}`),
		1: body(`{"30":{"name":"c"}}`),
		2: body(`{}`),
		3: body(`{"40":{"name":"never"}}`),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()
	crawler, store := newTestCrawler(t, ts)

	games, stats, err := crawler.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, fake.requested())
	assert.Len(t, games, 3)
	assert.True(t, stats.Complete)
	assert.Equal(t, StopComplete, stats.StoppedBy)
	assert.Equal(t, 2, stats.PagesFetched)

	saved := store.Load()
	assert.Equal(t, 1, saved.LastPage, "progress outlives the terminal page")
	assert.Len(t, saved.Games, 3)

	require.NoError(t, crawler.Finish())
	_, err = os.Stat(store.Path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, types.NoPageCompleted, store.Load().LastPage)
}

func TestFetchAll_ResumesAfterSavedPage(t *testing.T) {
	fake := &fakeSteamSpy{pages: map[int]func(http.ResponseWriter){
		4: body(`{"40":{"name":"d"},"10":{"name":"replaced?"}}`),
		5: body(`[]`),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()
	crawler, store := newTestCrawler(t, ts)

	seed := types.CrawlProgress{LastPage: 3, Games: map[string]types.RawRecord{
		"10": {"name": json.RawMessage(`"a"`)},
		"20": {"name": json.RawMessage(`"b"`)},
	}}
	require.NoError(t, store.Save(seed))

	games, stats, err := crawler.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, fake.requested()[0], "first request is the page after the saved one")
	assert.Equal(t, 4, stats.StartPage)
	for id := range seed.Games {
		assert.Contains(t, games, id)
	}
	assert.Contains(t, games, "40")
	assert.JSONEq(t, `"a"`, string(games["10"]["name"]), "accumulated entries are kept")
}

func TestFetchAll_SkipsExhaustedPage(t *testing.T) {
	fake := &fakeSteamSpy{pages: map[int]func(http.ResponseWriter){
		0: status(http.StatusInternalServerError),
		1: body(`{"10":{"name":"a"}}`),
		2: body(`{}`),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()
	crawler, _ := newTestCrawler(t, ts)

	games, stats, err := crawler.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Contains(t, games, "10")
	assert.Equal(t, 1, stats.PagesSkipped)
	assert.Equal(t, 1, stats.PagesFetched)
	assert.True(t, stats.Complete)
	assert.Equal(t, []int{0, 0, 0, 1, 2}, fake.requested(), "page 0 tried 1+MaxRetries times")
}

func TestFetchAll_PermanentFailureKeepsProgress(t *testing.T) {
	fake := &fakeSteamSpy{pages: map[int]func(http.ResponseWriter){
		0: body(`{"10":{"name":"a"}}`),
		1: status(http.StatusForbidden),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()
	crawler, store := newTestCrawler(t, ts)

	games, stats, err := crawler.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, games, 1)
	assert.False(t, stats.Complete)
	assert.Equal(t, StopPermanent, stats.StoppedBy)

	saved := store.Load()
	assert.Equal(t, 0, saved.LastPage)
	assert.Contains(t, saved.Games, "10")
}

func TestFetchAll_MaxPages(t *testing.T) {
	fake := &fakeSteamSpy{pages: map[int]func(http.ResponseWriter){
		0: body(`{"10":{}}`),
		1: body(`{"20":{}}`),
		2: body(`{"30":{}}`),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()
	crawler, store := newTestCrawler(t, ts)
	crawler.MaxPages = 2

	games, stats, err := crawler.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, games, 2)
	assert.Equal(t, StopMaxPages, stats.StoppedBy)
	assert.Equal(t, 1, store.Load().LastPage)

	games, stats, err = crawler.FetchAll(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Complete)
	assert.Len(t, games, 3)
	assert.Equal(t, []int{0, 1, 2, 3}, fake.requested())
}

func TestFetchAll_ConsecutiveSkipLimit(t *testing.T) {
	fake := &fakeSteamSpy{pages: map[int]func(http.ResponseWriter){}}
	for p := 0; p < 10; p++ {
		fake.pages[p] = status(http.StatusServiceUnavailable)
	}
	ts := httptest.NewServer(fake)
	defer ts.Close()
	crawler, _ := newTestCrawler(t, ts)
	crawler.Client.Retry.MaxRetries = 0
	crawler.MaxConsecutiveSkips = 3

	_, stats, err := crawler.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopSkipLimit, stats.StoppedBy)
	assert.Equal(t, 3, stats.PagesSkipped)
	assert.Equal(t, []int{0, 1, 2}, fake.requested())
}

func TestFetchAll_Cancelled(t *testing.T) {
	fake := &fakeSteamSpy{pages: map[int]func(http.ResponseWriter){0: body(`{"10":{}}`)}}
	ts := httptest.NewServer(fake)
	defer ts.Close()
	crawler, _ := newTestCrawler(t, ts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, stats, err := crawler.FetchAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StopCancelled, stats.StoppedBy)
}

func TestPacer(t *testing.T) {
	p := newPacer(20 * time.Millisecond)
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 10*time.Millisecond, "first event is not delayed")
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestFetchAll_PacesPages(t *testing.T) {
	const delay = 40 * time.Millisecond
	fake := &fakeSteamSpy{pages: map[int]func(http.ResponseWriter){
		0: body(`{"10":{}}`),
		1: body(`{"20":{}}`),
		2: body(`{}`),
	}}
	ts := httptest.NewServer(fake)
	defer ts.Close()
	store := progress.NewStore(filepath.Join(t.TempDir(), progress.DefaultFile), nil)
	crawler := NewCrawler(newTestClient(ts), store, delay, nil)

	start := time.Now()
	_, stats, err := crawler.FetchAll(context.Background())
	require.NoError(t, err)
	require.True(t, stats.Complete)

	times := fake.requestTimes()
	require.Len(t, times, 3)
	assert.Less(t, times[0].Sub(start), delay/2, "first page is requested immediately")
	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), delay*3/4, "page %d follows page %d by the page delay", i, i-1)
	}

	// Pacing carries over into the next crawl on the same Crawler.
	require.NoError(t, crawler.Finish())
	_, _, err = crawler.FetchAll(context.Background())
	require.NoError(t, err)
	times = fake.requestTimes()
	require.Len(t, times, 6)
	assert.GreaterOrEqual(t, times[3].Sub(times[2]), delay*3/4)
}

func TestTopByCCU(t *testing.T) {
	games := map[string]types.RawRecord{
		"10":     {"ccu": json.RawMessage(`5`)},
		"20":     {"ccu": json.RawMessage(`"50"`)},
		"30":     {"ccu": json.RawMessage(`50`)},
		"40":     {},
		"999999": {"ccu": json.RawMessage(`1000000`)},
	}
	assert.Equal(t, []string{"20", "30"}, TopByCCU(games, 2))
	assert.Equal(t, []string{"20", "30", "10", "40"}, TopByCCU(games, 10))
	assert.Empty(t, TopByCCU(games, 0))
}

func TestFetchTop(t *testing.T) {
	fake := &fakeSteamSpy{
		pages: map[int]func(http.ResponseWriter){
			0: body(`{"10":{"ccu":1},"20":{"ccu":3},"30":{"ccu":2}}`),
		},
		details: map[string]string{
			"20": `{"appid":20,"name":"b"}`,
		},
	}
	ts := httptest.NewServer(fake)
	defer ts.Close()
	c := newTestClient(ts)
	c.Retry.MaxRetries = 0

	games, err := c.FetchTop(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"20", "30"}, fake.apps)
	require.Len(t, games, 1, "failed app is skipped")
	assert.Contains(t, games, "20")
}

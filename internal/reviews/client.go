// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reviews collects user reviews from the Steam storefront review
// API and stores them as one CSV file per collection under a per-game
// directory.
package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/steam-harvest/internal/httputil"
	"github.com/pdiddy/steam-harvest/internal/metrics"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

// DefaultBaseURL is the appreviews endpoint; the app id is appended as a
// path segment.
const DefaultBaseURL = "https://store.steampowered.com/appreviews"

// StartCursor requests the first page.
const StartCursor = "*"

// ErrUnexpectedStatus is matched by non-200, non-5xx responses.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Query holds the per-request parameters of the review API.
type Query struct {
	Language   string
	NumPerPage int

	// Filter is "recent" (newest first) unless set.
	Filter string
}

// Page is one decoded appreviews response.
type Page struct {
	Success      int `json:"success"`
	QuerySummary struct {
		NumReviews int `json:"num_reviews"`
	} `json:"query_summary"`
	Reviews []types.RawRecord `json:"reviews"`
	Cursor  string            `json:"cursor"`
}

// Client talks to the review API.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string
	Retry     httputil.Policy
	Logger    *slog.Logger
}

// NewClient builds a Client from configuration.
func NewClient(httpClient *http.Client, cfg *types.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.Reviews.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		HTTP:      httpClient,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: cfg.HTTP.UserAgent,
		Retry: httputil.Policy{
			MaxRetries: cfg.Reviews.MaxRetries,
			Delay:      cfg.Reviews.RetryDelay,
			Logger:     logger,
			OnRetry:    metrics.RetryHook(metrics.APIReviews),
		},
		Logger: logger,
	}
}

// Page fetches one page of reviews for appid starting at cursor.
func (c *Client) Page(ctx context.Context, appid string, q Query, cursor string) (Page, error) {
	filter := q.Filter
	if filter == "" {
		filter = "recent"
	}
	params := url.Values{
		"json":         {"1"},
		"language":     {q.Language},
		"cursor":       {cursor},
		"num_per_page": {strconv.Itoa(q.NumPerPage)},
		"filter":       {filter},
	}
	reqURL := c.BaseURL + "/" + url.PathEscape(appid) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, c.Retry)
	if err != nil {
		if errors.Is(err, httputil.ErrRetriesExhausted) {
			metrics.RecordRequest(metrics.APIReviews, "exhausted")
		}
		return Page{}, fmt.Errorf("fetching reviews for %s: %w", appid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordRequest(metrics.APIReviews, "permanent")
		return Page{}, fmt.Errorf("reviews for %s: %w: %d", appid, ErrUnexpectedStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, fmt.Errorf("reading reviews response: %w", err)
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		metrics.RecordRequest(metrics.APIReviews, "malformed")
		return Page{}, fmt.Errorf("parsing reviews for %s: %w", appid, err)
	}
	metrics.RecordRequest(metrics.APIReviews, "ok")
	return page, nil
}

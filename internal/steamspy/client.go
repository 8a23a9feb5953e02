// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package steamspy fetches game metadata from the SteamSpy API: single apps,
// single pages of the full catalogue, a resumable crawl over every page,
// and the current top games by concurrent players.
package steamspy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/steam-harvest/internal/httputil"
	"github.com/pdiddy/steam-harvest/internal/metrics"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

// DefaultBaseURL is the SteamSpy API endpoint.
const DefaultBaseURL = "https://steamspy.com/api.php"

var (
	// ErrPermanent is matched by failures that retrying cannot fix: any
	// non-200 status outside 5xx.
	ErrPermanent = errors.New("permanent upstream failure")

	// ErrNoData is returned by AppDetails when the body is empty.
	ErrNoData = errors.New("no data returned")
)

// StatusError reports a non-retryable HTTP status.
type StatusError struct {
	StatusCode int
	Request    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("SteamSpy %s returned HTTP %d", e.Request, e.StatusCode)
}

// Is reports whether target is ErrPermanent.
func (e *StatusError) Is(target error) bool { return target == ErrPermanent }

// Client talks to the SteamSpy API.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string

	// Retry controls handling of 5xx and transport failures.
	Retry httputil.Policy

	Logger *slog.Logger
}

// NewClient builds a Client from configuration.
func NewClient(httpClient *http.Client, cfg *types.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.SteamSpy.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		HTTP:      httpClient,
		BaseURL:   baseURL,
		UserAgent: cfg.HTTP.UserAgent,
		Retry: httputil.Policy{
			MaxRetries: cfg.SteamSpy.MaxRetries,
			Delay:      cfg.SteamSpy.RetryDelay,
			Logger:     logger,
			OnRetry:    metrics.RetryHook(metrics.APISteamSpy),
		},
		Logger: logger,
	}
}

// AppDetails fetches one app. Callers treat any error as "no data for this
// app"; none of them is fatal to a run.
func (c *Client) AppDetails(ctx context.Context, appid string) (types.RawRecord, error) {
	body, err := c.get(ctx, url.Values{"request": {"appdetails"}, "appid": {appid}})
	if err != nil {
		return nil, err
	}
	if isEmptyPayload(body) {
		metrics.RecordRequest(metrics.APISteamSpy, "empty")
		return nil, fmt.Errorf("appdetails %s: %w", appid, ErrNoData)
	}

	var rec types.RawRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		metrics.RecordRequest(metrics.APISteamSpy, "malformed")
		return nil, fmt.Errorf("parsing appdetails %s: %w", appid, err)
	}
	metrics.RecordRequest(metrics.APISteamSpy, "ok")
	return rec, nil
}

// AllPage fetches one page of request=all, keyed by app id. An empty
// payload is the end of the catalogue and yields an empty map with a nil
// error. An entry that is not a JSON object is logged and dropped; a null
// entry is kept as a nil record for the normalizer to reject.
func (c *Client) AllPage(ctx context.Context, page int) (map[string]types.RawRecord, error) {
	body, err := c.get(ctx, url.Values{"request": {"all"}, "page": {strconv.Itoa(page)}})
	if err != nil {
		return nil, err
	}
	if isEmptyPayload(body) {
		metrics.RecordRequest(metrics.APISteamSpy, "empty")
		return map[string]types.RawRecord{}, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		metrics.RecordRequest(metrics.APISteamSpy, "malformed")
		return nil, fmt.Errorf("parsing page %d: %w", page, err)
	}

	records := make(map[string]types.RawRecord, len(entries))
	for id, v := range entries {
		var rec types.RawRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			c.logger().Warn("dropping malformed entry", "page", page, "appid", id, "error", err)
			continue
		}
		records[id] = rec
	}
	metrics.RecordRequest(metrics.APISteamSpy, "ok")
	return records, nil
}

// get issues one GET with retry and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.BaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, c.Retry)
	if err != nil {
		if errors.Is(err, httputil.ErrRetriesExhausted) {
			metrics.RecordRequest(metrics.APISteamSpy, "exhausted")
		}
		return nil, fmt.Errorf("SteamSpy %s: %w", params.Get("request"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordRequest(metrics.APISteamSpy, "permanent")
		return nil, &StatusError{StatusCode: resp.StatusCode, Request: params.Get("request")}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading SteamSpy response: %w", err)
	}
	return body, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// isEmptyPayload reports whether body carries no records: nothing, null,
// an empty object, or an empty array.
func isEmptyPayload(body []byte) bool {
	switch string(bytes.Join(bytes.Fields(body), nil)) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}

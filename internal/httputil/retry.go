// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the upstream API clients.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// RetryDelay is the wait between attempts when a Policy leaves Delay unset.
// Tests override this to avoid real sleeps.
var RetryDelay = 5 * time.Second

// ErrRetriesExhausted is matched by the error DoWithRetry returns when every
// attempt ended in a transient failure.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Policy controls how DoWithRetry handles transient failures.
type Policy struct {
	// MaxRetries is the number of attempts made after the first one.
	MaxRetries int

	// Delay is the fixed wait between attempts; 0 means RetryDelay.
	Delay time.Duration

	// Logger receives one warning per retry. Nil means slog.Default().
	Logger *slog.Logger

	// OnRetry, when set, is called before each wait. Metrics hook in here.
	OnRetry func(attempt int, status int, err error)
}

// RetryError describes a request that failed transiently on every attempt.
type RetryError struct {
	Attempts   int
	StatusCode int // last HTTP status, 0 for transport errors
	Err        error
}

func (e *RetryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retries exhausted after %d attempts: HTTP %d", e.Attempts, e.StatusCode)
	}
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

// Is reports whether target is ErrRetriesExhausted.
func (e *RetryError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

func (e *RetryError) Unwrap() error { return e.Err }

// IsTransient reports whether an HTTP status is worth retrying.
func IsTransient(status int) bool {
	return status >= 500 && status <= 599
}

// DoWithRetry executes an HTTP request, retrying server errors (5xx) and
// transport errors with a fixed delay between attempts.
//
// A response with any other status, including non-200 ones, is returned as
// is for the caller to inspect; only transient failures are retried. When
// all 1 + MaxRetries attempts fail transiently the returned error is a
// *RetryError matching ErrRetriesExhausted. If the context is cancelled
// during a wait the function returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	delay := p.Delay
	if delay <= 0 {
		delay = RetryDelay
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		status := 0
		if err == nil {
			if !IsTransient(resp.StatusCode) {
				return resp, nil
			}
			status = resp.StatusCode
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			err = fmt.Errorf("HTTP %d", status)
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt >= maxRetries {
			return nil, &RetryError{Attempts: attempt + 1, StatusCode: status, Err: err}
		}

		logger.WarnContext(ctx, "transient failure, retrying",
			"url", req.URL.Redacted(),
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"status", status,
			"delay", delay,
			"error", err)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, status, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors updated by the pipeline.
// Runs are short-lived and triggered externally, so instead of serving
// /metrics the collectors are exported to a node-exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API label values.
const (
	APISteamSpy = "steamspy" // game metadata API
	APIReviews  = "reviews"  // Steam store review API
)

// Record kind label values.
const (
	KindGame   = "game"
	KindReview = "review"
)

var (
	// RequestsTotal counts upstream requests by api and outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steam_harvest_requests_total",
			Help: "Upstream requests by API and outcome (ok, empty, malformed, permanent, exhausted)",
		},
		[]string{"api", "outcome"},
	)

	// RetriesTotal counts retries after transient failures, by api.
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steam_harvest_retries_total",
			Help: "Retries issued after transient upstream failures",
		},
		[]string{"api"},
	)

	// PagesTotal counts fetch-all pages by outcome.
	PagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steam_harvest_pages_total",
			Help: "Fetch-all pages by outcome (fetched, skipped, terminal)",
		},
		[]string{"outcome"},
	)

	// RecordsNormalized counts records normalized, by kind.
	RecordsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steam_harvest_records_normalized_total",
			Help: "Raw records normalized successfully",
		},
		[]string{"kind"},
	)

	// NormalizeFailures counts records dropped by the normalizer, by kind.
	NormalizeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steam_harvest_normalize_failures_total",
			Help: "Raw records skipped because they could not be normalized",
		},
		[]string{"kind"},
	)

	// RetentionDeleted counts files and directories removed by the sweeper.
	RetentionDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steam_harvest_retention_deleted_total",
			Help: "Files and directories removed by the retention sweeper",
		},
		[]string{"kind"},
	)

	// DatasetRows is the games.csv row count after the last merge.
	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "steam_harvest_dataset_rows",
			Help: "Rows in the canonical games dataset after the last merge",
		},
	)

	// LastSuccess is the Unix time of the last completed update run.
	LastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "steam_harvest_last_success_timestamp_seconds",
			Help: "Unix time of the last completed update run",
		},
	)
)

// RecordRequest counts one upstream request outcome.
func RecordRequest(api, outcome string) {
	RequestsTotal.WithLabelValues(api, outcome).Inc()
}

// RetryHook returns a function suitable for httputil.Policy.OnRetry.
func RetryHook(api string) func(int, int, error) {
	return func(int, int, error) {
		RetriesTotal.WithLabelValues(api).Inc()
	}
}

// MarkSuccess records the completion time of a run.
func MarkSuccess(t time.Time) {
	LastSuccess.Set(float64(t.Unix()))
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format. The parent directory is created when missing.
func WriteTextfile(path string) error {
	return writeTextfile(path, prometheus.DefaultGatherer)
}

func writeTextfile(path string, g prometheus.Gatherer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

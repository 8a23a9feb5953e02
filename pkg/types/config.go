// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"time"
)

// Configuration validation errors.
var (
	ErrEmptyDataDir      = errors.New("data_dir must not be empty")
	ErrInvalidTimeout    = errors.New("http.timeout must be positive")
	ErrInvalidRetries    = errors.New("max_retries must not be negative")
	ErrInvalidRetention  = errors.New("retention.years must be at least 1")
	ErrInvalidReviewPage = errors.New("reviews.num_per_page must be between 1 and 100")
)

// HTTPConfig holds shared HTTP settings used by both upstream clients.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// SteamSpyConfig holds settings for the game metadata API.
type SteamSpyConfig struct {
	// BaseURL is the SteamSpy endpoint (default https://steamspy.com/api.php).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// MaxRetries is the number of retries after a 5xx or transport failure.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// RetryDelay is the fixed wait between retry attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`

	// PageDelay is the mandatory pause between pages of request=all.
	// SteamSpy allows one such request per minute.
	PageDelay time.Duration `mapstructure:"page_delay" yaml:"page_delay"`

	// RequestDelay is the pause between appdetails requests.
	RequestDelay time.Duration `mapstructure:"request_delay" yaml:"request_delay"`

	// SkipAppID is a placeholder app the normalizer never emits.
	SkipAppID string `mapstructure:"skip_appid" yaml:"skip_appid"`

	// MaxPages bounds one fetch-all run; 0 means crawl to the end.
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`

	// TopCount is the number of games fetched in top mode.
	TopCount int `mapstructure:"top_count" yaml:"top_count"`
}

// ReviewsConfig holds settings for the Steam review API.
type ReviewsConfig struct {
	// BaseURL is the appreviews endpoint without the trailing app id.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	Language   string `mapstructure:"language" yaml:"language"`
	NumPerPage int    `mapstructure:"num_per_page" yaml:"num_per_page"`

	// MaxPages caps the pages collected per game (default 20).
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`

	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`

	// PageDelay is the pause between review pages of one game.
	PageDelay time.Duration `mapstructure:"page_delay" yaml:"page_delay"`

	// GameDelay is the pause between games during a scheduled update.
	GameDelay time.Duration `mapstructure:"game_delay" yaml:"game_delay"`

	// YearsBack is the review window collected by scheduled updates.
	YearsBack int `mapstructure:"years_back" yaml:"years_back"`
}

// RetentionConfig holds settings for the retention sweeper.
type RetentionConfig struct {
	// Years of data to keep. A year is a fixed 365 days.
	Years int `mapstructure:"years" yaml:"years"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`

	// File is an append-mode log file written next to console output.
	File string `mapstructure:"file" yaml:"file"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	// Textfile is a path for the node-exporter textfile collector. Empty
	// disables the export.
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Config groups all settings for steam-harvest.
type Config struct {
	// DataDir holds games.csv, snapshots, review directories, the crawl
	// progress file, and the run manifest.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	SteamSpy  SteamSpyConfig  `mapstructure:"steamspy" yaml:"steamspy"`
	Reviews   ReviewsConfig   `mapstructure:"reviews" yaml:"reviews"`
	Retention RetentionConfig `mapstructure:"retention" yaml:"retention"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "steam_data",
		HTTP: HTTPConfig{
			Timeout:   60 * time.Second,
			UserAgent: "steam-harvest/0.1",
		},
		SteamSpy: SteamSpyConfig{
			BaseURL:      "https://steamspy.com/api.php",
			MaxRetries:   3,
			RetryDelay:   5 * time.Second,
			PageDelay:    60 * time.Second,
			RequestDelay: 1 * time.Second,
			SkipAppID:    "999999",
			TopCount:     100,
		},
		Reviews: ReviewsConfig{
			BaseURL:    "https://store.steampowered.com/appreviews",
			Language:   "english",
			NumPerPage: 100,
			MaxPages:   20,
			MaxRetries: 3,
			RetryDelay: 5 * time.Second,
			PageDelay:  500 * time.Millisecond,
			GameDelay:  5 * time.Second,
			YearsBack:  5,
		},
		Retention: RetentionConfig{Years: 5},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "steam_updates.log",
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return ErrEmptyDataDir
	}
	if c.HTTP.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.SteamSpy.MaxRetries < 0 || c.Reviews.MaxRetries < 0 {
		return ErrInvalidRetries
	}
	if c.Retention.Years < 1 {
		return ErrInvalidRetention
	}
	if c.Reviews.NumPerPage < 1 || c.Reviews.NumPerPage > 100 {
		return ErrInvalidReviewPage
	}
	return nil
}

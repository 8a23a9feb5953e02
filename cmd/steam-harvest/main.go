// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the steam-harvest CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/steam-harvest/internal/logging"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Set by the root command before any subcommand runs.
var (
	appCfg    *types.Config
	logger    *slog.Logger
	logCloser io.Closer
	runID     string
)

// rootCmd is the base command for the steam-harvest CLI.
var rootCmd = &cobra.Command{
	Use:   "steam-harvest",
	Short: "Collect Steam game metadata and reviews into local CSV datasets",
	Long: `steam-harvest pulls game metadata from SteamSpy and user reviews from the
Steam store, normalizes both into tabular records, and keeps them as CSV files
under a data directory.

games.csv holds one row per game and only ever grows; each run also writes a
dated snapshot. Reviews are stored per game under <appid>_<name>/. Dated files
older than the retention window are removed by sweep. The update command runs
the whole cycle and is meant to be triggered by cron or a systemd timer.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./steam-harvest.yaml or ~/.config/steam-harvest/steam-harvest.yaml)")
	pf.String("data-dir", "", "directory for datasets, snapshots, reviews, and progress")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("log-file", "", "append-mode log file, relative to the data directory unless absolute")

	bindFlags()
}

// bindFlags binds the root persistent flags to their configuration keys.
func bindFlags() {
	pf := rootCmd.PersistentFlags()
	for _, bind := range []struct{ key, flag string }{
		{"data_dir", "data-dir"},
		{"log.level", "log-level"},
		{"log.format", "log-format"},
		{"log.file", "log-file"},
	} {
		if err := viper.BindPFlag(bind.key, pf.Lookup(bind.flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flag, err)
		}
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("steam-harvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "steam-harvest"))
		}
	}

	registerDefaults()
	configureEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configureEnv maps STEAM_HARVEST_<KEY> variables onto configuration keys,
// with '.' in a key written as '_'.
func configureEnv() {
	viper.SetEnvPrefix("STEAM_HARVEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// registerDefaults makes every key of the default configuration known to
// viper, so each one can be overridden from the environment.
func registerDefaults() {
	data, err := yaml.Marshal(types.DefaultConfig())
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	for key, value := range flatten("", tree) {
		viper.SetDefault(key, value)
	}
}

// flatten turns nested maps into dotted keys.
func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// loadConfig decodes viper's merged view of defaults, config file,
// environment, and flags.
func loadConfig() (*types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// logFilePath resolves the configured log file against the data directory.
func logFilePath(cfg *types.Config) string {
	if cfg.Log.File == "" || filepath.IsAbs(cfg.Log.File) {
		return cfg.Log.File
	}
	return filepath.Join(cfg.DataDir, cfg.Log.File)
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	l, closer, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		FilePath: logFilePath(cfg),
		Console:  true,
	})
	if err != nil {
		return err
	}

	runID = uuid.NewString()
	appCfg = cfg
	logger = l.With("run_id", runID)
	logCloser = closer
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", "command", cmd.CommandPath(), "data_dir", cfg.DataDir)
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if logCloser == nil {
		return nil
	}
	return logCloser.Close()
}

// skipSetup replaces the root hooks for commands that need neither
// configuration nor a logger.
func skipSetup(cmd *cobra.Command) {
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error { return nil }
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error { return nil }
}

func httpClient() *http.Client {
	return &http.Client{Timeout: appCfg.HTTP.Timeout}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/steam-harvest/internal/pipeline"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run one scheduled update",
	Long: `Update fetches games, merges them into games.csv and writes a snapshot,
collects recent reviews for the most played of them, sweeps expired files,
and records the run in last_update.yaml. It is meant to be run by cron or a
systemd timer; runs must not overlap.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	f := updateCmd.Flags()
	f.String("mode", pipeline.ModeTop, "game fetch mode: top or all")
	f.Int("count", 0, "games fetched in top mode (default: steamspy.top_count)")
	f.Int("review-limit", -1, "collect reviews for this many games by concurrent players; 0 for all (default: steamspy.top_count)")
	f.Bool("no-reviews", false, "skip review collection")
	f.Bool("no-sweep", false, "skip the retention sweep")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	opts := pipeline.Options{}
	opts.Mode, _ = f.GetString("mode")
	opts.TopCount, _ = f.GetInt("count")
	opts.ReviewLimit, _ = f.GetInt("review-limit")
	opts.SkipReviews, _ = f.GetBool("no-reviews")
	opts.SkipSweep, _ = f.GetBool("no-sweep")
	if opts.ReviewLimit < 0 {
		opts.ReviewLimit = appCfg.SteamSpy.TopCount
	}

	u := pipeline.New(appCfg, httpClient(), logger)
	u.NewRunID = func() string { return runID }

	m, err := u.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d games, %d dataset rows, %d reviews in %d files, %d files swept\n",
		m.RunID, m.GamesFetched, m.DatasetRows, m.ReviewsSaved, m.ReviewFiles, m.FilesDeleted)
	return nil
}

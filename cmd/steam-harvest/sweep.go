// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/steam-harvest/internal/retention"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete dated files older than the retention window",
	Long: `Sweep deletes steam_games_*.csv and steam_game_*.csv snapshots in the data
directory, and review files inside <appid>_<name>/ directories, whose
embedded YYYYMMDD_HHMMSS timestamp is older than the retention window. A year
is 365 days. Review directories left empty are removed. Files without a
readable timestamp are never deleted.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().Int("years", 0, "years of data to keep (default: retention.years)")
	sweepCmd.Flags().Bool("dry-run", false, "list expired files without deleting them")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	years := appCfg.Retention.Years
	if cmd.Flags().Changed("years") {
		years, _ = cmd.Flags().GetInt("years")
	}
	s := retention.NewSweeper(appCfg.DataDir, years, logger)
	s.DryRun, _ = cmd.Flags().GetBool("dry-run")

	res, err := s.Sweep()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if s.DryRun {
		for _, path := range res.Expired {
			fmt.Fprintln(out, path)
		}
		fmt.Fprintf(out, "%d files dated before %s would be deleted\n",
			len(res.Expired), retention.Cutoff(s.Now(), years).Format("2006-01-02 15:04:05"))
		return nil
	}
	fmt.Fprintf(out, "Deleted %d files, kept %d, skipped %d; removed %d directories; %d errors\n",
		res.FilesDeleted, res.FilesKept, res.FilesSkipped, res.DirsRemoved, res.Errors)
	if res.Errors > 0 {
		return fmt.Errorf("%d file(s) could not be swept", res.Errors)
	}
	return nil
}

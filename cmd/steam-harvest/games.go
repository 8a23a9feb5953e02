// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/steam-harvest/internal/dataset"
	"github.com/pdiddy/steam-harvest/internal/pipeline"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Fetch game metadata from SteamSpy",
	Long: `Games fetches game metadata from SteamSpy, normalizes it, merges it into
games.csv (rows already stored win over fresh ones), and writes a dated
snapshot of what was fetched.`,
}

var gamesAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Crawl every page of the SteamSpy catalogue",
	Long: `All requests every page of SteamSpy's full catalogue, one page per minute.
Progress is saved after each page, so an interrupted crawl resumes at the
next page on the following run.`,
	Args: cobra.NoArgs,
	RunE: runGamesAll,
}

var gamesTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Fetch the games with the most concurrent players",
	Args:  cobra.NoArgs,
	RunE:  runGamesTop,
}

var gamesAppCmd = &cobra.Command{
	Use:   "app <appid>",
	Short: "Fetch one game and write it to a dated snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runGamesApp,
}

func init() {
	gamesAllCmd.Flags().Int("max-pages", 0, "stop after this many pages, keeping progress (default: steamspy.max_pages)")
	gamesAllCmd.Flags().Duration("page-delay", 0, "delay between pages (default: steamspy.page_delay)")
	gamesTopCmd.Flags().Int("count", 0, "number of games (default: steamspy.top_count)")

	gamesCmd.AddCommand(gamesAllCmd, gamesTopCmd, gamesAppCmd)
	rootCmd.AddCommand(gamesCmd)
}

func runGamesAll(cmd *cobra.Command, args []string) error {
	if n, _ := cmd.Flags().GetInt("max-pages"); n > 0 {
		appCfg.SteamSpy.MaxPages = n
	}
	if d, _ := cmd.Flags().GetDuration("page-delay"); d > 0 {
		appCfg.SteamSpy.PageDelay = d
	}
	return runGames(cmd, pipeline.Options{Mode: pipeline.ModeAll})
}

func runGamesTop(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("count")
	return runGames(cmd, pipeline.Options{Mode: pipeline.ModeTop, TopCount: n})
}

func runGames(cmd *cobra.Command, opts pipeline.Options) error {
	u := pipeline.New(appCfg, httpClient(), logger)
	m := types.RunManifest{RunID: runID, Mode: opts.Mode}

	games, err := u.UpdateGames(cmd.Context(), opts, &m)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Mode == pipeline.ModeAll {
		state := "incomplete, will resume next run"
		if m.CrawlComplete {
			state = "complete"
		}
		fmt.Fprintf(out, "Crawl %s: %d pages fetched, %d skipped\n", state, m.PagesFetched, m.PagesSkipped)
	}
	if len(games) == 0 {
		fmt.Fprintln(out, "No games fetched")
		return nil
	}
	fmt.Fprintf(out, "Fetched %d games; %s now has %d rows\n", m.GamesFetched, u.DatasetPath(), m.DatasetRows)
	fmt.Fprintf(out, "Snapshot: %s\n", m.SnapshotPath)
	return nil
}

func runGamesApp(cmd *cobra.Command, args []string) error {
	appid := args[0]
	u := pipeline.New(appCfg, httpClient(), logger)

	rec, err := u.SteamSpy.AppDetails(cmd.Context(), appid)
	if err != nil {
		return fmt.Errorf("fetching app %s: %w", appid, err)
	}
	game, err := u.Normalizer.Game(appid, rec)
	if err != nil {
		return fmt.Errorf("normalizing app %s: %w", appid, err)
	}

	path, err := dataset.SaveSnapshot(appCfg.DataDir, "steam_game_"+appid, dataset.GameRows([]types.Game{game}), time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %d-%d owners, %d concurrent players\n",
		game.Name, appid, game.OwnersMin, game.OwnersMax, game.CCU)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", path)
	return nil
}

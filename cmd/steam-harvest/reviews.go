// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/steam-harvest/internal/dataset"
	"github.com/pdiddy/steam-harvest/internal/pipeline"
	"github.com/pdiddy/steam-harvest/internal/reviews"
	"github.com/pdiddy/steam-harvest/internal/sample"
	"github.com/pdiddy/steam-harvest/pkg/types"
)

const dateLayout = "2006-01-02"

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Collect user reviews from the Steam store",
}

var reviewsFetchCmd = &cobra.Command{
	Use:   "fetch <appid>",
	Short: "Collect reviews for one game",
	Long: `Fetch pages through a game's reviews, newest first, and saves those inside
the requested window to <data_dir>/<appid>_<name>/. Without --from, --to or
--all the window is the last reviews.years_back years. At most
reviews.max_pages pages are read.`,
	Args: cobra.ExactArgs(1),
	RunE: runReviewsFetch,
}

var reviewsSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Collect reviews for a stratified sample of games.csv",
	Long: `Sample ranks the games in games.csv by --metric, splits them into --buckets
groups of equal size, picks --per-bucket games at random from each group,
and collects their recent reviews.`,
	Args: cobra.NoArgs,
	RunE: runReviewsSample,
}

func init() {
	f := reviewsFetchCmd.Flags()
	f.String("name", "", "game name used in file names (default: looked up in games.csv)")
	f.String("language", "", "review language (default: reviews.language)")
	f.String("from", "", "oldest review date, YYYY-MM-DD")
	f.String("to", "", "newest review date, YYYY-MM-DD")
	f.Bool("all", false, "ignore the time window")

	s := reviewsSampleCmd.Flags()
	s.Int("per-bucket", 2, "games picked from each bucket")
	s.Int("buckets", 5, "number of equal-sized groups")
	s.Uint64("seed", 0, "random seed (default: current time)")
	s.String("metric", "owners_estimate", "games.csv column to rank by")

	reviewsCmd.AddCommand(reviewsFetchCmd, reviewsSampleCmd)
	rootCmd.AddCommand(reviewsCmd)
}

// reviewWindow builds the collection window from the fetch flags.
func reviewWindow(cmd *cobra.Command, now time.Time, yearsBack int) (reviews.Window, error) {
	if all, _ := cmd.Flags().GetBool("all"); all {
		return reviews.Window{}, nil
	}
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	if from == "" && to == "" {
		return reviews.RecentWindow(now, yearsBack), nil
	}

	var w reviews.Window
	if from != "" {
		t, err := time.ParseInLocation(dateLayout, from, now.Location())
		if err != nil {
			return w, fmt.Errorf("invalid --from: %w", err)
		}
		w.Start = t
	}
	if to != "" {
		t, err := time.ParseInLocation(dateLayout, to, now.Location())
		if err != nil {
			return w, fmt.Errorf("invalid --to: %w", err)
		}
		// Include the whole end day.
		w.End = t.AddDate(0, 0, 1).Add(-time.Second)
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return w, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return w, nil
}

// lookupName finds a game's name in the dataset; "" when absent.
func lookupName(path, appid string) string {
	rows, err := dataset.Read(path)
	if err != nil {
		return ""
	}
	for _, r := range rows {
		if id, _ := r.Get("appid"); id == appid {
			name, _ := r.Get("name")
			return name
		}
	}
	return ""
}

func runReviewsFetch(cmd *cobra.Command, args []string) error {
	appid := args[0]
	if lang, _ := cmd.Flags().GetString("language"); lang != "" {
		appCfg.Reviews.Language = lang
	}
	u := pipeline.New(appCfg, httpClient(), logger)

	now := time.Now()
	w, err := reviewWindow(cmd, now, appCfg.Reviews.YearsBack)
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = lookupName(u.DatasetPath(), appid)
	}

	rs, collectErr := u.Collector.Collect(cmd.Context(), appid, name, w)
	path, err := reviews.Save(appCfg.DataDir, appid, name, rs, now)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path == "" {
		fmt.Fprintf(out, "No reviews collected for %s\n", appid)
	} else {
		fmt.Fprintf(out, "Saved %d reviews to %s\n", len(rs), path)
	}
	if collectErr != nil {
		return fmt.Errorf("collection stopped early: %w", collectErr)
	}
	return nil
}

func runReviewsSample(cmd *cobra.Command, args []string) error {
	perBucket, _ := cmd.Flags().GetInt("per-bucket")
	buckets, _ := cmd.Flags().GetInt("buckets")
	seed, _ := cmd.Flags().GetUint64("seed")
	metric, _ := cmd.Flags().GetString("metric")
	if !cmd.Flags().Changed("seed") {
		seed = uint64(time.Now().UnixNano())
	}

	u := pipeline.New(appCfg, httpClient(), logger)
	rows, err := dataset.Read(u.DatasetPath())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s is empty; run games top or games all first", u.DatasetPath())
	}

	picks, err := sample.Quantiles(sample.CandidatesFromRows(rows, metric), buckets, perBucket, rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		return err
	}
	games := make([]types.Game, len(picks))
	for i, p := range picks {
		games[i] = types.Game{AppID: p.AppID, Name: p.Name}
		logger.Info("sampled game", "appid", p.AppID, "name", p.Name, "bucket", p.Bucket, metric, p.Score)
	}

	m := types.RunManifest{RunID: runID, Mode: "sample"}
	if err := u.CollectReviews(cmd.Context(), games, &m); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sampled %d games (seed %d): %d review files, %d reviews, %d errors\n",
		len(games), seed, m.ReviewFiles, m.ReviewsSaved, m.ReviewErrors)
	return nil
}

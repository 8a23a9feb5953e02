// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strconv"
	"time"
)

// ReviewFields lists the review file columns in file order. game_id comes
// first so review files join directly against the games dataset.
var ReviewFields = []string{
	"game_id",
	"game_name",
	"recommendationid",
	"author_steamid",
	"playtime_at_review_minutes",
	"playtime_forever_minutes",
	"playtime_last_two_weeks_minutes",
	"last_played",
	"review_text",
	"timestamp_created",
	"timestamp_updated",
	"voted_up",
	"votes_up",
	"votes_funny",
	"weighted_vote_score",
	"steam_purchase",
	"received_for_free",
	"written_during_early_access",
	"collection_timestamp",
}

// Review is one normalized Steam user review.
type Review struct {
	GameID           string `json:"game_id" yaml:"game_id"`
	GameName         string `json:"game_name" yaml:"game_name"`
	RecommendationID string `json:"recommendationid" yaml:"recommendationid"`
	AuthorSteamID    string `json:"author_steamid" yaml:"author_steamid"`

	PlaytimeAtReview     int64 `json:"playtime_at_review_minutes" yaml:"playtime_at_review_minutes"`
	PlaytimeForever      int64 `json:"playtime_forever_minutes" yaml:"playtime_forever_minutes"`
	PlaytimeLastTwoWeeks int64 `json:"playtime_last_two_weeks_minutes" yaml:"playtime_last_two_weeks_minutes"`

	// LastPlayed and the Timestamp fields are Unix seconds as Steam reports them.
	LastPlayed       int64  `json:"last_played" yaml:"last_played"`
	Text             string `json:"review_text" yaml:"review_text"`
	TimestampCreated int64  `json:"timestamp_created" yaml:"timestamp_created"`
	TimestampUpdated int64  `json:"timestamp_updated" yaml:"timestamp_updated"`

	VotedUp           bool   `json:"voted_up" yaml:"voted_up"`
	VotesUp           int64  `json:"votes_up" yaml:"votes_up"`
	VotesFunny        int64  `json:"votes_funny" yaml:"votes_funny"`
	WeightedVoteScore string `json:"weighted_vote_score" yaml:"weighted_vote_score"`

	SteamPurchase            bool `json:"steam_purchase" yaml:"steam_purchase"`
	ReceivedForFree          bool `json:"received_for_free" yaml:"received_for_free"`
	WrittenDuringEarlyAccess bool `json:"written_during_early_access" yaml:"written_during_early_access"`

	CollectedAt time.Time `json:"collection_timestamp" yaml:"collection_timestamp"`
}

// Values returns the review's fields as strings, aligned with ReviewFields.
func (r Review) Values() []string {
	i := strconv.FormatInt
	b := strconv.FormatBool
	return []string{
		r.GameID,
		r.GameName,
		r.RecommendationID,
		r.AuthorSteamID,
		i(r.PlaytimeAtReview, 10),
		i(r.PlaytimeForever, 10),
		i(r.PlaytimeLastTwoWeeks, 10),
		i(r.LastPlayed, 10),
		r.Text,
		i(r.TimestampCreated, 10),
		i(r.TimestampUpdated, 10),
		b(r.VotedUp),
		i(r.VotesUp, 10),
		i(r.VotesFunny, 10),
		r.WeightedVoteScore,
		b(r.SteamPurchase),
		b(r.ReceivedForFree),
		b(r.WrittenDuringEarlyAccess),
		r.CollectedAt.Format(time.RFC3339Nano),
	}
}

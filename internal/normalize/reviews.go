// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"errors"
	"fmt"

	"github.com/pdiddy/steam-harvest/pkg/types"
)

// ErrMissingRecommendationID is returned for a review without an id.
var ErrMissingRecommendationID = errors.New("review has no recommendationid")

// Review normalizes one entry of an appreviews response for the given game.
func (n *Normalizer) Review(appid, gameName string, rec types.RawRecord) (types.Review, error) {
	if rec == nil {
		return types.Review{}, ErrNullRecord
	}

	id, err := stringField(rec, "recommendationid")
	if err != nil {
		return types.Review{}, err
	}
	if id == "" {
		return types.Review{}, ErrMissingRecommendationID
	}

	text, err := stringField(rec, "review")
	if err != nil {
		return types.Review{}, fmt.Errorf("review %s: %w", id, err)
	}
	score, err := stringField(rec, "weighted_vote_score")
	if err != nil {
		return types.Review{}, fmt.Errorf("review %s: %w", id, err)
	}
	if score == "" {
		score = "0"
	}

	author := objectField(rec, "author")
	steamID, err := stringField(author, "steamid")
	if err != nil {
		return types.Review{}, fmt.Errorf("review %s author: %w", id, err)
	}

	return types.Review{
		GameID:                   appid,
		GameName:                 gameName,
		RecommendationID:         id,
		AuthorSteamID:            steamID,
		PlaytimeAtReview:         intField(author, "playtime_at_review"),
		PlaytimeForever:          intField(author, "playtime_forever"),
		PlaytimeLastTwoWeeks:     intField(author, "playtime_last_two_weeks"),
		LastPlayed:               intField(author, "last_played"),
		Text:                     text,
		TimestampCreated:         intField(rec, "timestamp_created"),
		TimestampUpdated:         intField(rec, "timestamp_updated"),
		VotedUp:                  boolField(rec, "voted_up"),
		VotesUp:                  intField(rec, "votes_up"),
		VotesFunny:               intField(rec, "votes_funny"),
		WeightedVoteScore:        score,
		SteamPurchase:            boolField(rec, "steam_purchase"),
		ReceivedForFree:          boolField(rec, "received_for_free"),
		WrittenDuringEarlyAccess: boolField(rec, "written_during_early_access"),
		CollectedAt:              n.now(),
	}, nil
}

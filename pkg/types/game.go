// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strconv"
	"time"
)

// GameFields lists the dataset columns for a normalized game in file order.
var GameFields = []string{
	"appid",
	"name",
	"developer",
	"publisher",
	"owners_min",
	"owners_max",
	"owners_estimate",
	"average_playtime_forever",
	"average_playtime_2weeks",
	"median_playtime_forever",
	"median_playtime_2weeks",
	"ccu",
	"price_cents",
	"initial_price_cents",
	"discount_percent",
	"languages",
	"genre",
	"tags",
	"positive_reviews",
	"negative_reviews",
	"revenue_estimate",
	"collection_timestamp",
}

// Game is the normalized form of one SteamSpy app record. Every field has a
// defined default so a Game always carries the full column set.
type Game struct {
	AppID     string `json:"appid" yaml:"appid"`
	Name      string `json:"name" yaml:"name"`
	Developer string `json:"developer" yaml:"developer"`
	Publisher string `json:"publisher" yaml:"publisher"`

	// OwnersMin and OwnersMax come from SteamSpy's "<min> .. <max>" range.
	OwnersMin int64 `json:"owners_min" yaml:"owners_min"`
	OwnersMax int64 `json:"owners_max" yaml:"owners_max"`

	// OwnersEstimate is the floor midpoint of the owner range.
	OwnersEstimate int64 `json:"owners_estimate" yaml:"owners_estimate"`

	AveragePlaytimeForever int64 `json:"average_playtime_forever" yaml:"average_playtime_forever"`
	AveragePlaytime2Weeks  int64 `json:"average_playtime_2weeks" yaml:"average_playtime_2weeks"`
	MedianPlaytimeForever  int64 `json:"median_playtime_forever" yaml:"median_playtime_forever"`
	MedianPlaytime2Weeks   int64 `json:"median_playtime_2weeks" yaml:"median_playtime_2weeks"`

	// CCU is the peak concurrent user count reported for the previous day.
	CCU int64 `json:"ccu" yaml:"ccu"`

	PriceCents        int64 `json:"price_cents" yaml:"price_cents"`
	InitialPriceCents int64 `json:"initial_price_cents" yaml:"initial_price_cents"`
	DiscountPercent   int64 `json:"discount_percent" yaml:"discount_percent"`

	Languages string `json:"languages" yaml:"languages"`
	Genre     string `json:"genre" yaml:"genre"`

	// Tags is a JSON object string mapping tag name to vote count.
	Tags string `json:"tags" yaml:"tags"`

	PositiveReviews int64 `json:"positive_reviews" yaml:"positive_reviews"`
	NegativeReviews int64 `json:"negative_reviews" yaml:"negative_reviews"`

	// RevenueEstimate is OwnersEstimate * PriceCents / 100, in currency units.
	RevenueEstimate float64 `json:"revenue_estimate" yaml:"revenue_estimate"`

	CollectedAt time.Time `json:"collection_timestamp" yaml:"collection_timestamp"`
}

// Values returns the game's fields as strings, aligned with GameFields.
func (g Game) Values() []string {
	i := strconv.FormatInt
	return []string{
		g.AppID,
		g.Name,
		g.Developer,
		g.Publisher,
		i(g.OwnersMin, 10),
		i(g.OwnersMax, 10),
		i(g.OwnersEstimate, 10),
		i(g.AveragePlaytimeForever, 10),
		i(g.AveragePlaytime2Weeks, 10),
		i(g.MedianPlaytimeForever, 10),
		i(g.MedianPlaytime2Weeks, 10),
		i(g.CCU, 10),
		i(g.PriceCents, 10),
		i(g.InitialPriceCents, 10),
		i(g.DiscountPercent, 10),
		g.Languages,
		g.Genre,
		g.Tags,
		i(g.PositiveReviews, 10),
		i(g.NegativeReviews, 10),
		strconv.FormatFloat(g.RevenueEstimate, 'f', -1, 64),
		g.CollectedAt.Format(time.RFC3339Nano),
	}
}

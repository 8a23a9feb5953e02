// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sample picks a stratified subset of games so review collection
// covers popular and obscure titles alike.
package sample

import (
	"errors"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/steam-harvest/internal/dataset"
)

// ErrInvalidBuckets is returned when buckets or perBucket is not positive.
var ErrInvalidBuckets = errors.New("buckets and per-bucket count must be positive")

// Candidate is one game eligible for sampling.
type Candidate struct {
	AppID string
	Name  string
	Score float64
}

// Pick is a sampled candidate and the bucket it came from; bucket 0 holds
// the highest scores.
type Pick struct {
	Candidate
	Bucket int
}

// CandidatesFromRows reads candidates from dataset rows. Score comes from
// scoreField; an unparsable or missing score counts as 0. Rows without an
// appid are skipped.
func CandidatesFromRows(rows []dataset.Row, scoreField string) []Candidate {
	out := make([]Candidate, 0, len(rows))
	for _, r := range rows {
		id, _ := r.Get("appid")
		if id == "" {
			continue
		}
		name, _ := r.Get("name")
		raw, _ := r.Get(scoreField)
		score, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			score = 0
		}
		out = append(out, Candidate{AppID: id, Name: name, Score: score})
	}
	return out
}

// Quantiles ranks candidates by score, highest first, splits them into
// buckets groups of equal size (the first n%buckets groups take one extra)
// and picks up to perBucket candidates at random from each group. Picks
// are returned bucket by bucket.
func Quantiles(cands []Candidate, buckets, perBucket int, rng *rand.Rand) ([]Pick, error) {
	if buckets <= 0 || perBucket <= 0 {
		return nil, ErrInvalidBuckets
	}
	ranked := append([]Candidate(nil), cands...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	var picks []Pick
	for b, group := range split(ranked, buckets) {
		idx := rng.Perm(len(group))
		if len(idx) > perBucket {
			idx = idx[:perBucket]
		}
		sort.Ints(idx)
		for _, i := range idx {
			picks = append(picks, Pick{Candidate: group[i], Bucket: b})
		}
	}
	return picks, nil
}

// split cuts ranked into n contiguous groups whose sizes differ by at most
// one, larger groups first.
func split(ranked []Candidate, n int) [][]Candidate {
	groups := make([][]Candidate, n)
	size, extra := len(ranked)/n, len(ranked)%n
	start := 0
	for i := range groups {
		end := start + size
		if i < extra {
			end++
		}
		groups[i] = ranked[start:end]
		start = end
	}
	return groups
}

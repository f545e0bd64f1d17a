// Package scoring turns peer ratings into round and cumulative totals.
// Everything here is pure; the room owns the data and calls in.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"wordrush/internal/model"
)

// Rating bounds accepted from players
const (
	MinRating = 0
	MaxRating = 2
)

const epsilon = 1e-9

// Policy collapses an average peer rating into the value scored when
// precise scoring is off
type Policy func(avg float64) float64

var policies = map[string]Policy{
	"nearest":   Nearest,
	"floor":     math.Floor,
	"ceil":      math.Ceil,
	"half_even": math.RoundToEven,
}

// Nearest rounds half away from zero, so 0.5 becomes 1 and 1.5 becomes 2
func Nearest(avg float64) float64 {
	return math.Round(avg)
}

// PolicyByName resolves a configured policy name
func PolicyByName(name string) (Policy, error) {
	p, ok := policies[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown scoring rounding policy %q", name)
	}
	return p, nil
}

// Collapse reduces the ratings one answer received to a single value.
// ok is false when there are no ratings, meaning the entry is absent.
func Collapse(ratings []int, precise bool, policy Policy) (value float64, ok bool) {
	if len(ratings) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	if precise {
		return avg, true
	}
	if policy == nil {
		policy = Nearest
	}
	return policy(avg), true
}

// Round is the scoring input for one round
type Round struct {
	// Players in join order; every listed player gets a total
	Players    []string
	Categories []string
	// Answers is player -> category -> text
	Answers map[string]map[string]string
	// Ratings is rated player -> category -> rater -> rating
	Ratings map[string]map[string]map[string]int
}

// Outcome holds per-category scores and round totals.
// A player/category pair with no peer ratings is missing from Scores.
type Outcome struct {
	Scores map[string]map[string]float64
	Totals map[string]float64
}

// Score computes a round outcome. Only ratings given by other players count;
// a blank answer scores zero whatever it was rated.
func Score(r Round, precise bool, policy Policy) Outcome {
	out := Outcome{
		Scores: make(map[string]map[string]float64, len(r.Players)),
		Totals: make(map[string]float64, len(r.Players)),
	}
	for _, pid := range r.Players {
		perCat := make(map[string]float64, len(r.Categories))
		total := 0.0
		for _, cat := range r.Categories {
			if strings.TrimSpace(r.Answers[pid][cat]) == "" {
				perCat[cat] = 0
				continue
			}
			var peer []int
			for rater, rating := range r.Ratings[pid][cat] {
				if rater == pid {
					continue
				}
				peer = append(peer, rating)
			}
			if v, ok := Collapse(peer, precise, policy); ok {
				perCat[cat] = v
				total += v
			}
		}
		out.Scores[pid] = perCat
		out.Totals[pid] = total
	}
	return out
}

// Accumulate adds round totals to a running total, returning a new map
func Accumulate(cumulative, round map[string]float64) map[string]float64 {
	next := make(map[string]float64, len(cumulative)+len(round))
	for pid, v := range cumulative {
		next[pid] = v
	}
	for pid, v := range round {
		next[pid] += v
	}
	return next
}

// Top finds the highest score among order. Ties are reported in order,
// and an empty order yields an empty standing.
func Top(scores map[string]float64, order []string) model.Standing {
	st := model.Standing{PlayerIDs: []string{}}
	first := true
	for _, pid := range order {
		v := scores[pid]
		switch {
		case first || v > st.Score+epsilon:
			st.Score = v
			st.PlayerIDs = []string{pid}
			first = false
		case math.Abs(v-st.Score) <= epsilon:
			st.PlayerIDs = append(st.PlayerIDs, pid)
		}
	}
	st.Tied = len(st.PlayerIDs) > 1
	return st
}

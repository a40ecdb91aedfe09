// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rcv

import (
	"github.com/danielhkuo/quorum/models"
)

// Resolve runs instant-runoff over ballots and returns the winner.
// It returns false when there are no candidates or no ballots.
func Resolve(candidates []string, ballots []models.Ballot) (models.Result, bool) {
	if len(candidates) == 0 || len(ballots) == 0 {
		return models.Result{}, false
	}

	// Active set keeps the original candidate order
	active := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			active = append(active, c)
		}
	}

	ranked := rankBallots(ballots, seen)

	var history []models.Round
	rounds := 0
	for len(active) > 0 {
		rounds++
		counts, total := tally(ranked, active)
		round := models.Round{Counts: counts}

		// A lone candidate wins outright, even if no ballot names it
		if len(active) == 1 {
			history = append(history, round)
			return models.Result{Winner: active[0], Method: models.MethodMajority, Rounds: rounds, History: history}, true
		}

		// Every remaining ballot is exhausted
		if total == 0 {
			history = append(history, round)
			break
		}

		// Sole leader with a majority of non-exhausted votes
		majority := total/2 + 1
		leaders, top := extremes(active, counts, func(a, b int) bool { return a > b })
		if len(leaders) == 1 && top >= majority {
			history = append(history, round)
			method := models.MethodRanked
			if rounds == 1 {
				method = models.MethodMajority
			}
			return models.Result{Winner: leaders[0], Method: method, Rounds: rounds, History: history}, true
		}

		// All bottom-tied candidates go out together; if that is everyone, stop
		losers, _ := extremes(active, counts, func(a, b int) bool { return a < b })
		if len(losers) == len(active) {
			history = append(history, round)
			break
		}
		round.Eliminated = losers
		history = append(history, round)
		active = without(active, losers)

		if len(active) == 1 {
			return models.Result{Winner: active[0], Method: models.MethodRanked, Rounds: rounds, History: history}, true
		}
	}

	winner, method := tieBreak(active, ranked)
	return models.Result{Winner: winner, Method: method, Rounds: rounds, History: history}, true
}

// rankBallots builds each ballot's choices restricted to the candidate set,
// deduplicated, in rank order.
func rankBallots(ballots []models.Ballot, candidates map[string]bool) [][]string {
	ranked := make([][]string, 0, len(ballots))
	for _, b := range ballots {
		list := make([]string, 0, 3)
		for _, c := range b.Choices() {
			if candidates[c] && !contains(list, c) {
				list = append(list, c)
			}
		}
		ranked = append(ranked, list)
	}
	return ranked
}

// tally gives each ballot's vote to its highest-ranked active choice.
func tally(ranked [][]string, active []string) (map[string]int, int) {
	counts := make(map[string]int, len(active))
	for _, c := range active {
		counts[c] = 0
	}

	total := 0
	for _, list := range ranked {
		for _, c := range list {
			if _, ok := counts[c]; ok {
				counts[c]++
				total++
				break
			}
		}
	}
	return counts, total
}

// extremes returns the active candidates whose count is best under better,
// in active order, along with that count.
func extremes(active []string, counts map[string]int, better func(a, b int) bool) ([]string, int) {
	var picked []string
	best := 0
	for i, c := range active {
		n := counts[c]
		switch {
		case i == 0 || better(n, best):
			best = n
			picked = []string{c}
		case n == best:
			picked = append(picked, c)
		}
	}
	return picked, best
}

// tieBreak scores the remaining candidates by rank position across all
// ballots. A strict leader wins with tie_break. Otherwise the earliest
// top-scored candidate in the original order wins with fallback; that choice
// is arbitrary but stable.
func tieBreak(remaining []string, ranked [][]string) (string, string) {
	scores := make(map[string]int, len(remaining))
	for _, c := range remaining {
		scores[c] = 0
	}
	for _, list := range ranked {
		for i, c := range list {
			if _, ok := scores[c]; ok {
				scores[c] += len(list) - i
			}
		}
	}

	leaders, _ := extremes(remaining, scores, func(a, b int) bool { return a > b })
	if len(leaders) == 1 {
		return leaders[0], models.MethodTieBreak
	}
	return leaders[0], models.MethodFallback
}

func without(list, drop []string) []string {
	out := list[:0:0]
	for _, c := range list {
		if !contains(drop, c) {
			out = append(out, c)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, c := range list {
		if c == s {
			return true
		}
	}
	return false
}

// Package scoring holds the pure ranking and score arithmetic used at round
// and game end.
package scoring

import (
	"math"
	"slices"
	"sort"

	"github.com/dom/trivia-night/internal/domain"
)

// UniqueSorted returns the distinct scores, best first. When lowerIsBetter is
// set the order is ascending.
func UniqueSorted(scores map[string]int, lowerIsBetter bool) []int {
	seen := make(map[int]struct{}, len(scores))
	unique := make([]int, 0, len(scores))
	for _, s := range scores {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
	}
	if lowerIsBetter {
		slices.Sort(unique)
	} else {
		sort.Sort(sort.Reverse(sort.IntSlice(unique)))
	}
	return unique
}

// GroupByScore groups teams tied on the same score, best group first. Teams
// inside a group are sorted by id; callers shuffle them to break ties.
func GroupByScore(scores map[string]int, lowerIsBetter bool) []domain.ScoreGroup {
	ordered := UniqueSorted(scores, lowerIsBetter)
	index := make(map[int]int, len(ordered))
	groups := make([]domain.ScoreGroup, len(ordered))
	for i, s := range ordered {
		index[s] = i
		groups[i] = domain.ScoreGroup{Score: s}
	}
	for team, s := range scores {
		i := index[s]
		groups[i].Teams = append(groups[i].Teams, team)
	}
	for i := range groups {
		slices.Sort(groups[i].Teams)
	}
	return groups
}

// RankingRewards gives every team of group i the reward table entry i, or 0
// past the end of the table.
func RankingRewards(groups []domain.ScoreGroup, table []int) map[string]int {
	rewards := make(map[string]int)
	for i, g := range groups {
		reward := 0
		if i < len(table) {
			reward = table[i]
		}
		for _, team := range g.Teams {
			rewards[team] = reward
		}
	}
	return rewards
}

// CompletionRate is round(100 * score / maxPoints). A non-positive maximum
// yields 0.
func CompletionRate(score, maxPoints int) int {
	if maxPoints <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(maxPoints)))
}

// FillProgress makes a progress map total over teams and ids. A missing
// entry inherits the previous id's cumulative value, starting from 0.
func FillProgress(progress map[string]map[string]int, teams, ids []string) map[string]map[string]int {
	filled := make(map[string]map[string]int, len(teams))
	for _, team := range teams {
		row := make(map[string]int, len(ids))
		prev := 0
		for _, id := range ids {
			if v, ok := progress[team][id]; ok {
				prev = v
			}
			row[id] = prev
		}
		filled[team] = row
	}
	return filled
}

// Ranks returns each team's dense position, 0 for the best score. Higher
// scores rank first.
func Ranks(scores map[string]int) map[string]int {
	ranks := make(map[string]int, len(scores))
	for i, g := range GroupByScore(scores, false) {
		for _, team := range g.Teams {
			ranks[team] = i
		}
	}
	return ranks
}

// RankDiff compares the previous ranking to the current one. A positive value
// means the team climbed. Teams missing from prev get nil.
func RankDiff(prev, cur map[string]int) map[string]*int {
	prevRanks := Ranks(prev)
	curRanks := Ranks(cur)
	diff := make(map[string]*int, len(cur))
	for team, r := range curRanks {
		p, ok := prevRanks[team]
		if !ok {
			diff[team] = nil
			continue
		}
		d := p - r
		diff[team] = &d
	}
	return diff
}

// Snapshot extracts the value of every team at one progress id.
func Snapshot(progress map[string]map[string]int, id string) map[string]int {
	out := make(map[string]int, len(progress))
	for team, row := range progress {
		out[team] = row[id]
	}
	return out
}

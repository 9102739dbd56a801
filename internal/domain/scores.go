package domain

// ScoreGroup is a set of teams tied on the same score.
type ScoreGroup struct {
	Score int      `json:"score"`
	Teams []string `json:"teams"`
}

// RoundSummary is written once, when the round ends.
type RoundSummary struct {
	Groups   []ScoreGroup    `json:"groups"`
	Rewards  map[string]int  `json:"rewards"`
	RankDiff map[string]*int `json:"rankDiff"`
}

// RoundScores holds the points earned inside one round. Progress maps team
// to question id to the cumulative round score after that question.
type RoundScores struct {
	Scores   map[string]int            `json:"scores"`
	Progress map[string]map[string]int `json:"progress"`
	// Assigned counts the questions each team played as chooser.
	Assigned map[string]int `json:"assigned"`
	Summary  *RoundSummary  `json:"summary"`
}

func NewRoundScores(teamIDs []string) *RoundScores {
	rs := &RoundScores{
		Scores:   make(map[string]int, len(teamIDs)),
		Progress: make(map[string]map[string]int, len(teamIDs)),
		Assigned: make(map[string]int, len(teamIDs)),
	}
	for _, id := range teamIDs {
		rs.Scores[id] = 0
		rs.Progress[id] = map[string]int{}
		rs.Assigned[id] = 0
	}
	return rs
}

// GameScores holds the global scores. Progress maps team to round id to the
// cumulative game score after that round.
type GameScores struct {
	Scores       map[string]int            `json:"scores"`
	Progress     map[string]map[string]int `json:"progress"`
	FinalRanking []ScoreGroup              `json:"finalRanking,omitempty"`
}

func NewGameScores(teamIDs []string) *GameScores {
	gs := &GameScores{
		Scores:   make(map[string]int, len(teamIDs)),
		Progress: make(map[string]map[string]int, len(teamIDs)),
	}
	for _, id := range teamIDs {
		gs.Scores[id] = 0
		gs.Progress[id] = map[string]int{}
	}
	return gs
}

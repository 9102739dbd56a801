package domain

import (
	"slices"
	"time"
)

// QuestionState is the runtime record of one question inside one round.
// Exactly one family field is set.
type QuestionState struct {
	QuestionID  string            `json:"questionId"`
	RoundID     string            `json:"roundId"`
	Type        RoundType         `json:"type"`
	DateStart   *time.Time        `json:"dateStart"`
	DateEnd     *time.Time        `json:"dateEnd"`
	Riddle      *RiddleState      `json:"riddle,omitempty"`
	Quote       *QuoteState       `json:"quote,omitempty"`
	Enumeration *EnumerationState `json:"enumeration,omitempty"`
	Matching    *MatchingState    `json:"matching,omitempty"`
	MCQ         *MCQState         `json:"mcq,omitempty"`
	OddOneOut   *OddOneOutState   `json:"oddOneOut,omitempty"`
	Basic       *BasicState       `json:"basic,omitempty"`
}

type Winner struct {
	PlayerID string `json:"playerId"`
	TeamID   string `json:"teamId"`
}

type CanceledBuzz struct {
	PlayerID  string    `json:"playerId"`
	ClueIdx   int       `json:"clueIdx"`
	Timestamp time.Time `json:"timestamp"`
}

// BuzzerState is the FIFO buzzer queue shared by riddle and quote questions.
type BuzzerState struct {
	Buzzed   []string       `json:"buzzed"`
	Canceled []CanceledBuzz `json:"canceled"`
	Blocked  []string       `json:"blocked"`
}

func (b *BuzzerState) Head() (string, bool) {
	if len(b.Buzzed) == 0 {
		return "", false
	}
	return b.Buzzed[0], true
}

func (b *BuzzerState) IsQueued(playerID string) bool {
	return slices.Contains(b.Buzzed, playerID)
}

func (b *BuzzerState) IsBlocked(playerID string) bool {
	return slices.Contains(b.Blocked, playerID)
}

// Remove deletes playerID from the queue and keeps everyone else in place.
func (b *BuzzerState) Remove(playerID string) bool {
	i := slices.Index(b.Buzzed, playerID)
	if i < 0 {
		return false
	}
	b.Buzzed = slices.Delete(b.Buzzed, i, i+1)
	return true
}

// Cancellations returns how many times playerID was invalidated and the clue
// index of the latest one.
func (b *BuzzerState) Cancellations(playerID string) (count, lastClue int) {
	lastClue = -1
	for _, c := range b.Canceled {
		if c.PlayerID == playerID {
			count++
			lastClue = c.ClueIdx
		}
	}
	return count, lastClue
}

type RiddleState struct {
	BuzzerState
	CurrentClueIdx int     `json:"currentClueIdx"`
	Winner         *Winner `json:"winner"`
}

// RevealEntry records when a quote element was exposed and, when a player
// earned it, by whom.
type RevealEntry struct {
	RevealedAt time.Time `json:"revealedAt"`
	PlayerID   *string   `json:"playerId"`
}

type QuoteState struct {
	BuzzerState
	Revealed      map[string]RevealEntry `json:"revealed"`
	RevealedParts map[int]RevealEntry    `json:"revealedParts"`
}

type EnumerationPhase string

const (
	EnumerationPhaseBetting   EnumerationPhase = "betting"
	EnumerationPhaseChallenge EnumerationPhase = "challenge"
	EnumerationPhaseEnded     EnumerationPhase = "ended"
)

type Bet struct {
	PlayerID  string    `json:"playerId"`
	TeamID    string    `json:"teamId"`
	Value     int       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

type Challenger struct {
	PlayerID string `json:"playerId"`
	TeamID   string `json:"teamId"`
	Bet      int    `json:"bet"`
	Cited    []int  `json:"cited"`
	Success  *bool  `json:"success"`
}

type EnumerationState struct {
	Phase      EnumerationPhase `json:"phase"`
	Bets       []Bet            `json:"bets"`
	Challenger *Challenger      `json:"challenger"`
}

// MatchNode is an item as displayed: a column and its shuffled position.
type MatchNode struct {
	Col int `json:"col"`
	Pos int `json:"pos"`
}

type MatchEdge struct {
	From MatchNode `json:"from"`
	To   MatchNode `json:"to"`
}

type CorrectMatch struct {
	TeamID    string      `json:"teamId"`
	Row       int         `json:"row"`
	Edges     []MatchEdge `json:"edges"`
	Timestamp time.Time   `json:"timestamp"`
}

// PartialMatch marks the longest run of columns that agree on a row.
type PartialMatch struct {
	StartCol int `json:"startCol"`
	Length   int `json:"length"`
}

type IncorrectMatch struct {
	TeamID    string        `json:"teamId"`
	Edges     []MatchEdge   `json:"edges"`
	Partial   *PartialMatch `json:"partial,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type MatchingState struct {
	// Shuffled[col][pos] is the original row displayed at pos.
	Shuffled  [][]int          `json:"shuffled"`
	Correct   []CorrectMatch   `json:"correct"`
	Incorrect []IncorrectMatch `json:"incorrect"`
}

// IsRowFound reports whether the original row was already matched.
func (m *MatchingState) IsRowFound(row int) bool {
	for _, c := range m.Correct {
		if c.Row == row {
			return true
		}
	}
	return false
}

type MCQState struct {
	PlayerID   *string `json:"playerId"`
	TeamID     *string `json:"teamId"`
	Option     *string `json:"option"`
	DuoChoices []int   `json:"duoChoices,omitempty"`
	Choice     *int    `json:"choice"`
	Correct    *bool   `json:"correct"`
	Reward     int     `json:"reward"`
}

type OddOneOutSelection struct {
	Idx       int       `json:"idx"`
	PlayerID  string    `json:"playerId"`
	TeamID    string    `json:"teamId"`
	Timestamp time.Time `json:"timestamp"`
}

type OddOneOutState struct {
	Selected []OddOneOutSelection `json:"selected"`
	// Winner is the player who picked the odd item. The team still pays the
	// mistake penalty.
	Winner *Winner `json:"winner"`
}

// IsSelected reports whether proposal idx was already picked.
func (o *OddOneOutState) IsSelected(idx int) bool {
	for _, s := range o.Selected {
		if s.Idx == idx {
			return true
		}
	}
	return false
}

type BasicState struct {
	TeamID  *string `json:"teamId"`
	Correct *bool   `json:"correct"`
	Reward  int     `json:"reward"`
}

package domain

import "time"

type RoundType string

const (
	RoundTypeProgressiveClues RoundType = "progressive_clues"
	RoundTypeImage            RoundType = "image"
	RoundTypeBlindtest        RoundType = "blindtest"
	RoundTypeEmoji            RoundType = "emoji"
	RoundTypeQuote            RoundType = "quote"
	RoundTypeEnumeration      RoundType = "enumeration"
	RoundTypeMatching         RoundType = "matching"
	RoundTypeMCQ              RoundType = "mcq"
	RoundTypeOddOneOut        RoundType = "odd_one_out"
	RoundTypeBasic            RoundType = "basic"
	RoundTypeSpecial          RoundType = "special"
)

// Family groups round types that share one resolver.
type Family string

const (
	FamilyRiddle      Family = "riddle"
	FamilyQuote       Family = "quote"
	FamilyEnumeration Family = "enumeration"
	FamilyMatching    Family = "matching"
	FamilyMCQ         Family = "mcq"
	FamilyOddOneOut   Family = "odd_one_out"
	FamilyBasic       Family = "basic"
	FamilySpecial     Family = "special"
)

var roundTypeFamilies = map[RoundType]Family{
	RoundTypeProgressiveClues: FamilyRiddle,
	RoundTypeImage:            FamilyRiddle,
	RoundTypeBlindtest:        FamilyRiddle,
	RoundTypeEmoji:            FamilyRiddle,
	RoundTypeQuote:            FamilyQuote,
	RoundTypeEnumeration:      FamilyEnumeration,
	RoundTypeMatching:         FamilyMatching,
	RoundTypeMCQ:              FamilyMCQ,
	RoundTypeOddOneOut:        FamilyOddOneOut,
	RoundTypeBasic:            FamilyBasic,
	RoundTypeSpecial:          FamilySpecial,
}

// Default thinking time in seconds per round type.
var defaultThinkingTimes = map[RoundType]int{
	RoundTypeProgressiveClues: 15,
	RoundTypeImage:            15,
	RoundTypeBlindtest:        30,
	RoundTypeEmoji:            30,
	RoundTypeQuote:            60,
	RoundTypeEnumeration:      60,
	RoundTypeMatching:         20,
	RoundTypeMCQ:              20,
	RoundTypeOddOneOut:        20,
	RoundTypeBasic:            30,
}

func (t RoundType) Valid() bool {
	_, ok := roundTypeFamilies[t]
	return ok
}

func (t RoundType) Family() Family {
	return roundTypeFamilies[t]
}

// IsTurnBased reports whether questions of this type are played by the
// chooser team only.
func (t RoundType) IsTurnBased() bool {
	switch t {
	case RoundTypeMCQ, RoundTypeBasic, RoundTypeOddOneOut, RoundTypeMatching:
		return true
	}
	return false
}

// LowerIsBetter is true for rounds whose scores count mistakes.
func (t RoundType) LowerIsBetter() bool {
	return t == RoundTypeOddOneOut || t == RoundTypeMatching
}

// RotatesChooserPerQuestion is true when the chooser steps once per question.
func (t RoundType) RotatesChooserPerQuestion() bool {
	return t == RoundTypeMCQ || t == RoundTypeBasic
}

func (t RoundType) DefaultThinkingTime() int {
	return defaultThinkingTimes[t]
}

type ScorePolicy string

const (
	ScorePolicyRanking        ScorePolicy = "ranking"
	ScorePolicyCompletionRate ScorePolicy = "completion_rate"
)

type Round struct {
	ID                   string         `json:"id"`
	GameID               string         `json:"gameId"`
	Type                 RoundType      `json:"type"`
	Title                string         `json:"title"`
	Order                *int           `json:"order"`
	QuestionIDs          []string       `json:"questionIds"`
	ThemeIDs             []string       `json:"themeIds,omitempty"`
	CurrentQuestionIndex int            `json:"currentQuestionIndex"`
	RewardsPerQuestion   int            `json:"rewardsPerQuestion"`
	RewardsPerElement    int            `json:"rewardsPerElement"`
	Bonus                int            `json:"bonus"`
	MistakePenalty       int            `json:"mistakePenalty"`
	MaxTries             int            `json:"maxTries"`
	ClueDelay            int            `json:"clueDelay"`
	ThinkingTime         int            `json:"thinkingTime"`
	RewardsByOption      map[string]int `json:"rewardsByOption,omitempty"`
	ScorePolicy          ScorePolicy    `json:"scorePolicy"`
	RewardsTable         []int          `json:"rewardsTable"`
	DateStart            *time.Time     `json:"dateStart"`
	DateEnd              *time.Time     `json:"dateEnd"`
}

// ThinkingSeconds is the countdown length armed for each question.
func (r *Round) ThinkingSeconds() int {
	if r.ThinkingTime > 0 {
		return r.ThinkingTime
	}
	return r.Type.DefaultThinkingTime()
}

// InProgress reports a round that started and has not ended.
func (r *Round) InProgress() bool {
	return r.DateStart != nil && r.DateEnd == nil
}

func (r *Round) Played() bool {
	return r.DateEnd != nil
}

// IsLastQuestion reports whether the current question is the last one.
func (r *Round) IsLastQuestion() bool {
	return r.CurrentQuestionIndex >= len(r.QuestionIDs)-1
}

// ElementReward is the reward for one quote element. It defaults to the
// per-question reward.
func (r *Round) ElementReward() int {
	if r.RewardsPerElement > 0 {
		return r.RewardsPerElement
	}
	return r.RewardsPerQuestion
}

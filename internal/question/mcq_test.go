package question_test

import (
	"testing"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/question"
	"github.com/dom/trivia-night/internal/store"
	"github.com/dom/trivia-night/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mcqRewards = map[string]int{
	domain.MCQOptionHide:   5,
	domain.MCQOptionSquare: 3,
	domain.MCQOptionDuo:    1,
}

func mcqGame(t *testing.T, subtype domain.MCQSubtype) *testutil.GameFixture {
	t.Helper()
	q := &domain.Question{
		ID:   "q1",
		Type: domain.RoundTypeMCQ,
		MCQ: &domain.MCQDetails{
			Subtype: subtype,
			Choices: []string{"Lyon", "Paris", "Nice", "Lille"},
			Answer:  1,
		},
	}
	return testutil.NewGameBuilder().
		WithRound(domain.Round{Type: domain.RoundTypeMCQ, RewardsPerQuestion: 2, RewardsByOption: mcqRewards}).
		WithQuestions(q).
		WithChooserOrder("B", "A", "C").
		Open().
		Build(t, store.NewMemory())
}

func choose(t *testing.T, f *testutil.GameFixture, playerID string, idx int) error {
	t.Helper()
	return f.Act(t, func(c *question.Context) error { return question.MCQ{}.SelectChoice(c, playerID, idx) })
}

func option(t *testing.T, f *testutil.GameFixture, playerID, opt string) error {
	t.Helper()
	return f.Act(t, func(c *question.Context) error { return question.MCQ{}.SelectOption(c, playerID, opt) })
}

func TestMaxReward(t *testing.T) {
	r := &domain.Round{RewardsPerQuestion: 2, RewardsByOption: mcqRewards}

	assert.Equal(t, 2, question.MaxReward(r, domain.MCQImmediate))
	assert.Equal(t, 5, question.MaxReward(r, domain.MCQConditional))
}

func TestMCQ_Immediate(t *testing.T) {
	tests := []struct {
		name   string
		choice int
		want   int
		sound  string
	}{
		{name: "right", choice: 1, want: 2, sound: domain.SoundCorrect},
		{name: "wrong", choice: 3, want: 0, sound: domain.SoundWrong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mcqGame(t, domain.MCQImmediate)

			require.NoError(t, choose(t, f, "b1", tt.choice))

			st := f.State(t).MCQ
			assert.Equal(t, tt.choice == 1, *st.Correct)
			assert.Equal(t, tt.want, st.Reward)
			assert.Equal(t, tt.want, f.RoundScores(t).Scores["B"])
			assert.Equal(t, []string{tt.sound}, f.Sounds(t))
			assert.Equal(t, domain.GameStatusQuestionEnd, f.Game(t).Status)
		})
	}
}

func TestMCQ_OnlyChooserAnswers(t *testing.T) {
	f := mcqGame(t, domain.MCQImmediate)

	assert.True(t, domain.IsInvalidAction(choose(t, f, "a1", 1)))
	assert.True(t, domain.IsIllegalChoice(choose(t, f, "b1", 4)))
	assert.Nil(t, f.State(t).MCQ.Correct)
}

func TestMCQ_ImmediateHasNoOptions(t *testing.T) {
	f := mcqGame(t, domain.MCQImmediate)

	assert.True(t, domain.IsInvalidAction(option(t, f, "b1", domain.MCQOptionSquare)))
}

func TestMCQ_ConditionalSquare(t *testing.T) {
	f := mcqGame(t, domain.MCQConditional)

	assert.True(t, domain.IsInvalidAction(choose(t, f, "b1", 1)), "an option comes first")
	assert.True(t, domain.IsIllegalChoice(option(t, f, "b1", "triple")))

	require.NoError(t, option(t, f, "b1", domain.MCQOptionSquare))
	require.NoError(t, option(t, f, "b1", domain.MCQOptionSquare))
	assert.True(t, domain.IsInvalidAction(option(t, f, "b1", domain.MCQOptionDuo)))

	require.NoError(t, choose(t, f, "b1", 1))
	assert.Equal(t, 3, f.RoundScores(t).Scores["B"])
}

func TestMCQ_ConditionalDuo(t *testing.T) {
	f := mcqGame(t, domain.MCQConditional)

	require.NoError(t, option(t, f, "b1", domain.MCQOptionDuo))

	duo := f.State(t).MCQ.DuoChoices
	require.Len(t, duo, 2)
	assert.Contains(t, duo, 1)

	offered := duo[0]
	if offered == 1 {
		offered = duo[1]
	}
	for idx := range 4 {
		if idx != 1 && idx != offered {
			assert.True(t, domain.IsIllegalChoice(choose(t, f, "b1", idx)))
		}
	}

	require.NoError(t, choose(t, f, "b1", 1))
	assert.Equal(t, 1, f.RoundScores(t).Scores["B"])
}

func TestMCQ_ConditionalHideIsJudged(t *testing.T) {
	f := mcqGame(t, domain.MCQConditional)
	judge := func(correct bool) error {
		return f.Act(t, func(c *question.Context) error { return question.MCQ{}.Judge(c, correct) })
	}

	assert.True(t, domain.IsInvalidAction(judge(true)), "nothing to judge yet")
	require.NoError(t, option(t, f, "b1", domain.MCQOptionHide))
	assert.True(t, domain.IsInvalidAction(choose(t, f, "b1", 1)))

	require.NoError(t, judge(true))

	assert.Equal(t, 5, f.RoundScores(t).Scores["B"])
	assert.Equal(t, domain.PlayerStatusCorrect, f.Roster(t).Players["b1"].Status)
	assert.Equal(t, domain.GameStatusQuestionEnd, f.Game(t).Status)
}

func TestMCQ_HandleCountdownExpiry(t *testing.T) {
	f := mcqGame(t, domain.MCQImmediate)

	require.NoError(t, f.Act(t, question.HandleCountdownExpiry))

	st := f.State(t).MCQ
	require.NotNil(t, st.Correct)
	assert.False(t, *st.Correct)
	assert.Equal(t, "B", *st.TeamID)
	assert.Equal(t, map[string]int{"A": 0, "B": 0, "C": 0}, f.RoundScores(t).Scores)
	assert.Equal(t, domain.GameStatusQuestionEnd, f.Game(t).Status)
}

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

func riddleGame(t *testing.T, typ domain.RoundType, r domain.Round, open bool) *testutil.GameFixture {
	t.Helper()
	r.Type = typ
	if r.RewardsPerQuestion == 0 {
		r.RewardsPerQuestion = 1
	}
	q := &domain.Question{
		ID:     "q1",
		Type:   typ,
		Title:  "Who is it?",
		Riddle: &domain.RiddleDetails{Clues: []string{"one", "two", "three", "four"}, Answer: "Napoleon"},
	}
	b := testutil.NewGameBuilder().WithPlayer("a2", "A").WithRound(r).WithQuestions(q)
	if open {
		b.Open()
	}
	return b.Build(t, store.NewMemory())
}

func buzz(t *testing.T, f *testutil.GameFixture, playerID string) error {
	t.Helper()
	return f.Act(t, func(c *question.Context) error { return question.Riddle{}.Buzz(c, playerID) })
}

func TestRiddle_BuzzRequiresOpenCountdown(t *testing.T) {
	f := riddleGame(t, domain.RoundTypeImage, domain.Round{}, false)

	err := buzz(t, f, "a1")

	assert.True(t, domain.IsInvalidAction(err))
	assert.Empty(t, f.State(t).Riddle.Buzzed)
}

func TestRiddle_BuzzQueueIsFIFO(t *testing.T) {
	f := riddleGame(t, domain.RoundTypeImage, domain.Round{}, true)

	require.NoError(t, buzz(t, f, "b1"))
	require.NoError(t, buzz(t, f, "a1"))
	require.NoError(t, buzz(t, f, "b1"))
	require.NoError(t, buzz(t, f, "c1"))

	assert.Equal(t, []string{"b1", "a1", "c1"}, f.State(t).Riddle.Buzzed)
	assert.Equal(t, domain.PlayerStatusReady, f.Roster(t).Players["b1"].Status)
	assert.Equal(t, []string{domain.SoundBuzz, domain.SoundBuzz, domain.SoundBuzz}, f.Sounds(t))

	require.NoError(t, f.Act(t, func(c *question.Context) error { return question.Riddle{}.Unbuzz(c, "a1") }))
	assert.Equal(t, []string{"b1", "c1"}, f.State(t).Riddle.Buzzed)
	assert.Equal(t, domain.PlayerStatusIdle, f.Roster(t).Players["a1"].Status)
}

func TestRiddle_UnknownPlayerCannotBuzz(t *testing.T) {
	f := riddleGame(t, domain.RoundTypeImage, domain.Round{}, true)

	err := buzz(t, f, "ghost")

	assert.True(t, domain.IsInvalidAction(err))
}

func TestRiddle_ValidateRewardsHeadAndEndsQuestion(t *testing.T) {
	f := riddleGame(t, domain.RoundTypeBlindtest, domain.Round{RewardsPerQuestion: 3}, true)
	require.NoError(t, buzz(t, f, "b1"))
	require.NoError(t, buzz(t, f, "a1"))
	genBefore := f.Timer(t).Generation

	err := f.Act(t, func(c *question.Context) error { return question.Riddle{}.Validate(c, "a1") })
	require.True(t, domain.IsInvalidAction(err), "only the head may be validated")

	require.NoError(t, f.Act(t, func(c *question.Context) error { return question.Riddle{}.Validate(c, "b1") }))

	st := f.State(t)
	require.NotNil(t, st.Riddle.Winner)
	assert.Equal(t, domain.Winner{PlayerID: "b1", TeamID: "B"}, *st.Riddle.Winner)
	assert.NotNil(t, st.DateEnd)

	rs := f.RoundScores(t)
	assert.Equal(t, map[string]int{"A": 0, "B": 3, "C": 0}, rs.Scores)
	assert.Equal(t, 3, rs.Progress["B"]["q1"])

	assert.Equal(t, domain.GameStatusQuestionEnd, f.Game(t).Status)
	tm := f.Timer(t)
	assert.Equal(t, genBefore+1, tm.Generation)
	assert.False(t, tm.Authorized)
	assert.Equal(t, domain.PlayerStatusCorrect, f.Roster(t).Players["b1"].Status)
}

func TestRiddle_ActionsAfterEndAreRejected(t *testing.T) {
	f := riddleGame(t, domain.RoundTypeEmoji, domain.Round{}, true)
	require.NoError(t, buzz(t, f, "a1"))
	require.NoError(t, f.Act(t, func(c *question.Context) error { return question.Riddle{}.Validate(c, "") }))

	err := buzz(t, f, "b1")

	assert.True(t, domain.IsInvalidAction(err))
	assert.Equal(t, map[string]int{"A": 1, "B": 0, "C": 0}, f.RoundScores(t).Scores)
}

func TestRiddle_InvalidateBlocksAfterMaxTries(t *testing.T) {
	f := riddleGame(t, domain.RoundTypeImage, domain.Round{MaxTries: 2}, true)

	for range 2 {
		require.NoError(t, buzz(t, f, "a1"))
		require.NoError(t, f.Act(t, func(c *question.Context) error { return question.Riddle{}.Invalidate(c, "a1") }))
	}

	st := f.State(t).Riddle
	assert.Empty(t, st.Buzzed)
	assert.Len(t, st.Canceled, 2)
	assert.Equal(t, []string{"a1"}, st.Blocked)
	assert.Equal(t, domain.PlayerStatusWrong, f.Roster(t).Players["a1"].Status)

	err := buzz(t, f, "a1")
	assert.True(t, domain.IsInvalidAction(err))

	// Teammates keep their own tries.
	assert.NoError(t, buzz(t, f, "a2"))
}

func TestRiddle_ClueDelay(t *testing.T) {
	f := riddleGame(t, domain.RoundTypeProgressiveClues, domain.Round{ClueDelay: 2}, true)
	advance := func() error {
		return f.Act(t, func(c *question.Context) error { return question.Riddle{}.AdvanceClue(c) })
	}

	require.NoError(t, buzz(t, f, "a1"))
	require.NoError(t, f.Act(t, func(c *question.Context) error { return question.Riddle{}.Invalidate(c, "") }))
	assert.True(t, domain.IsInvalidAction(buzz(t, f, "a1")))

	require.NoError(t, advance())
	assert.True(t, domain.IsInvalidAction(buzz(t, f, "a1")))
	assert.Equal(t, domain.PlayerStatusWrong, f.Roster(t).Players["a1"].Status)

	require.NoError(t, advance())
	assert.Equal(t, domain.PlayerStatusIdle, f.Roster(t).Players["a1"].Status)
	assert.NoError(t, buzz(t, f, "a1"))
	assert.Equal(t, 2, f.State(t).Riddle.CurrentClueIdx)
}

func TestRiddle_ClueDelayIgnoredWithoutClues(t *testing.T) {
	f := riddleGame(t, domain.RoundTypeImage, domain.Round{ClueDelay: 2}, true)

	require.NoError(t, buzz(t, f, "a1"))
	require.NoError(t, f.Act(t, func(c *question.Context) error { return question.Riddle{}.Invalidate(c, "") }))

	// An image never shows another clue, so a1 can try again right away.
	require.NoError(t, buzz(t, f, "a1"))
	assert.Equal(t, []string{"a1"}, f.State(t).Riddle.Buzzed)
}

func TestRiddle_AdvanceClueClearsQueue(t *testing.T) {
	f := riddleGame(t, domain.RoundTypeProgressiveClues, domain.Round{}, true)
	require.NoError(t, buzz(t, f, "a1"))
	require.NoError(t, buzz(t, f, "b1"))

	require.NoError(t, f.Act(t, func(c *question.Context) error { return question.Riddle{}.AdvanceClue(c) }))

	st := f.State(t).Riddle
	assert.Empty(t, st.Buzzed)
	assert.Equal(t, 1, st.CurrentClueIdx)
	assert.Equal(t, domain.PlayerStatusIdle, f.Roster(t).Players["a1"].Status)
	assert.Equal(t, domain.TimerStatusStart, f.Timer(t).Status)
}

func TestRiddle_AdvanceClueStopsAtLastClue(t *testing.T) {
	f := riddleGame(t, domain.RoundTypeProgressiveClues, domain.Round{}, true)
	for range 3 {
		require.NoError(t, f.Act(t, func(c *question.Context) error { return question.Riddle{}.AdvanceClue(c) }))
	}

	err := f.Act(t, func(c *question.Context) error { return question.Riddle{}.AdvanceClue(c) })

	assert.True(t, domain.IsInvalidAction(err))
	assert.Equal(t, 3, f.State(t).Riddle.CurrentClueIdx)
}

func TestRiddle_HandleCountdownExpiry(t *testing.T) {
	expire := func(c *question.Context) error { return question.HandleCountdownExpiry(c) }

	t.Run("cancels the head buzzer and restarts", func(t *testing.T) {
		f := riddleGame(t, domain.RoundTypeImage, domain.Round{}, true)
		require.NoError(t, buzz(t, f, "a1"))
		require.NoError(t, buzz(t, f, "b1"))
		gen := f.Timer(t).Generation

		require.NoError(t, f.Act(t, expire))

		st := f.State(t).Riddle
		assert.Equal(t, []string{"b1"}, st.Buzzed)
		assert.Equal(t, "a1", st.Canceled[0].PlayerID)
		tm := f.Timer(t)
		assert.Equal(t, gen+1, tm.Generation)
		assert.Equal(t, domain.TimerStatusStart, tm.Status)
		assert.Equal(t, domain.GameStatusQuestionActive, f.Game(t).Status)
	})

	t.Run("progressive clues move to the next clue", func(t *testing.T) {
		f := riddleGame(t, domain.RoundTypeProgressiveClues, domain.Round{}, true)

		require.NoError(t, f.Act(t, expire))

		assert.Equal(t, 1, f.State(t).Riddle.CurrentClueIdx)
		assert.Equal(t, domain.GameStatusQuestionActive, f.Game(t).Status)
	})

	t.Run("other riddles end without winner", func(t *testing.T) {
		f := riddleGame(t, domain.RoundTypeImage, domain.Round{}, true)

		require.NoError(t, f.Act(t, expire))

		assert.Nil(t, f.State(t).Riddle.Winner)
		assert.Equal(t, domain.GameStatusQuestionEnd, f.Game(t).Status)
		// The countdown owner plays time_up, not the resolver.
		assert.Empty(t, f.Sounds(t))
		assert.Equal(t, map[string]int{"A": 0, "B": 0, "C": 0}, f.RoundScores(t).Scores)
	})
}

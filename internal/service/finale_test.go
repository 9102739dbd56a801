package service_test

import (
	"testing"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func themeQuestions(n int) []domain.ThemeQuestion {
	qs := make([]domain.ThemeQuestion, n)
	for i := range qs {
		qs[i] = domain.ThemeQuestion{Title: "question", Answer: "answer"}
	}
	return qs
}

func TestGameService_Finale(t *testing.T) {
	h := newHarness(t).withTeams("A", "B")
	a, b := h.teams["A"], h.teams["B"]

	finale := h.addRound(service.RoundInput{Type: domain.RoundTypeSpecial, Title: "Finale"})
	first, err := h.svc.Setup.AddTheme(h.ctx, organizer, h.gameID, finale.ID, service.ThemeInput{Title: "Space", Questions: themeQuestions(2)})
	require.NoError(t, err)
	second, err := h.svc.Setup.AddTheme(h.ctx, organizer, h.gameID, finale.ID, service.ThemeInput{Title: "Music", Questions: themeQuestions(2)})
	require.NoError(t, err)

	h.launchToHome()
	h.startRound(finale.ID)

	assert.Equal(t, domain.GameStatusFinale, h.game().Status)
	f := h.finale()
	assert.Equal(t, domain.FinaleStatusHome, f.Status)
	require.NotNil(t, f.ChooserTeamID)
	assert.Equal(t, a, *f.ChooserTeamID)
	assert.Equal(t, []string{first.ID, second.ID}, f.ThemeOrder)

	// Only the chooser team picks.
	err = h.svc.Game.SelectTheme(h.ctx, h.players["b1"], h.gameID, first.ID)
	assert.True(t, domain.IsInvalidAction(err), "got %v", err)
	err = h.svc.Game.SelectTheme(h.ctx, h.players["a1"], h.gameID, "unknown")
	assert.True(t, domain.IsIllegalChoice(err), "got %v", err)

	require.NoError(t, h.svc.Game.SelectTheme(h.ctx, h.players["a1"], h.gameID, first.ID))
	require.NoError(t, h.svc.Game.SelectTheme(h.ctx, h.players["a1"], h.gameID, first.ID))
	assert.Equal(t, domain.FinaleStatusThemeActive, h.finale().Status)

	err = h.svc.Game.FinaleHome(h.ctx, organizer, h.gameID)
	assert.True(t, domain.IsInvalidAction(err), "got %v", err)

	require.NoError(t, h.svc.Game.JudgeThemeAnswer(h.ctx, organizer, h.gameID, true))
	assert.Equal(t, 1, h.finale().QuestionIndex)
	assert.Equal(t, domain.TimerStatusStart, h.timer().Status)
	require.NoError(t, h.svc.Game.JudgeThemeAnswer(h.ctx, organizer, h.gameID, true))

	f = h.finale()
	assert.Equal(t, domain.FinaleStatusThemeEnd, f.Status)
	assert.True(t, f.Themes[first.ID].Done)
	assert.Equal(t, []bool{true, true}, f.Themes[first.ID].Answers)
	assert.Equal(t, 2, h.gameScores().Scores[a])

	// The turn passes to B.
	require.NoError(t, h.svc.Game.FinaleHome(h.ctx, organizer, h.gameID))
	f = h.finale()
	assert.Equal(t, domain.FinaleStatusHome, f.Status)
	assert.Equal(t, b, *f.ChooserTeamID)

	err = h.svc.Game.SelectTheme(h.ctx, h.players["b1"], h.gameID, first.ID)
	assert.True(t, domain.IsInvalidAction(err), "got %v", err)

	// The organizer may pick on B's behalf.
	require.NoError(t, h.svc.Game.SelectTheme(h.ctx, organizer, h.gameID, second.ID))
	require.NoError(t, h.svc.Game.JudgeThemeAnswer(h.ctx, organizer, h.gameID, false))

	// The countdown running out counts as a wrong answer.
	require.NoError(t, h.svc.Game.StartTimer(h.ctx, organizer, h.gameID))
	applied, err := h.svc.Game.HandleCountdownExpiry(h.ctx, organizer.UserID, h.gameID, h.timer().Generation)
	require.NoError(t, err)
	assert.True(t, applied)

	f = h.finale()
	assert.Equal(t, []bool{false, false}, f.Themes[second.ID].Answers)
	assert.Equal(t, 0, h.gameScores().Scores[b])

	require.NoError(t, h.svc.Game.FinaleHome(h.ctx, organizer, h.gameID))
	g := h.game()
	assert.Equal(t, domain.GameStatusGameEnd, g.Status)
	assert.NotNil(t, h.finale().DateEnd)

	gs := h.gameScores()
	require.Len(t, gs.FinalRanking, 2)
	assert.Equal(t, []string{a}, gs.FinalRanking[0].Teams)
	assert.Equal(t, 2, gs.Progress[a][finale.ID])

	require.NoError(t, h.svc.Game.FinaleHome(h.ctx, organizer, h.gameID))
}

func TestGameService_FinaleNeedsThemes(t *testing.T) {
	h := newHarness(t).withTeams("A", "B")
	finale := h.addRound(service.RoundInput{Type: domain.RoundTypeSpecial})
	h.launchToHome()
	require.NoError(t, h.svc.Game.SelectRound(h.ctx, organizer, h.gameID, finale.ID))

	err := h.svc.Game.StartRound(h.ctx, organizer, h.gameID)
	assert.True(t, domain.IsInvalidAction(err), "got %v", err)
}

func TestGameService_FinaleProgressCoversEveryTeam(t *testing.T) {
	h := newHarness(t).withTeams("A", "B", "C")
	c := h.teams["C"]

	pictures := h.addRound(service.RoundInput{Type: domain.RoundTypeImage, RewardsPerQuestion: 1, RewardsTable: []int{3, 1}}, riddle("q1"))
	finale := h.addRound(service.RoundInput{Type: domain.RoundTypeSpecial, Title: "Finale"})
	for _, title := range []string{"Space", "Music"} {
		_, err := h.svc.Setup.AddTheme(h.ctx, organizer, h.gameID, finale.ID, service.ThemeInput{Title: title, Questions: themeQuestions(1)})
		require.NoError(t, err)
	}

	h.launchToHome()
	h.startRound(pictures.ID)
	h.winRiddle("c1")
	h.next()
	assert.Equal(t, 3, h.gameScores().Scores[c])

	// C leads, so A and B take the two themes and C never plays one.
	h.startRound(finale.ID)
	for _, correct := range []bool{true, false} {
		f := h.finale()
		require.NotNil(t, f.ChooserTeamID)
		assert.NotEqual(t, c, *f.ChooserTeamID)
		var theme string
		for _, id := range f.ThemeOrder {
			if !f.Themes[id].Done {
				theme = id
				break
			}
		}
		require.NoError(t, h.svc.Game.SelectTheme(h.ctx, organizer, h.gameID, theme))
		require.NoError(t, h.svc.Game.JudgeThemeAnswer(h.ctx, organizer, h.gameID, correct))
		require.NoError(t, h.svc.Game.FinaleHome(h.ctx, organizer, h.gameID))
	}
	assert.Equal(t, domain.GameStatusGameEnd, h.game().Status)

	gs := h.gameScores()
	for name, team := range h.teams {
		require.Contains(t, gs.Progress[team], pictures.ID, "progress of %s", name)
		require.Contains(t, gs.Progress[team], finale.ID, "progress of %s", name)
		assert.Equal(t, gs.Scores[team], gs.Progress[team][finale.ID], "progress of %s", name)
	}
	assert.Equal(t, 3, gs.Progress[c][finale.ID])
}

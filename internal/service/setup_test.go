package service_test

import (
	"errors"
	"testing"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupService_CreateGame(t *testing.T) {
	h := newHarness(t)

	g, err := h.svc.Setup.CreateGame(h.ctx, organizer, service.CreateGameInput{Title: " <i>Pub</i> quiz "})
	require.NoError(t, err)
	assert.Equal(t, "Pub quiz", g.Title)
	assert.Equal(t, domain.GameStatusBuild, g.Status)
	h.gameID = g.ID

	tm := h.timer()
	assert.Equal(t, organizer.UserID, tm.ManagedBy)
	assert.False(t, tm.Authorized)
	assert.Empty(t, read[domain.Roster](h, domain.RosterKey(g.ID)).Teams)

	_, err = h.svc.Setup.CreateGame(h.ctx, domain.Caller{UserID: "p1", Role: domain.RolePlayer}, service.CreateGameInput{Title: "x"})
	assert.True(t, domain.IsInvalidAction(err), "got %v", err)

	_, err = h.svc.Setup.CreateGame(h.ctx, organizer, service.CreateGameInput{Title: "  "})
	assert.True(t, domain.IsPrecondition(err), "got %v", err)
}

func TestSetupService_Validation(t *testing.T) {
	h := newHarness(t).withTeams("A", "B")
	mcq, err := h.svc.Setup.AddRound(h.ctx, organizer, h.gameID, service.RoundInput{Type: domain.RoundTypeMCQ})
	require.NoError(t, err)
	finale, err := h.svc.Setup.AddRound(h.ctx, organizer, h.gameID, service.RoundInput{Type: domain.RoundTypeSpecial})
	require.NoError(t, err)

	tests := []struct {
		name  string
		call  func() error
		check func(error) bool
	}{
		{
			name: "duplicate team name",
			call: func() error {
				_, err := h.svc.Setup.AddTeam(h.ctx, organizer, h.gameID, service.TeamInput{Name: "a"})
				return err
			},
			check: domain.IsInvalidAction,
		},
		{
			name: "empty team name",
			call: func() error {
				_, err := h.svc.Setup.AddTeam(h.ctx, organizer, h.gameID, service.TeamInput{Name: "<br>"})
				return err
			},
			check: domain.IsPrecondition,
		},
		{
			name: "player joins an unknown team",
			call: func() error {
				_, err := h.svc.Setup.AddPlayer(h.ctx, h.gameID, "nope", "Zoe")
				return err
			},
			check: domain.IsIllegalChoice,
		},
		{
			name: "unknown round type",
			call: func() error {
				_, err := h.svc.Setup.AddRound(h.ctx, organizer, h.gameID, service.RoundInput{Type: "trivia"})
				return err
			},
			check: domain.IsIllegalChoice,
		},
		{
			name: "negative reward",
			call: func() error {
				_, err := h.svc.Setup.AddRound(h.ctx, organizer, h.gameID, service.RoundInput{Type: domain.RoundTypeBasic, RewardsPerQuestion: -1})
				return err
			},
			check: domain.IsIllegalChoice,
		},
		{
			name: "unknown score policy",
			call: func() error {
				_, err := h.svc.Setup.AddRound(h.ctx, organizer, h.gameID, service.RoundInput{Type: domain.RoundTypeBasic, ScorePolicy: "elo"})
				return err
			},
			check: domain.IsIllegalChoice,
		},
		{
			name: "completion rate without a maximum",
			call: func() error {
				_, err := h.svc.Setup.AddRound(h.ctx, organizer, h.gameID, service.RoundInput{Type: domain.RoundTypeMatching, ScorePolicy: domain.ScorePolicyCompletionRate})
				return err
			},
			check: domain.IsIllegalChoice,
		},
		{
			name: "clue delay outside progressive clues",
			call: func() error {
				_, err := h.svc.Setup.AddRound(h.ctx, organizer, h.gameID, service.RoundInput{Type: domain.RoundTypeQuote, ClueDelay: 1})
				return err
			},
			check: domain.IsIllegalChoice,
		},
		{
			name: "second finale",
			call: func() error {
				_, err := h.svc.Setup.AddRound(h.ctx, organizer, h.gameID, service.RoundInput{Type: domain.RoundTypeSpecial})
				return err
			},
			check: domain.IsInvalidAction,
		},
		{
			name: "question in the finale",
			call: func() error {
				_, err := h.svc.Setup.AddQuestion(h.ctx, organizer, h.gameID, finale.ID, basic("q"))
				return err
			},
			check: domain.IsInvalidAction,
		},
		{
			name: "theme in a regular round",
			call: func() error {
				_, err := h.svc.Setup.AddTheme(h.ctx, organizer, h.gameID, mcq.ID, service.ThemeInput{Title: "t", Questions: themeQuestions(1)})
				return err
			},
			check: domain.IsInvalidAction,
		},
		{
			name: "theme without questions",
			call: func() error {
				_, err := h.svc.Setup.AddTheme(h.ctx, organizer, h.gameID, finale.ID, service.ThemeInput{Title: "t"})
				return err
			},
			check: domain.IsIllegalChoice,
		},
		{
			name: "mcq answer out of range",
			call: func() error {
				_, err := h.svc.Setup.AddQuestion(h.ctx, organizer, h.gameID, mcq.ID, domain.Question{
					Title: "q",
					MCQ:   &domain.MCQDetails{Choices: []string{"x", "y"}, Answer: 2},
				})
				return err
			},
			check: domain.IsIllegalChoice,
		},
		{
			name: "details of another family",
			call: func() error {
				_, err := h.svc.Setup.AddQuestion(h.ctx, organizer, h.gameID, mcq.ID, basic("q"))
				return err
			},
			check: domain.IsIllegalChoice,
		},
		{
			name: "unknown round",
			call: func() error {
				_, err := h.svc.Setup.AddQuestion(h.ctx, organizer, h.gameID, "nope", basic("q"))
				return err
			},
			check: func(err error) bool { return errors.Is(err, domain.ErrNotFound) },
		},
		{
			name: "another organizer edits",
			call: func() error {
				_, err := h.svc.Setup.AddTeam(h.ctx, domain.Caller{UserID: "org-2", Role: domain.RoleOrganizer}, h.gameID, service.TeamInput{Name: "C"})
				return err
			},
			check: domain.IsInvalidAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestSetupService_MCQRoundKeepsOneSubtype(t *testing.T) {
	h := newHarness(t).withTeams("A", "B")
	r := h.addRound(service.RoundInput{Type: domain.RoundTypeMCQ}, mcq("q1", domain.MCQConditional))

	_, err := h.svc.Setup.AddQuestion(h.ctx, organizer, h.gameID, r.ID, mcq("q2", domain.MCQImmediate))
	assert.True(t, domain.IsIllegalChoice(err), "got %v", err)

	_, err = h.svc.Setup.AddQuestion(h.ctx, organizer, h.gameID, r.ID, mcq("q2", domain.MCQConditional))
	require.NoError(t, err)
	assert.Len(t, h.round(r.ID).QuestionIDs, 2)
}

func TestSetupService_AddQuestionTakesRoundType(t *testing.T) {
	h := newHarness(t).withTeams("A", "B")
	r, err := h.svc.Setup.AddRound(h.ctx, organizer, h.gameID, service.RoundInput{Type: domain.RoundTypeMCQ})
	require.NoError(t, err)
	assert.Equal(t, "mcq", r.Title)
	assert.Equal(t, domain.ScorePolicyRanking, r.ScorePolicy)

	q, err := h.svc.Setup.AddQuestion(h.ctx, organizer, h.gameID, r.ID, domain.Question{
		Type:  domain.RoundTypeBasic,
		Title: "Capital of France?",
		MCQ:   &domain.MCQDetails{Choices: []string{"Paris", "Lyon"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoundTypeMCQ, q.Type)
	assert.Equal(t, domain.MCQImmediate, q.MCQ.Subtype)

	st := read[domain.QuestionState](h, domain.QuestionStateKey(h.gameID, r.ID, q.ID))
	assert.Equal(t, domain.RoundTypeMCQ, st.Type)
	assert.Equal(t, []string{q.ID}, h.round(r.ID).QuestionIDs)
}

func TestSetupService_BuildClosesAtLaunch(t *testing.T) {
	h := newHarness(t).withTeams("A", "B")
	h.addRound(service.RoundInput{Type: domain.RoundTypeImage}, riddle("q1"))
	h.launchToHome()

	_, err := h.svc.Setup.AddTeam(h.ctx, organizer, h.gameID, service.TeamInput{Name: "C"})
	assert.True(t, domain.IsInvalidAction(err), "got %v", err)
	_, err = h.svc.Setup.AddRound(h.ctx, organizer, h.gameID, service.RoundInput{Type: domain.RoundTypeBasic})
	assert.True(t, domain.IsInvalidAction(err), "got %v", err)

	// Players may still join.
	p, err := h.svc.Setup.AddPlayer(h.ctx, h.gameID, h.teams["A"], "Latecomer")
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerStatusIdle, p.Status)
}

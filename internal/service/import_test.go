package service_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const gameYAML = `
title: Friday quiz
teams:
  - name: Owls
    color: "#aa3300"
    players: [Ana, Ben]
  - name: Foxes
    players: [Cleo]
rounds:
  - type: progressive_clues
    title: Who am I
    rewards_per_question: 2
    max_tries: 2
    questions:
      - title: Painter
        clues: [Spanish, Cubism, Guernica]
        answer: Picasso
  - type: enumeration
    questions:
      - title: Planets
        items: [Mercury, Venus, Earth, Mars]
        max_is_known: true
  - type: special
    title: Finale
    themes:
      - title: Space
        questions:
          - title: Closest star
            answer: The Sun
`

func TestSetupService_ImportYAML(t *testing.T) {
	h := newHarness(t)

	g, err := h.svc.Setup.ImportYAML(h.ctx, organizer, strings.NewReader(gameYAML))
	require.NoError(t, err)
	h.gameID = g.ID

	assert.Equal(t, "Friday quiz", g.Title)
	assert.Equal(t, organizer.UserID, g.OrganizerID)
	require.Len(t, g.RoundIDs, 3)

	roster := read[domain.Roster](h, domain.RosterKey(g.ID))
	require.Len(t, roster.Teams, 2)
	assert.Equal(t, "Owls", roster.Teams[0].Name)
	assert.Equal(t, "#aa3300", roster.Teams[0].Color)
	assert.Len(t, roster.Players, 3)

	clues := h.round(g.RoundIDs[0])
	assert.Equal(t, domain.RoundTypeProgressiveClues, clues.Type)
	assert.Equal(t, 2, clues.RewardsPerQuestion)
	require.Len(t, clues.QuestionIDs, 1)
	q := read[domain.Question](h, domain.QuestionKey(clues.QuestionIDs[0]))
	assert.Equal(t, "Picasso", q.Riddle.Answer)
	assert.Equal(t, 3, q.Riddle.NumClues())

	enum := h.round(g.RoundIDs[1])
	assert.Equal(t, "enumeration", enum.Title)
	q = read[domain.Question](h, domain.QuestionKey(enum.QuestionIDs[0]))
	assert.Len(t, q.Enumeration.Answer, 4)

	finale := h.round(g.RoundIDs[2])
	require.Len(t, finale.ThemeIDs, 1)
	th := read[domain.Theme](h, domain.ThemeKey(finale.ThemeIDs[0]))
	assert.Equal(t, "The Sun", th.Questions[0].Answer)

	// The imported game plays like a built one.
	h.launchToHome()
	h.startRound(clues.ID)
	assert.Equal(t, clues.QuestionIDs[0], h.currentQuestion())
}

func TestSetupService_ImportYAMLRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(error) bool
	}{
		{name: "not yaml", body: "title: [", check: domain.IsPrecondition},
		{name: "no title", body: "teams: []", check: domain.IsPrecondition},
		{
			name:  "unknown round type",
			body:  "title: x\nrounds:\n  - type: charades\n",
			check: domain.IsIllegalChoice,
		},
		{
			name:  "invalid question",
			body:  "title: x\nrounds:\n  - type: image\n    questions:\n      - title: no answer\n",
			check: domain.IsIllegalChoice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.svc.Setup.ImportYAML(h.ctx, organizer, strings.NewReader(tt.body))
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseMCQSheet(t *testing.T) {
	header := []interface{}{"Question", "A", "B", "C", "D", "Answer"}

	tests := []struct {
		name    string
		rows    [][]interface{}
		want    int
		wantErr bool
	}{
		{
			name: "four choices and two choices",
			rows: [][]interface{}{
				header,
				{"Capital of Italy?", "Rome", "Milan", "Turin", "Naples", 1},
				{"Is water wet?", "Yes", "No", "", "", 2},
			},
			want: 2,
		},
		{
			name: "blank rows are skipped",
			rows: [][]interface{}{header, {}, {"Q", " a ", "b", 2}},
			want: 1,
		},
		{
			name:    "answer is not a number",
			rows:    [][]interface{}{header, {"Q", "a", "b", "c"}},
			wantErr: true,
		},
		{
			name:    "answer out of range",
			rows:    [][]interface{}{header, {"Q", "a", "b", 3}},
			wantErr: true,
		},
		{
			name:    "too few cells",
			rows:    [][]interface{}{header, {"Q", "a", 1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, err := service.ParseMCQSheet(workbook(t, tt.rows...), domain.MCQConditional)
			if tt.wantErr {
				assert.True(t, domain.IsIllegalChoice(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			require.Len(t, qs, tt.want)
			for _, q := range qs {
				assert.Equal(t, domain.MCQConditional, q.MCQ.Subtype)
			}
		})
	}

	t.Run("not a workbook", func(t *testing.T) {
		_, err := service.ParseMCQSheet(strings.NewReader("plain text"), domain.MCQImmediate)
		assert.True(t, domain.IsPrecondition(err), "unexpected error: %v", err)
	})
}

func TestSetupService_ImportMCQFromXLSX(t *testing.T) {
	h := newHarness(t).withTeams("A", "B")
	mcq := h.addRound(service.RoundInput{Type: domain.RoundTypeMCQ})
	other := h.addRound(service.RoundInput{Type: domain.RoundTypeBasic})

	book := workbook(t,
		[]interface{}{"Question", "A", "B", "Answer"},
		[]interface{}{"2 + 2?", "3", "4", 2},
		[]interface{}{"Largest ocean?", "Pacific", "Atlantic", 1},
	)
	n, err := h.svc.Setup.ImportMCQFromXLSX(h.ctx, organizer, h.gameID, mcq.ID, domain.MCQImmediate, bytes.NewReader(book.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	r := h.round(mcq.ID)
	require.Len(t, r.QuestionIDs, 2)
	q := read[domain.Question](h, domain.QuestionKey(r.QuestionIDs[0]))
	assert.Equal(t, "2 + 2?", q.Title)
	assert.Equal(t, []string{"3", "4"}, q.MCQ.Choices)
	assert.Equal(t, 1, q.MCQ.Answer)

	_, err = h.svc.Setup.ImportMCQFromXLSX(h.ctx, organizer, h.gameID, other.ID, domain.MCQImmediate, bytes.NewReader(book.Bytes()))
	assert.True(t, domain.IsInvalidAction(err), "unexpected error: %v", err)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/dom/trivia-night/internal/charts"
	"github.com/dom/trivia-night/internal/domain"
)

// GameChart renders the cumulative game score of every team after each
// round, in the order the rounds ended.
func (e *Engine) GameChart(ctx context.Context, caller domain.Caller, gameID string) ([]byte, error) {
	if err := e.AuthorizeRead(ctx, caller, domain.GameScoresKey(gameID)); err != nil {
		return nil, err
	}
	var g domain.Game
	if err := e.store.Read(ctx, domain.GameKey(gameID), &g); err != nil {
		return nil, err
	}
	var roster domain.Roster
	if err := e.store.Read(ctx, domain.RosterKey(gameID), &roster); err != nil {
		return nil, err
	}
	var scores domain.GameScores
	if err := e.store.Read(ctx, domain.GameScoresKey(gameID), &scores); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	var played []domain.Round
	for _, id := range g.RoundIDs {
		var r domain.Round
		if err := e.store.Read(ctx, domain.RoundKey(gameID, id), &r); err != nil {
			return nil, err
		}
		if r.Played() {
			played = append(played, r)
		}
	}
	slices.SortStableFunc(played, func(a, b domain.Round) int { return a.DateEnd.Compare(*b.DateEnd) })

	steps := make([]charts.Step, len(played))
	for i, r := range played {
		steps[i] = charts.Step{ID: r.ID, Label: r.Title}
	}
	return charts.Progress(g.Title, steps, roster.Teams, scores.Progress)
}

// JoinCode renders a QR code of the join page of a game under baseURL.
func (e *Engine) JoinCode(ctx context.Context, caller domain.Caller, gameID, baseURL string) ([]byte, error) {
	if err := e.AuthorizeRead(ctx, caller, domain.GameKey(gameID)); err != nil {
		return nil, err
	}
	var g domain.Game
	if err := e.store.Read(ctx, domain.GameKey(gameID), &g); err != nil {
		return nil, err
	}
	return charts.JoinCode(baseURL + "/join/" + url.PathEscape(g.ID))
}

// RoundChart renders the cumulative round score of every team after each
// question of the round.
func (e *Engine) RoundChart(ctx context.Context, caller domain.Caller, gameID, roundID string) ([]byte, error) {
	if err := e.AuthorizeRead(ctx, caller, domain.RoundScoresKey(gameID, roundID)); err != nil {
		return nil, err
	}
	var r domain.Round
	if err := e.store.Read(ctx, domain.RoundKey(gameID, roundID), &r); err != nil {
		return nil, err
	}
	var roster domain.Roster
	if err := e.store.Read(ctx, domain.RosterKey(gameID), &roster); err != nil {
		return nil, err
	}
	var scores domain.RoundScores
	if err := e.store.Read(ctx, domain.RoundScoresKey(gameID, roundID), &scores); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	steps := make([]charts.Step, len(r.QuestionIDs))
	for i, id := range r.QuestionIDs {
		steps[i] = charts.Step{ID: id, Label: fmt.Sprintf("Q%d", i+1)}
	}
	return charts.Progress(r.Title, steps, roster.Teams, scores.Progress)
}

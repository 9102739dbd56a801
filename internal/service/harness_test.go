package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/repository"
	"github.com/dom/trivia-night/internal/service"
	"github.com/dom/trivia-night/internal/store"
	"github.com/dom/trivia-night/internal/testutil"
	"github.com/stretchr/testify/require"
)

var organizer = domain.Caller{UserID: "org-1", Role: domain.RoleOrganizer}

// harness drives one game through the public services on a memory store.
type harness struct {
	t       *testing.T
	ctx     context.Context
	store   *store.Memory
	svc     *service.Services
	gameID  string
	teams   map[string]string // name -> id
	players map[string]domain.Caller
}

func newHarness(t *testing.T, opts ...service.EngineOption) *harness {
	t.Helper()
	st := store.NewMemory()
	opts = append([]service.EngineOption{service.WithDeps(testutil.Deps())}, opts...)
	engine := service.NewEngine(st, opts...)
	return &harness{
		t:       t,
		ctx:     context.Background(),
		store:   st,
		svc:     service.NewServices(&repository.Repositories{User: newMemUsers()}, engine, testutil.TestConfig()),
		teams:   map[string]string{},
		players: map[string]domain.Caller{},
	}
}

// withTeams creates a game with the named teams and one player per team,
// named after the team in lower case followed by 1.
func (h *harness) withTeams(names ...string) *harness {
	h.t.Helper()
	g, err := h.svc.Setup.CreateGame(h.ctx, organizer, service.CreateGameInput{Title: "Quiz night"})
	require.NoError(h.t, err)
	h.gameID = g.ID

	for _, name := range names {
		team, err := h.svc.Setup.AddTeam(h.ctx, organizer, h.gameID, service.TeamInput{Name: name, Color: "#336699"})
		require.NoError(h.t, err)
		h.teams[name] = team.ID

		playerName := strings.ToLower(name) + "1"
		p, err := h.svc.Setup.AddPlayer(h.ctx, h.gameID, team.ID, playerName)
		require.NoError(h.t, err)
		h.players[playerName] = domain.Caller{UserID: p.ID, TeamID: team.ID, Role: domain.RolePlayer, GameID: h.gameID}
	}
	return h
}

func (h *harness) addRound(input service.RoundInput, questions ...domain.Question) *domain.Round {
	h.t.Helper()
	r, err := h.svc.Setup.AddRound(h.ctx, organizer, h.gameID, input)
	require.NoError(h.t, err)
	for _, q := range questions {
		_, err := h.svc.Setup.AddQuestion(h.ctx, organizer, h.gameID, r.ID, q)
		require.NoError(h.t, err)
	}
	return h.round(r.ID)
}

// launchToHome launches the game and opens the round menu.
func (h *harness) launchToHome() {
	h.t.Helper()
	require.NoError(h.t, h.svc.Game.Launch(h.ctx, organizer, h.gameID))
	require.NoError(h.t, h.svc.Game.OpenHome(h.ctx, organizer, h.gameID))
}

// startRound selects and starts roundID from the round menu.
func (h *harness) startRound(roundID string) {
	h.t.Helper()
	require.NoError(h.t, h.svc.Game.SelectRound(h.ctx, organizer, h.gameID, roundID))
	require.NoError(h.t, h.svc.Game.StartRound(h.ctx, organizer, h.gameID))
}

// winRiddle opens the countdown, buzzes player and validates the answer.
func (h *harness) winRiddle(player string) {
	h.t.Helper()
	qID := h.currentQuestion()
	require.NoError(h.t, h.svc.Game.StartTimer(h.ctx, organizer, h.gameID))
	require.NoError(h.t, h.svc.Play.Buzz(h.ctx, h.players[player], h.gameID, qID))
	require.NoError(h.t, h.svc.Play.ValidateBuzz(h.ctx, organizer, h.gameID, qID, h.players[player].UserID))
}

// next advances past the ended question.
func (h *harness) next() {
	h.t.Helper()
	require.NoError(h.t, h.svc.Game.AdvanceAfterQuestionEnd(h.ctx, organizer, h.gameID, h.currentQuestion()))
}

func (h *harness) currentQuestion() string {
	h.t.Helper()
	g := h.game()
	require.NotNil(h.t, g.CurrentQuestionID, "no current question in status %s", g.Status)
	return *g.CurrentQuestionID
}

func read[T any](h *harness, key string) *T {
	h.t.Helper()
	var v T
	require.NoError(h.t, h.store.Read(h.ctx, key, &v))
	return &v
}

func (h *harness) game() *domain.Game { return read[domain.Game](h, domain.GameKey(h.gameID)) }

func (h *harness) round(id string) *domain.Round {
	return read[domain.Round](h, domain.RoundKey(h.gameID, id))
}

func (h *harness) roundScores(id string) *domain.RoundScores {
	return read[domain.RoundScores](h, domain.RoundScoresKey(h.gameID, id))
}

func (h *harness) gameScores() *domain.GameScores {
	return read[domain.GameScores](h, domain.GameScoresKey(h.gameID))
}

func (h *harness) timer() *domain.TimerState { return read[domain.TimerState](h, domain.TimerKey(h.gameID)) }

func (h *harness) chooser() *domain.ChooserState {
	return read[domain.ChooserState](h, domain.ChooserKey(h.gameID))
}

func (h *harness) finale() *domain.FinaleState { return read[domain.FinaleState](h, domain.FinaleKey(h.gameID)) }

// sounds lists the cue names queued so far, oldest first.
func (h *harness) sounds() []string {
	h.t.Helper()
	var names []string
	for _, cue := range read[domain.SoundQueue](h, domain.SoundsKey(h.gameID)).Cues {
		names = append(names, cue.Name)
	}
	return names
}

// chooserTeam is the team holding the turn.
func (h *harness) chooserTeam() string {
	h.t.Helper()
	cs := h.chooser()
	require.NotEmpty(h.t, cs.Order)
	return cs.Order[cs.Index]
}

func riddle(title string) domain.Question {
	return domain.Question{Title: title, Riddle: &domain.RiddleDetails{Answer: title + " answer"}}
}

func basic(title string) domain.Question {
	return domain.Question{Title: title, Basic: &domain.BasicDetails{Answer: title + " answer"}}
}

func mcq(title string, subtype domain.MCQSubtype) domain.Question {
	return domain.Question{Title: title, MCQ: &domain.MCQDetails{
		Subtype: subtype,
		Choices: []string{"right", "wrong", "also wrong", "way off"},
		Answer:  0,
	}}
}

// oddOneOut has four proposals and the last one is the odd one.
func oddOneOut(title string) domain.Question {
	return domain.Question{Title: title, OddOneOut: &domain.OddOneOutDetails{
		Items:  []domain.OddOneOutItem{{Title: "red"}, {Title: "green"}, {Title: "blue"}, {Title: "loud"}},
		Answer: 3,
	}}
}

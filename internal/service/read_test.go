package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/service"
	"github.com/dom/trivia-night/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_AuthorizeRead(t *testing.T) {
	h := newHarness(t).withTeams("A", "B")
	r := h.addRound(service.RoundInput{Type: domain.RoundTypeImage}, riddle("q1"))
	qID := r.QuestionIDs[0]

	player := h.players["a1"]
	spectator := domain.Caller{Role: domain.RoleSpectator, GameID: h.gameID}
	stranger := domain.Caller{UserID: "p9", TeamID: "t9", Role: domain.RolePlayer, GameID: "other"}
	rival := domain.Caller{UserID: "org-2", Role: domain.RoleOrganizer}

	tests := []struct {
		name   string
		caller domain.Caller
		key    string
		check  func(error) bool
	}{
		{name: "organizer reads the game", caller: organizer, key: domain.GameKey(h.gameID)},
		{name: "organizer reads a question", caller: organizer, key: domain.QuestionKey(qID)},
		{name: "player reads the scores", caller: player, key: domain.GameScoresKey(h.gameID)},
		{name: "spectator reads the round", caller: spectator, key: domain.RoundKey(h.gameID, r.ID)},
		{name: "player reads question state", caller: player, key: domain.QuestionStateKey(h.gameID, r.ID, qID)},
		{name: "player reads a question", caller: player, key: domain.QuestionKey(qID), check: domain.IsInvalidAction},
		{name: "spectator reads a theme", caller: spectator, key: domain.ThemeKey("t1"), check: domain.IsInvalidAction},
		{name: "player of another game", caller: stranger, key: domain.GameKey(h.gameID), check: domain.IsInvalidAction},
		{name: "another organizer", caller: rival, key: domain.TimerKey(h.gameID), check: domain.IsInvalidAction},
		{name: "unknown collection", caller: organizer, key: "users/u1", check: domain.IsIllegalChoice},
		{name: "empty key", caller: organizer, key: "", check: domain.IsPrecondition},
		{
			name:   "organizer of a missing game",
			caller: organizer,
			key:    domain.GameKey("missing"),
			check:  func(err error) bool { return errors.Is(err, domain.ErrNotFound) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.svc.Engine.AuthorizeRead(h.ctx, tt.caller, tt.key)
			if tt.check == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestEngine_ReadDocument(t *testing.T) {
	h := newHarness(t).withTeams("A", "B")

	raw, err := h.svc.Engine.ReadDocument(h.ctx, h.players["b1"], domain.RosterKey(h.gameID))
	require.NoError(t, err)

	var roster domain.Roster
	require.NoError(t, json.Unmarshal(raw, &roster))
	assert.Len(t, roster.Teams, 2)

	_, err = h.svc.Engine.ReadDocument(h.ctx, organizer, domain.RoundKey(h.gameID, "nope"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_Charts(t *testing.T) {
	h := newHarness(t).withTeams("A", "B")
	r := h.addRound(service.RoundInput{Type: domain.RoundTypeImage, RewardsTable: []int{2, 1}}, riddle("q1"), riddle("q2"))
	h.launchToHome()

	// Nothing played yet still renders.
	png, err := h.svc.Engine.GameChart(h.ctx, organizer, h.gameID)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	h.startRound(r.ID)
	h.winRiddle("a1")
	h.next()
	h.winRiddle("b1")
	h.next()
	require.Equal(t, domain.GameStatusRoundEnd, h.game().Status)

	png, err = h.svc.Engine.RoundChart(h.ctx, h.players["b1"], h.gameID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	png, err = h.svc.Engine.GameChart(h.ctx, domain.Caller{Role: domain.RoleSpectator, GameID: h.gameID}, h.gameID)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	_, err = h.svc.Engine.GameChart(h.ctx, domain.Caller{Role: domain.RoleSpectator, GameID: "other"}, h.gameID)
	assert.True(t, domain.IsInvalidAction(err), "got %v", err)
}

func TestEngine_JoinCode(t *testing.T) {
	h := newHarness(t).withTeams("A")

	png, err := h.svc.Engine.JoinCode(h.ctx, organizer, h.gameID, "https://quiz.example")
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	_, err = h.svc.Engine.JoinCode(h.ctx, domain.Caller{Role: domain.RoleOrganizer, UserID: "someone-else"}, h.gameID, "https://quiz.example")
	assert.True(t, domain.IsInvalidAction(err), "got %v", err)
}

// recordingWatcher remembers every game a command touched.
type recordingWatcher struct {
	mu    sync.Mutex
	games []string
}

func (w *recordingWatcher) Watch(_ context.Context, gameID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.games = append(w.games, gameID)
	return nil
}

func (w *recordingWatcher) watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.games...)
}

func TestGameService_ServerTimers(t *testing.T) {
	w := &recordingWatcher{}
	h := newHarness(t, service.WithServerTimers(w)).withTeams("A", "B")
	h.addRound(service.RoundInput{Type: domain.RoundTypeImage}, riddle("q1"))

	assert.Equal(t, timer.ServerAuthority, h.timer().ManagedBy)
	assert.Contains(t, w.watched(), h.gameID)

	h.launchToHome()
	h.startRound(h.game().RoundIDs[0])
	require.NoError(t, h.svc.Game.StartTimer(h.ctx, organizer, h.gameID))

	tm := h.timer()
	assert.Equal(t, timer.ServerAuthority, tm.ManagedBy)

	// With the server in charge the organizer may not report expiry.
	_, err := h.svc.Game.HandleCountdownExpiry(h.ctx, organizer.UserID, h.gameID, tm.Generation)
	assert.True(t, domain.IsInvalidAction(err), "got %v", err)

	applied, err := h.svc.Game.HandleCountdownExpiry(h.ctx, timer.ServerAuthority, h.gameID, tm.Generation)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, domain.GameStatusQuestionEnd, h.game().Status)

	// A second report of the same generation is a duplicate.
	applied, err = h.svc.Game.HandleCountdownExpiry(h.ctx, timer.ServerAuthority, h.gameID, tm.Generation)
	require.NoError(t, err)
	assert.False(t, applied)
}

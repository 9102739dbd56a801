package service

import (
	"context"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/question"
	"github.com/dom/trivia-night/internal/session"
	"github.com/dom/trivia-night/internal/timer"
)

// GameService drives the game state machine. Every method is one
// transaction, and a transition that already happened is a no-op.
type GameService struct {
	engine *Engine
	rounds rounds
}

func NewGameService(engine *Engine) *GameService {
	return &GameService{engine: engine, rounds: rounds{deps: engine.deps}}
}

// Launch leaves the build phase: the chooser is shuffled, scores and timer
// are reset and every player is idle.
func (svc *GameService) Launch(ctx context.Context, caller domain.Caller, gameID string) error {
	return svc.engine.run(ctx, "Launch", gameID, func(s *session.Session) error {
		g, err := requireOrganizer(s, caller)
		if err != nil {
			return err
		}
		switch g.Status {
		case domain.GameStatusGameStart:
			return nil
		case domain.GameStatusBuild:
		default:
			return domain.InvalidAction("game %s was already launched", g.ID)
		}

		roster, err := s.Roster()
		if err != nil {
			return err
		}
		teams := roster.TeamIDs()
		if len(teams) == 0 {
			return domain.InvalidAction("game %s has no teams", g.ID)
		}
		if len(g.RoundIDs) == 0 {
			return domain.InvalidAction("game %s has no rounds", g.ID)
		}

		cs := &domain.ChooserState{}
		svc.engine.deps.Rotation.Reset(cs, teams)
		s.SaveChooser(cs)
		s.SaveGameScores(domain.NewGameScores(teams))
		roster.SetAllStatus(domain.PlayerStatusIdle)
		s.SaveRoster(roster)
		if err := s.ResetTimer(0); err != nil {
			return err
		}

		now := s.Now
		g.LaunchedAt = &now
		g.ClearQuestion(domain.GameStatusGameStart)
		s.SaveGame(g)
		return s.AddSound(domain.SoundGameStart)
	})
}

// OpenHome shows the round menu after the launch screen.
func (svc *GameService) OpenHome(ctx context.Context, caller domain.Caller, gameID string) error {
	return svc.engine.run(ctx, "OpenHome", gameID, func(s *session.Session) error {
		g, err := requireOrganizer(s, caller)
		if err != nil {
			return err
		}
		switch g.Status {
		case domain.GameStatusGameHome:
			return nil
		case domain.GameStatusGameStart:
		default:
			return domain.InvalidAction("cannot open home in status %s", g.Status)
		}
		g.ClearQuestion(domain.GameStatusGameHome)
		s.SaveGame(g)
		return nil
	})
}

// SelectRound picks the next round to play. A round left in the middle of a
// question is resumed where it stopped.
func (svc *GameService) SelectRound(ctx context.Context, caller domain.Caller, gameID, roundID string) error {
	if roundID == "" {
		return domain.Precondition("round id is required")
	}
	return svc.engine.run(ctx, "SelectRound", gameID, func(s *session.Session) error {
		g, err := requireOrganizer(s, caller)
		if err != nil {
			return err
		}
		if g.CurrentRoundID != nil && *g.CurrentRoundID == roundID &&
			(g.Status == domain.GameStatusRoundStart || g.Status.HasCurrentQuestion()) {
			return nil
		}
		if g.Status != domain.GameStatusGameHome && g.Status != domain.GameStatusRoundEnd {
			return domain.InvalidAction("cannot select a round in status %s", g.Status)
		}
		if !containsID(g.RoundIDs, roundID) {
			return domain.IllegalChoice("round %s is not part of game %s", roundID, g.ID)
		}
		r, err := s.Round(roundID)
		if err != nil {
			return err
		}
		if r.Played() {
			return domain.InvalidAction("round %s was already played", r.ID)
		}
		if resumable(r) {
			return resume(s, g, r)
		}

		g.CurrentRoundID = &r.ID
		g.ClearQuestion(domain.GameStatusRoundStart)
		s.SaveGame(g)
		return nil
	})
}

// StartRound leaves the round intro and plays the first question, or opens
// the finale for the special round.
func (svc *GameService) StartRound(ctx context.Context, caller domain.Caller, gameID string) error {
	return svc.engine.run(ctx, "StartRound", gameID, func(s *session.Session) error {
		g, err := requireOrganizer(s, caller)
		if err != nil {
			return err
		}
		if g.Status == domain.GameStatusQuestionActive || g.Status == domain.GameStatusFinale {
			return nil
		}
		if g.Status != domain.GameStatusRoundStart {
			return domain.InvalidAction("cannot start a round in status %s", g.Status)
		}
		r, err := s.CurrentRound()
		if err != nil {
			return err
		}
		return svc.rounds.start(s, g, r)
	})
}

// EndQuestion closes the active question. When questionID is set, a call
// for a question that is no longer active does nothing.
func (svc *GameService) EndQuestion(ctx context.Context, caller domain.Caller, gameID, questionID string) error {
	return svc.engine.run(ctx, "EndQuestion", gameID, func(s *session.Session) error {
		g, err := requireOrganizer(s, caller)
		if err != nil {
			return err
		}
		if questionID != "" && (g.CurrentQuestionID == nil || *g.CurrentQuestionID != questionID) {
			return nil
		}
		return s.EndQuestion()
	})
}

// AdvanceAfterQuestionEnd moves to the next question of the round, or ends
// the round after its last question. When fromQuestionID is set and is not
// the ended question any more, the call does nothing.
func (svc *GameService) AdvanceAfterQuestionEnd(ctx context.Context, caller domain.Caller, gameID, fromQuestionID string) error {
	return svc.engine.run(ctx, "AdvanceAfterQuestionEnd", gameID, func(s *session.Session) error {
		g, err := requireOrganizer(s, caller)
		if err != nil {
			return err
		}
		if fromQuestionID != "" && (g.CurrentQuestionID == nil || *g.CurrentQuestionID != fromQuestionID) {
			return nil
		}
		if g.Status != domain.GameStatusQuestionEnd {
			return domain.InvalidAction("cannot advance in status %s", g.Status)
		}
		r, err := s.CurrentRound()
		if err != nil {
			return err
		}
		if r.IsLastQuestion() {
			return svc.rounds.end(s, g, r)
		}
		return svc.rounds.moveToQuestion(s, g, r, r.CurrentQuestionIndex+1, false)
	})
}

// ReturnToHome goes back to the round menu. Leaving from an ended question
// keeps the round resumable.
func (svc *GameService) ReturnToHome(ctx context.Context, caller domain.Caller, gameID string) error {
	return svc.engine.run(ctx, "ReturnToHome", gameID, func(s *session.Session) error {
		g, err := requireOrganizer(s, caller)
		if err != nil {
			return err
		}
		switch g.Status {
		case domain.GameStatusGameHome:
			return nil
		case domain.GameStatusRoundEnd, domain.GameStatusQuestionEnd, domain.GameStatusRoundStart:
		default:
			return domain.InvalidAction("cannot return home in status %s", g.Status)
		}
		if err := s.ResetPlayers(); err != nil {
			return err
		}
		g.ClearQuestion(domain.GameStatusGameHome)
		s.SaveGame(g)
		return nil
	})
}

// EndGame ends the game after a round and freezes the final ranking.
func (svc *GameService) EndGame(ctx context.Context, caller domain.Caller, gameID string) error {
	return svc.engine.run(ctx, "EndGame", gameID, func(s *session.Session) error {
		g, err := requireOrganizer(s, caller)
		if err != nil {
			return err
		}
		switch g.Status {
		case domain.GameStatusGameEnd:
			return nil
		case domain.GameStatusRoundEnd, domain.GameStatusGameHome:
		default:
			return domain.InvalidAction("cannot end the game in status %s", g.Status)
		}
		return endGame(s, g)
	})
}

// StartTimer starts or resumes the countdown, which opens player actions.
func (svc *GameService) StartTimer(ctx context.Context, caller domain.Caller, gameID string) error {
	return svc.engine.run(ctx, "StartTimer", gameID, func(s *session.Session) error {
		g, err := requireOrganizer(s, caller)
		if err != nil {
			return err
		}
		if g.Status != domain.GameStatusQuestionActive && g.Status != domain.GameStatusFinale {
			return domain.InvalidAction("no countdown to start in status %s", g.Status)
		}
		t, err := s.Timer()
		if err != nil {
			return err
		}
		if t.Status == domain.TimerStatusStart {
			return nil
		}
		if t.Status == domain.TimerStatusEnd {
			return domain.InvalidAction("the countdown already ran out")
		}
		if g.Status == domain.GameStatusQuestionActive {
			st, err := s.QuestionState(*g.CurrentRoundID, *g.CurrentQuestionID)
			if err != nil {
				return err
			}
			if st.DateEnd != nil {
				return domain.InvalidAction("question %s already ended", st.QuestionID)
			}
		}
		timer.Start(t, s.Now)
		s.SaveTimer(t)
		return nil
	})
}

// StopTimer pauses the countdown and closes player actions.
func (svc *GameService) StopTimer(ctx context.Context, caller domain.Caller, gameID string) error {
	return svc.engine.run(ctx, "StopTimer", gameID, func(s *session.Session) error {
		if _, err := requireOrganizer(s, caller); err != nil {
			return err
		}
		t, err := s.Timer()
		if err != nil {
			return err
		}
		if t.Status != domain.TimerStatusStart {
			return nil
		}
		timer.Stop(t, s.Now)
		s.SaveTimer(t)
		return nil
	})
}

// ResetQuestion replays the active question from scratch and takes back
// what it paid.
func (svc *GameService) ResetQuestion(ctx context.Context, caller domain.Caller, gameID string) error {
	return svc.engine.run(ctx, "ResetQuestion", gameID, func(s *session.Session) error {
		g, err := requireOrganizer(s, caller)
		if err != nil {
			return err
		}
		if !g.Status.HasCurrentQuestion() {
			return domain.InvalidAction("no question to reset in status %s", g.Status)
		}
		r, err := s.CurrentRound()
		if err != nil {
			return err
		}
		if err := revertQuestionScores(s, r, *g.CurrentQuestionID); err != nil {
			return err
		}
		return svc.rounds.moveToQuestion(s, g, r, r.CurrentQuestionIndex, true)
	})
}

// HandleCountdownExpiry applies the automatic outcome of a countdown that
// ran out. Only the countdown's authority may report it, and a report for an
// earlier generation, or a repeated one, changes nothing and returns false.
func (svc *GameService) HandleCountdownExpiry(ctx context.Context, callerID, gameID string, generation int64) (bool, error) {
	var applied bool
	err := svc.engine.run(ctx, "HandleCountdownExpiry", gameID, func(s *session.Session) error {
		applied = false
		t, err := s.Timer()
		if err != nil {
			return err
		}
		ok, err := timer.CheckExpiry(t, callerID, generation)
		if err != nil || !ok {
			return err
		}

		g, err := s.Game()
		if err != nil {
			return err
		}
		switch g.Status {
		case domain.GameStatusQuestionActive:
			c, err := question.LoadActive(s, svc.engine.deps, "")
			if err != nil {
				return err
			}
			if err := question.HandleCountdownExpiry(c); err != nil {
				return err
			}
		case domain.GameStatusFinale:
			f, err := s.Finale()
			if err != nil {
				return err
			}
			if f.Status == domain.FinaleStatusThemeActive {
				if err := judgeThemeAnswer(s, g, false); err != nil {
					return err
				}
			}
		}
		if err := s.AddSound(domain.SoundTimeUp); err != nil {
			return err
		}
		applied = true
		return stopCountdown(s, generation)
	})
	svc.engine.metrics.expiry(applied)
	return applied, err
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}


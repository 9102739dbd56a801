package session

import (
	"errors"

	"github.com/dom/trivia-night/internal/chooser"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/timer"
)

// TimerAuthority names who may report expiry for countdowns of g.
func (s *Session) TimerAuthority(g *domain.Game) string {
	if s.ServerTimers {
		return timer.ServerAuthority
	}
	return g.OrganizerID
}

// ResetTimer re-arms the countdown with a fresh generation.
func (s *Session) ResetTimer(durationSeconds int) error {
	g, err := s.Game()
	if err != nil {
		return err
	}
	t, err := s.Timer()
	if err != nil {
		return err
	}
	timer.Reset(t, durationSeconds, s.TimerAuthority(g), s.Now)
	s.SaveTimer(t)
	return nil
}

// RestartTimer re-arms the countdown and immediately starts it.
func (s *Session) RestartTimer(durationSeconds int) error {
	if err := s.ResetTimer(durationSeconds); err != nil {
		return err
	}
	t, err := s.Timer()
	if err != nil {
		return err
	}
	timer.Start(t, s.Now)
	return nil
}

// AddSound appends a cue to the sound queue.
func (s *Session) AddSound(name string) error {
	q, err := load[domain.SoundQueue](s, domain.SoundsKey(s.GameID))
	if errors.Is(err, domain.ErrNotFound) {
		q = &domain.SoundQueue{}
	} else if err != nil {
		return err
	}
	q.Cues = append(q.Cues, domain.SoundCue{Name: name, Timestamp: s.Now})
	s.Save(domain.SoundsKey(s.GameID), q)
	return nil
}

// CurrentRound returns the round the game points at.
func (s *Session) CurrentRound() (*domain.Round, error) {
	g, err := s.Game()
	if err != nil {
		return nil, err
	}
	if g.CurrentRoundID == nil {
		return nil, domain.InvalidAction("no round is being played")
	}
	return s.Round(*g.CurrentRoundID)
}

// EndQuestion moves question_active to question_end. Calling it again once
// the question ended is a no-op.
func (s *Session) EndQuestion() error {
	g, err := s.Game()
	if err != nil {
		return err
	}
	switch g.Status {
	case domain.GameStatusQuestionEnd:
		return nil
	case domain.GameStatusQuestionActive:
	default:
		return domain.InvalidAction("cannot end a question in status %s", g.Status)
	}

	st, err := s.QuestionState(*g.CurrentRoundID, *g.CurrentQuestionID)
	if err != nil {
		return err
	}
	if st.DateEnd == nil {
		now := s.Now
		st.DateEnd = &now
	}
	s.SaveQuestionState(st)

	t, err := s.Timer()
	if err != nil {
		return err
	}
	timer.Reset(t, t.DurationSeconds, s.TimerAuthority(g), s.Now)
	s.SaveTimer(t)

	g.Status = domain.GameStatusQuestionEnd
	s.SaveGame(g)
	return nil
}

// AddRoundScore credits delta to teamID inside a round and records the
// cumulative value reached after questionID.
func (s *Session) AddRoundScore(roundID, questionID, teamID string, delta int) error {
	rs, err := s.RoundScores(roundID)
	if err != nil {
		return err
	}
	rs.Scores[teamID] += delta
	if rs.Progress[teamID] == nil {
		rs.Progress[teamID] = make(map[string]int)
	}
	rs.Progress[teamID][questionID] = rs.Scores[teamID]
	s.SaveRoundScores(roundID, rs)
	return nil
}

// ChooserTeam returns the team holding the turn.
func (s *Session) ChooserTeam() (string, error) {
	c, err := s.Chooser()
	if err != nil {
		return "", err
	}
	team, ok := chooser.Current(c)
	if !ok {
		return "", domain.InvalidAction("no chooser team")
	}
	return team, nil
}

// SetPlayerStatus updates one player's UI status.
func (s *Session) SetPlayerStatus(playerID string, status domain.PlayerStatus) error {
	r, err := s.Roster()
	if err != nil {
		return err
	}
	r.SetStatus(playerID, status)
	s.SaveRoster(r)
	return nil
}

// SetTeamStatus updates the UI status of every player of a team.
func (s *Session) SetTeamStatus(teamID string, status domain.PlayerStatus) error {
	r, err := s.Roster()
	if err != nil {
		return err
	}
	r.SetTeamStatus(teamID, status)
	s.SaveRoster(r)
	return nil
}

// ResetPlayers puts every player back to idle.
func (s *Session) ResetPlayers() error {
	r, err := s.Roster()
	if err != nil {
		return err
	}
	r.SetAllStatus(domain.PlayerStatusIdle)
	s.SaveRoster(r)
	return nil
}

// PlayerTeam resolves the team of a player.
func (s *Session) PlayerTeam(playerID string) (string, error) {
	r, err := s.Roster()
	if err != nil {
		return "", err
	}
	p, ok := r.Player(playerID)
	if !ok {
		return "", domain.InvalidAction("unknown player %s", playerID)
	}
	return p.TeamID, nil
}

// Package session gives transaction bodies typed access to the documents of
// one game. Documents are decoded once per attempt and shared, so every
// helper mutates the same copy; Flush stages the modified ones.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/store"
)

type Session struct {
	ctx    context.Context
	tx     store.Txn
	GameID string
	Now    time.Time

	// ServerTimers hands countdown expiry to the server scheduler instead
	// of the organizer's client.
	ServerTimers bool

	cache map[string]any
	dirty map[string]bool
	order []string
}

func New(ctx context.Context, tx store.Txn, gameID string, now time.Time) *Session {
	return &Session{
		ctx:    ctx,
		tx:     tx,
		GameID: gameID,
		Now:    now,
		cache:  make(map[string]any),
		dirty:  make(map[string]bool),
	}
}

func load[T any](s *Session, key string) (*T, error) {
	if v, ok := s.cache[key]; ok {
		return v.(*T), nil
	}
	var v T
	if err := s.tx.Get(s.ctx, key, &v); err != nil {
		return nil, err
	}
	s.cache[key] = &v
	return &v, nil
}

// Save marks the document under key as modified, caching v as its content.
func (s *Session) Save(key string, v any) {
	s.cache[key] = v
	if !s.dirty[key] {
		s.dirty[key] = true
		s.order = append(s.order, key)
	}
}

// Flush stages every modified document on the transaction.
func (s *Session) Flush() error {
	for _, key := range s.order {
		if err := s.tx.Put(key, s.cache[key]); err != nil {
			return err
		}
	}
	return nil
}

// Dirty reports whether anything was modified.
func (s *Session) Dirty() bool {
	return len(s.order) > 0
}

func (s *Session) Game() (*domain.Game, error) {
	g, err := load[domain.Game](s, domain.GameKey(s.GameID))
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", s.GameID, err)
	}
	return g, nil
}

func (s *Session) SaveGame(g *domain.Game) { s.Save(domain.GameKey(s.GameID), g) }

func (s *Session) Round(roundID string) (*domain.Round, error) {
	r, err := load[domain.Round](s, domain.RoundKey(s.GameID, roundID))
	if err != nil {
		return nil, fmt.Errorf("round %s: %w", roundID, err)
	}
	return r, nil
}

func (s *Session) SaveRound(r *domain.Round) { s.Save(domain.RoundKey(s.GameID, r.ID), r) }

func (s *Session) Question(questionID string) (*domain.Question, error) {
	q, err := load[domain.Question](s, domain.QuestionKey(questionID))
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", questionID, err)
	}
	return q, nil
}

func (s *Session) SaveQuestion(q *domain.Question) { s.Save(domain.QuestionKey(q.ID), q) }

func (s *Session) QuestionState(roundID, questionID string) (*domain.QuestionState, error) {
	st, err := load[domain.QuestionState](s, domain.QuestionStateKey(s.GameID, roundID, questionID))
	if err != nil {
		return nil, fmt.Errorf("question state %s: %w", questionID, err)
	}
	return st, nil
}

func (s *Session) SaveQuestionState(st *domain.QuestionState) {
	s.Save(domain.QuestionStateKey(s.GameID, st.RoundID, st.QuestionID), st)
}

func (s *Session) Theme(themeID string) (*domain.Theme, error) {
	th, err := load[domain.Theme](s, domain.ThemeKey(themeID))
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", themeID, err)
	}
	return th, nil
}

func (s *Session) SaveTheme(th *domain.Theme) { s.Save(domain.ThemeKey(th.ID), th) }

func (s *Session) Roster() (*domain.Roster, error) {
	r, err := load[domain.Roster](s, domain.RosterKey(s.GameID))
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	if r.Players == nil {
		r.Players = make(map[string]domain.Player)
	}
	return r, nil
}

func (s *Session) SaveRoster(r *domain.Roster) { s.Save(domain.RosterKey(s.GameID), r) }

func (s *Session) Chooser() (*domain.ChooserState, error) {
	c, err := load[domain.ChooserState](s, domain.ChooserKey(s.GameID))
	if err != nil {
		return nil, fmt.Errorf("chooser: %w", err)
	}
	return c, nil
}

func (s *Session) SaveChooser(c *domain.ChooserState) { s.Save(domain.ChooserKey(s.GameID), c) }

func (s *Session) Timer() (*domain.TimerState, error) {
	t, err := load[domain.TimerState](s, domain.TimerKey(s.GameID))
	if err != nil {
		return nil, fmt.Errorf("timer: %w", err)
	}
	return t, nil
}

func (s *Session) SaveTimer(t *domain.TimerState) { s.Save(domain.TimerKey(s.GameID), t) }

func (s *Session) RoundScores(roundID string) (*domain.RoundScores, error) {
	rs, err := load[domain.RoundScores](s, domain.RoundScoresKey(s.GameID, roundID))
	if err != nil {
		return nil, fmt.Errorf("round scores %s: %w", roundID, err)
	}
	if rs.Scores == nil {
		rs.Scores = make(map[string]int)
	}
	if rs.Progress == nil {
		rs.Progress = make(map[string]map[string]int)
	}
	if rs.Assigned == nil {
		rs.Assigned = make(map[string]int)
	}
	return rs, nil
}

func (s *Session) SaveRoundScores(roundID string, rs *domain.RoundScores) {
	s.Save(domain.RoundScoresKey(s.GameID, roundID), rs)
}

func (s *Session) GameScores() (*domain.GameScores, error) {
	gs, err := load[domain.GameScores](s, domain.GameScoresKey(s.GameID))
	if err != nil {
		return nil, fmt.Errorf("game scores: %w", err)
	}
	if gs.Scores == nil {
		gs.Scores = make(map[string]int)
	}
	if gs.Progress == nil {
		gs.Progress = make(map[string]map[string]int)
	}
	return gs, nil
}

func (s *Session) SaveGameScores(gs *domain.GameScores) { s.Save(domain.GameScoresKey(s.GameID), gs) }

func (s *Session) Finale() (*domain.FinaleState, error) {
	f, err := load[domain.FinaleState](s, domain.FinaleKey(s.GameID))
	if err != nil {
		return nil, fmt.Errorf("finale: %w", err)
	}
	if f.Themes == nil {
		f.Themes = make(map[string]domain.ThemeResult)
	}
	return f, nil
}

func (s *Session) SaveFinale(f *domain.FinaleState) { s.Save(domain.FinaleKey(s.GameID), f) }

func (s *Session) Sounds() (*domain.SoundQueue, error) {
	q, err := load[domain.SoundQueue](s, domain.SoundsKey(s.GameID))
	if err != nil {
		return nil, fmt.Errorf("sounds: %w", err)
	}
	return q, nil
}

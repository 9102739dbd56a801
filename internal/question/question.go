// Package question implements the per-family question resolvers. Every
// exported action runs inside one store transaction through a Context. On
// error the caller discards the session, so nothing is written.
package question

import (
	"errors"
	"fmt"

	"github.com/dom/trivia-night/internal/chooser"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/session"
)

// Random is the randomness a resolver may use. *rand.Rand from math/rand/v2
// satisfies it.
type Random interface {
	IntN(n int) int
	Perm(n int) []int
}

// Deps are the engine collaborators every resolver shares.
type Deps struct {
	Rotation *chooser.Rotation
	Rand     Random
}

// Context bundles the documents an action works on.
type Context struct {
	Deps
	S        *session.Session
	Game     *domain.Game
	Round    *domain.Round
	Question *domain.Question
	State    *domain.QuestionState
}

// Resolver is implemented once per question family.
type Resolver interface {
	Family() domain.Family
	// Reset installs the family baseline in c.State.
	Reset(c *Context) error
	// HandleCountdownExpiry forces the automatic outcome of a countdown
	// that ran out.
	HandleCountdownExpiry(c *Context) error
}

var resolvers = map[domain.Family]Resolver{
	domain.FamilyRiddle:      Riddle{},
	domain.FamilyQuote:       Quote{},
	domain.FamilyEnumeration: Enumeration{},
	domain.FamilyMatching:    Matching{},
	domain.FamilyMCQ:         MCQ{},
	domain.FamilyOddOneOut:   OddOneOut{},
	domain.FamilyBasic:       Basic{},
}

// For returns the resolver of a round type.
func For(t domain.RoundType) (Resolver, error) {
	r, ok := resolvers[t.Family()]
	if !ok {
		return nil, domain.IllegalChoice("no resolver for question type %q", t)
	}
	return r, nil
}

// NewContext builds a context for the question state of q in round r.
func NewContext(s *session.Session, deps Deps, g *domain.Game, r *domain.Round, q *domain.Question) (*Context, error) {
	st, err := s.QuestionState(r.ID, q.ID)
	if errors.Is(err, domain.ErrNotFound) {
		st = &domain.QuestionState{QuestionID: q.ID, RoundID: r.ID, Type: q.Type}
	} else if err != nil {
		return nil, err
	}
	return &Context{Deps: deps, S: s, Game: g, Round: r, Question: q, State: st}, nil
}

// LoadActive loads the question the game is playing. When questionID is set
// it must be the active one, so actions aimed at a question that already
// moved on are rejected.
func LoadActive(s *session.Session, deps Deps, questionID string) (*Context, error) {
	g, err := s.Game()
	if err != nil {
		return nil, err
	}
	if g.Status != domain.GameStatusQuestionActive {
		return nil, domain.InvalidAction("no question is active (status %s)", g.Status)
	}
	if questionID != "" && *g.CurrentQuestionID != questionID {
		return nil, domain.InvalidAction("question %s is not the active question", questionID)
	}
	r, err := s.Round(*g.CurrentRoundID)
	if err != nil {
		return nil, err
	}
	q, err := s.Question(*g.CurrentQuestionID)
	if err != nil {
		return nil, err
	}
	c, err := NewContext(s, deps, g, r, q)
	if err != nil {
		return nil, err
	}
	// A resumed round can re-enter a question that already ended.
	if c.State.DateEnd != nil {
		return nil, domain.InvalidAction("question %s already ended", q.ID)
	}
	return c, nil
}

// Reset clears the runtime state of c's question to its family baseline.
func Reset(c *Context) error {
	res, err := For(c.Question.Type)
	if err != nil {
		return err
	}
	*c.State = domain.QuestionState{
		QuestionID: c.Question.ID,
		RoundID:    c.Round.ID,
		Type:       c.Question.Type,
	}
	if err := res.Reset(c); err != nil {
		return fmt.Errorf("reset %s: %w", c.Question.ID, err)
	}
	c.S.SaveQuestionState(c.State)
	return nil
}

// HandleCountdownExpiry dispatches expiry to the family resolver.
func HandleCountdownExpiry(c *Context) error {
	res, err := For(c.Question.Type)
	if err != nil {
		return err
	}
	return res.HandleCountdownExpiry(c)
}

func (c *Context) save() {
	c.S.SaveQuestionState(c.State)
}

// requireOpen rejects player actions while the countdown is not running.
func (c *Context) requireOpen() error {
	t, err := c.S.Timer()
	if err != nil {
		return err
	}
	if !t.Authorized {
		return domain.InvalidAction("actions are not open yet")
	}
	return nil
}

// requireChooser rejects teams that do not hold the turn.
func (c *Context) requireChooser(teamID string) error {
	team, err := c.S.ChooserTeam()
	if err != nil {
		return err
	}
	if team != teamID {
		return domain.InvalidAction("team %s is not the chooser", teamID)
	}
	return nil
}

func (c *Context) award(teamID string, points int) error {
	return c.S.AddRoundScore(c.Round.ID, c.Question.ID, teamID, points)
}

func (c *Context) end() error {
	return c.S.EndQuestion()
}

func (c *Context) restartTimer() error {
	return c.S.RestartTimer(c.Round.ThinkingSeconds())
}

// passTurn advances the chooser, refocuses players and restarts the
// countdown for the next team.
func (c *Context) passTurn() error {
	cs, err := c.S.Chooser()
	if err != nil {
		return err
	}
	prev, _ := chooser.Current(cs)
	next := chooser.Advance(cs)
	c.S.SaveChooser(cs)

	if err := c.S.SetTeamStatus(prev, domain.PlayerStatusIdle); err != nil {
		return err
	}
	if err := c.S.SetTeamStatus(next, domain.PlayerStatusFocus); err != nil {
		return err
	}
	return c.restartTimer()
}

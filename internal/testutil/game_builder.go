package testutil

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/dom/trivia-night/internal/chooser"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/question"
	"github.com/dom/trivia-night/internal/session"
	"github.com/dom/trivia-night/internal/store"
	"github.com/dom/trivia-night/internal/timer"
)

// OrganizerID owns every game built by GameBuilder.
const OrganizerID = "organizer"

// NoShuffle keeps slices in their given order.
func NoShuffle(int, func(i, j int)) {}

// Deps returns deterministic resolver dependencies.
func Deps() question.Deps {
	return question.Deps{
		Rotation: chooser.New(NoShuffle),
		Rand:     rand.New(rand.NewPCG(1, 2)),
	}
}

// GameBuilder seeds a game whose first question is already active.
type GameBuilder struct {
	gameID    string
	teams     []string
	players   map[string]string
	round     domain.Round
	questions []*domain.Question
	order     []string
	open      bool
	faker     *gofakeit.Faker
}

// NewGameBuilder creates a builder with teams A, B and C, one player each
// (a1, b1, c1), and a basic round.
func NewGameBuilder() *GameBuilder {
	b := &GameBuilder{
		gameID:  "game-1",
		players: map[string]string{},
		round: domain.Round{
			ID:                 "round-1",
			Type:               domain.RoundTypeBasic,
			Title:              "Round 1",
			RewardsPerQuestion: 1,
		},
		faker: gofakeit.New(42),
	}
	return b.WithTeams("A", "B", "C")
}

// WithTeams replaces the teams. Each team gets one player named after it.
func (b *GameBuilder) WithTeams(ids ...string) *GameBuilder {
	b.teams = ids
	b.players = map[string]string{}
	for _, id := range ids {
		b.players[strings.ToLower(id)+"1"] = id
	}
	return b
}

// WithPlayer adds a player to a team.
func (b *GameBuilder) WithPlayer(playerID, teamID string) *GameBuilder {
	b.players[playerID] = teamID
	return b
}

// WithRound sets the round. The ID defaults to round-1.
func (b *GameBuilder) WithRound(r domain.Round) *GameBuilder {
	if r.ID == "" {
		r.ID = "round-1"
	}
	b.round = r
	return b
}

// WithQuestions sets the questions of the round. The first one is active.
func (b *GameBuilder) WithQuestions(qs ...*domain.Question) *GameBuilder {
	b.questions = qs
	return b
}

// WithChooserOrder sets the turn order. It defaults to the team order.
func (b *GameBuilder) WithChooserOrder(ids ...string) *GameBuilder {
	b.order = ids
	return b
}

// Open starts the countdown so player actions are authorized.
func (b *GameBuilder) Open() *GameBuilder {
	b.open = true
	return b
}

// Build writes every document of the game to st.
func (b *GameBuilder) Build(t *testing.T, st store.Store) *GameFixture {
	t.Helper()

	if len(b.questions) == 0 {
		t.Fatalf("game builder needs at least one question")
	}
	f := &GameFixture{
		Store:   st,
		GameID:  b.gameID,
		RoundID: b.round.ID,
		Deps:    Deps(),
		Now:     time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC),
	}
	for _, q := range b.questions {
		f.QuestionIDs = append(f.QuestionIDs, q.ID)
	}

	order := b.order
	if order == nil {
		order = b.teams
	}

	err := st.Transact(context.Background(), func(ctx context.Context, tx store.Txn) error {
		s := session.New(ctx, tx, b.gameID, f.Now)

		r := b.round
		r.GameID = b.gameID
		r.Order = new(int)
		r.QuestionIDs = f.QuestionIDs
		r.DateStart = &f.Now
		s.SaveRound(&r)
		for _, q := range b.questions {
			s.SaveQuestion(q)
		}

		g := &domain.Game{
			ID:          b.gameID,
			Title:       b.faker.Sentence(3),
			OrganizerID: OrganizerID,
			Status:      domain.GameStatusBuild,
			RoundIDs:    []string{r.ID},
			CreatedAt:   f.Now,
		}
		g.SetQuestion(r.ID, b.questions[0].ID, domain.GameStatusQuestionActive)
		s.SaveGame(g)

		roster := &domain.Roster{Players: map[string]domain.Player{}}
		for _, id := range b.teams {
			roster.Teams = append(roster.Teams, domain.Team{ID: id, Name: b.faker.Animal(), Color: b.faker.HexColor()})
		}
		for pid, tid := range b.players {
			roster.Players[pid] = domain.Player{ID: pid, Name: b.faker.FirstName(), TeamID: tid, Status: domain.PlayerStatusIdle}
		}
		s.SaveRoster(roster)
		s.SaveChooser(&domain.ChooserState{Order: order})

		tm := &domain.TimerState{}
		timer.Reset(tm, r.ThinkingSeconds(), OrganizerID, f.Now)
		if b.open {
			timer.Start(tm, f.Now)
		}
		s.SaveTimer(tm)

		s.SaveRoundScores(r.ID, domain.NewRoundScores(b.teams))
		s.SaveGameScores(domain.NewGameScores(b.teams))

		for _, q := range b.questions {
			c, err := question.NewContext(s, f.Deps, g, &r, q)
			if err != nil {
				return err
			}
			if err := question.Reset(c); err != nil {
				return err
			}
		}
		first, err := s.QuestionState(r.ID, b.questions[0].ID)
		if err != nil {
			return err
		}
		first.DateStart = &f.Now
		s.SaveQuestionState(first)
		return s.Flush()
	})
	if err != nil {
		t.Fatalf("failed to build game: %v", err)
	}
	return f
}

// GameFixture gives tests access to a seeded game.
type GameFixture struct {
	Store       store.Store
	GameID      string
	RoundID     string
	QuestionIDs []string
	Deps        question.Deps
	Now         time.Time
}

// Act runs fn against the active question in one transaction and returns
// its error. Nothing is written when fn fails.
func (f *GameFixture) Act(t *testing.T, fn func(c *question.Context) error) error {
	t.Helper()
	return f.Store.Transact(context.Background(), func(ctx context.Context, tx store.Txn) error {
		s := session.New(ctx, tx, f.GameID, f.Now)
		c, err := question.LoadActive(s, f.Deps, "")
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		return s.Flush()
	})
}

// Advance moves the fixture clock forward.
func (f *GameFixture) Advance(d time.Duration) {
	f.Now = f.Now.Add(d)
}

func read[T any](t *testing.T, f *GameFixture, key string) *T {
	t.Helper()
	var v T
	if err := f.Store.Read(context.Background(), key, &v); err != nil {
		t.Fatalf("failed to read %s: %v", key, err)
	}
	return &v
}

func (f *GameFixture) Game(t *testing.T) *domain.Game {
	return read[domain.Game](t, f, domain.GameKey(f.GameID))
}

func (f *GameFixture) State(t *testing.T) *domain.QuestionState {
	return read[domain.QuestionState](t, f, domain.QuestionStateKey(f.GameID, f.RoundID, f.QuestionIDs[0]))
}

func (f *GameFixture) Roster(t *testing.T) *domain.Roster {
	return read[domain.Roster](t, f, domain.RosterKey(f.GameID))
}

func (f *GameFixture) Chooser(t *testing.T) *domain.ChooserState {
	return read[domain.ChooserState](t, f, domain.ChooserKey(f.GameID))
}

func (f *GameFixture) Timer(t *testing.T) *domain.TimerState {
	return read[domain.TimerState](t, f, domain.TimerKey(f.GameID))
}

func (f *GameFixture) RoundScores(t *testing.T) *domain.RoundScores {
	return read[domain.RoundScores](t, f, domain.RoundScoresKey(f.GameID, f.RoundID))
}

func (f *GameFixture) Sounds(t *testing.T) []string {
	q := read[domain.SoundQueue](t, f, domain.SoundsKey(f.GameID))
	names := make([]string, len(q.Cues))
	for i, c := range q.Cues {
		names[i] = c.Name
	}
	return names
}

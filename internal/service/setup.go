package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/question"
	"github.com/dom/trivia-night/internal/session"
	"github.com/dom/trivia-night/internal/timer"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

const maxNameLength = 120

// sanitize strips markup from user-provided names and titles.
func sanitize(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\x00", "")
	s = strings.TrimSpace(textPolicy.Sanitize(s))
	if utf8.RuneCountInString(s) > maxNameLength {
		s = string([]rune(s)[:maxNameLength])
	}
	return s
}

// SetupService builds games before launch: teams, rounds, questions and
// finale themes. Players may still join a launched game.
type SetupService struct {
	engine *Engine
}

func NewSetupService(engine *Engine) *SetupService {
	return &SetupService{engine: engine}
}

type CreateGameInput struct {
	Title string
}

// CreateGame creates an empty game in the build phase owned by caller.
func (svc *SetupService) CreateGame(ctx context.Context, caller domain.Caller, input CreateGameInput) (*domain.Game, error) {
	if !caller.IsOrganizer() || caller.UserID == "" {
		return nil, domain.InvalidAction("only organizers may create games")
	}
	title := sanitize(input.Title)
	if title == "" {
		return nil, domain.Precondition("title is required")
	}
	var g *domain.Game
	gameID := uuid.NewString()
	err := svc.engine.run(ctx, "CreateGame", gameID, func(s *session.Session) error {
		var err error
		g, err = createGame(s, caller.UserID, title)
		return err
	})
	return g, err
}

func createGame(s *session.Session, organizerID, title string) (*domain.Game, error) {
	if _, err := s.Game(); err == nil {
		return nil, domain.InvalidAction("game %s already exists", s.GameID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	g := &domain.Game{
		ID:          s.GameID,
		Title:       title,
		OrganizerID: organizerID,
		Status:      domain.GameStatusBuild,
		RoundIDs:    []string{},
		CreatedAt:   s.Now,
	}
	s.SaveGame(g)
	s.SaveRoster(&domain.Roster{Teams: []domain.Team{}, Players: map[string]domain.Player{}})
	s.SaveChooser(&domain.ChooserState{Order: []string{}})

	t := &domain.TimerState{}
	timer.Reset(t, 0, s.TimerAuthority(g), s.Now)
	s.SaveTimer(t)
	s.Save(domain.SoundsKey(s.GameID), &domain.SoundQueue{Cues: []domain.SoundCue{}})
	return g, nil
}

// requireBuild loads a game caller may still edit.
func requireBuild(s *session.Session, caller domain.Caller) (*domain.Game, error) {
	g, err := requireOrganizer(s, caller)
	if err != nil {
		return nil, err
	}
	if g.Status != domain.GameStatusBuild {
		return nil, domain.InvalidAction("game %s was already launched", g.ID)
	}
	return g, nil
}

type TeamInput struct {
	Name  string
	Color string
}

func (svc *SetupService) AddTeam(ctx context.Context, caller domain.Caller, gameID string, input TeamInput) (*domain.Team, error) {
	var team *domain.Team
	err := svc.engine.run(ctx, "AddTeam", gameID, func(s *session.Session) error {
		if _, err := requireBuild(s, caller); err != nil {
			return err
		}
		var err error
		team, err = addTeam(s, input)
		return err
	})
	return team, err
}

func addTeam(s *session.Session, input TeamInput) (*domain.Team, error) {
	name := sanitize(input.Name)
	if name == "" {
		return nil, domain.Precondition("team name is required")
	}
	roster, err := s.Roster()
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(roster.Teams, func(t domain.Team) bool { return strings.EqualFold(t.Name, name) }) {
		return nil, domain.InvalidAction("team %q already exists", name)
	}
	team := domain.Team{ID: uuid.NewString(), Name: name, Color: sanitize(input.Color)}
	roster.Teams = append(roster.Teams, team)
	s.SaveRoster(roster)
	return &team, nil
}

// AddPlayer joins a player to a team. Joining is open until the game ends.
func (svc *SetupService) AddPlayer(ctx context.Context, gameID, teamID, name string) (*domain.Player, error) {
	if teamID == "" {
		return nil, domain.Precondition("team id is required")
	}
	var p *domain.Player
	err := svc.engine.run(ctx, "AddPlayer", gameID, func(s *session.Session) error {
		g, err := s.Game()
		if err != nil {
			return err
		}
		if g.Status == domain.GameStatusGameEnd {
			return domain.InvalidAction("game %s is over", g.ID)
		}
		p, err = addPlayer(s, teamID, name)
		return err
	})
	return p, err
}

func addPlayer(s *session.Session, teamID, name string) (*domain.Player, error) {
	name = sanitize(name)
	if name == "" {
		return nil, domain.Precondition("player name is required")
	}
	roster, err := s.Roster()
	if err != nil {
		return nil, err
	}
	if !roster.HasTeam(teamID) {
		return nil, domain.IllegalChoice("unknown team %s", teamID)
	}
	p := domain.Player{ID: uuid.NewString(), Name: name, TeamID: teamID, Status: domain.PlayerStatusIdle}
	roster.Players[p.ID] = p
	s.SaveRoster(roster)
	return &p, nil
}

// RoundInput describes a round. Zero values take the round type defaults.
type RoundInput struct {
	Type               domain.RoundType
	Title              string
	RewardsPerQuestion int
	RewardsPerElement  int
	Bonus              int
	MistakePenalty     int
	MaxTries           int
	ClueDelay          int
	ThinkingTime       int
	RewardsByOption    map[string]int
	ScorePolicy        domain.ScorePolicy
	RewardsTable       []int
}

func (svc *SetupService) AddRound(ctx context.Context, caller domain.Caller, gameID string, input RoundInput) (*domain.Round, error) {
	if !input.Type.Valid() {
		return nil, domain.IllegalChoice("unknown round type %q", input.Type)
	}
	var r *domain.Round
	err := svc.engine.run(ctx, "AddRound", gameID, func(s *session.Session) error {
		g, err := requireBuild(s, caller)
		if err != nil {
			return err
		}
		r, err = addRound(s, g, input)
		return err
	})
	return r, err
}

func addRound(s *session.Session, g *domain.Game, input RoundInput) (*domain.Round, error) {
	if !input.Type.Valid() {
		return nil, domain.IllegalChoice("unknown round type %q", input.Type)
	}
	if input.RewardsPerQuestion < 0 || input.RewardsPerElement < 0 || input.Bonus < 0 ||
		input.MistakePenalty < 0 || input.MaxTries < 0 || input.ClueDelay < 0 || input.ThinkingTime < 0 {
		return nil, domain.IllegalChoice("round settings must not be negative")
	}
	policy := input.ScorePolicy
	switch policy {
	case "":
		policy = domain.ScorePolicyRanking
	case domain.ScorePolicyRanking, domain.ScorePolicyCompletionRate:
	default:
		return nil, domain.IllegalChoice("unknown score policy %q", policy)
	}
	if policy == domain.ScorePolicyCompletionRate && input.Type.LowerIsBetter() {
		return nil, domain.IllegalChoice("%s rounds have no maximum score for completion rate", input.Type)
	}
	if input.ClueDelay > 0 && input.Type != domain.RoundTypeProgressiveClues {
		return nil, domain.IllegalChoice("clue delay only applies to progressive clues")
	}
	for option := range input.RewardsByOption {
		if !slices.Contains(domain.MCQOptions(), option) {
			return nil, domain.IllegalChoice("unknown option %q", option)
		}
	}
	if input.Type == domain.RoundTypeSpecial {
		for _, id := range g.RoundIDs {
			other, err := s.Round(id)
			if err != nil {
				return nil, err
			}
			if other.Type == domain.RoundTypeSpecial {
				return nil, domain.InvalidAction("game %s already has a finale", g.ID)
			}
		}
	}

	title := sanitize(input.Title)
	if title == "" {
		title = string(input.Type)
	}
	r := &domain.Round{
		ID:                 uuid.NewString(),
		GameID:             g.ID,
		Type:               input.Type,
		Title:              title,
		QuestionIDs:        []string{},
		RewardsPerQuestion: input.RewardsPerQuestion,
		RewardsPerElement:  input.RewardsPerElement,
		Bonus:              input.Bonus,
		MistakePenalty:     input.MistakePenalty,
		MaxTries:           input.MaxTries,
		ClueDelay:          input.ClueDelay,
		ThinkingTime:       input.ThinkingTime,
		RewardsByOption:    input.RewardsByOption,
		ScorePolicy:        policy,
		RewardsTable:       slices.Clone(input.RewardsTable),
	}
	if r.Type == domain.RoundTypeSpecial {
		r.ThemeIDs = []string{}
	}
	s.SaveRound(r)
	g.RoundIDs = append(g.RoundIDs, r.ID)
	s.SaveGame(g)
	return r, nil
}

// AddQuestion appends q to a round and prepares its runtime state. The
// question takes the round's type.
func (svc *SetupService) AddQuestion(ctx context.Context, caller domain.Caller, gameID, roundID string, q domain.Question) (*domain.Question, error) {
	if roundID == "" {
		return nil, domain.Precondition("round id is required")
	}
	var added *domain.Question
	err := svc.engine.run(ctx, "AddQuestion", gameID, func(s *session.Session) error {
		g, err := requireBuild(s, caller)
		if err != nil {
			return err
		}
		r, err := s.Round(roundID)
		if err != nil {
			return err
		}
		added, err = addQuestion(s, svc.engine.deps, g, r, q)
		return err
	})
	return added, err
}

func addQuestion(s *session.Session, deps question.Deps, g *domain.Game, r *domain.Round, q domain.Question) (*domain.Question, error) {
	if r.Type == domain.RoundTypeSpecial {
		return nil, domain.InvalidAction("finale rounds take themes, not questions")
	}
	q.ID = uuid.NewString()
	q.Type = r.Type
	q.Title = sanitize(q.Title)
	if err := ValidateQuestion(&q); err != nil {
		return nil, err
	}
	if q.Type == domain.RoundTypeMCQ && len(r.QuestionIDs) > 0 {
		first, err := s.Question(r.QuestionIDs[0])
		if err != nil {
			return nil, err
		}
		if first.MCQ.Subtype != q.MCQ.Subtype {
			return nil, domain.IllegalChoice("round %s only takes %s multiple choice questions", r.ID, first.MCQ.Subtype)
		}
	}
	s.SaveQuestion(&q)
	r.QuestionIDs = append(r.QuestionIDs, q.ID)
	s.SaveRound(r)

	c, err := question.NewContext(s, deps, g, r, &q)
	if err != nil {
		return nil, err
	}
	if err := question.Reset(c); err != nil {
		return nil, err
	}
	return &q, nil
}

// ValidateQuestion checks that q carries the details of its family and that
// they are playable.
func ValidateQuestion(q *domain.Question) error {
	switch q.Type.Family() {
	case domain.FamilyRiddle:
		if q.Riddle == nil || strings.TrimSpace(q.Riddle.Answer) == "" {
			return domain.IllegalChoice("riddle question needs an answer")
		}
	case domain.FamilyQuote:
		return validateQuote(q.Quote)
	case domain.FamilyEnumeration:
		if q.Enumeration == nil || len(q.Enumeration.Answer) == 0 {
			return domain.IllegalChoice("enumeration question needs items")
		}
		if q.Enumeration.ChallengeTime < 0 {
			return domain.IllegalChoice("challenge time must not be negative")
		}
	case domain.FamilyMatching:
		d := q.Matching
		if d == nil || d.NumRows() < 2 || d.NumCols() < 2 {
			return domain.IllegalChoice("matching question needs at least two rows and two columns")
		}
		for _, row := range d.Answer {
			if len(row) != d.NumCols() {
				return domain.IllegalChoice("matching rows must have the same length")
			}
		}
	case domain.FamilyMCQ:
		d := q.MCQ
		if d == nil || len(d.Choices) < 2 {
			return domain.IllegalChoice("multiple-choice question needs at least two choices")
		}
		if d.Answer < 0 || d.Answer >= len(d.Choices) {
			return domain.IllegalChoice("answer %d out of range", d.Answer)
		}
		switch d.Subtype {
		case "":
			d.Subtype = domain.MCQImmediate
		case domain.MCQImmediate, domain.MCQConditional:
		default:
			return domain.IllegalChoice("unknown subtype %q", d.Subtype)
		}
	case domain.FamilyOddOneOut:
		d := q.OddOneOut
		if d == nil || len(d.Items) < 2 {
			return domain.IllegalChoice("odd-one-out question needs at least two items")
		}
		if d.Answer < 0 || d.Answer >= len(d.Items) {
			return domain.IllegalChoice("answer %d out of range", d.Answer)
		}
	case domain.FamilyBasic:
		if q.Basic == nil {
			return domain.IllegalChoice("basic question needs an answer")
		}
	default:
		return domain.IllegalChoice("unknown question type %q", q.Type)
	}
	return nil
}

func validateQuote(d *domain.QuoteDetails) error {
	if d == nil || len(d.ToGuess) == 0 {
		return domain.IllegalChoice("quote question needs elements to guess")
	}
	for _, key := range d.ToGuess {
		switch key {
		case domain.QuoteElementAuthor, domain.QuoteElementSource, domain.QuoteElementQuote:
		default:
			return domain.IllegalChoice("unknown quote element %q", key)
		}
	}
	if !d.Guesses(domain.QuoteElementQuote) {
		return nil
	}
	if len(d.QuoteParts) == 0 {
		return domain.IllegalChoice("quote parts are required to guess the quote")
	}
	n := utf8.RuneCountInString(d.Quote)
	for _, p := range d.QuoteParts {
		if p[0] < 0 || p[0] >= p[1] || p[1] > n {
			return domain.IllegalChoice("quote part [%d, %d) out of range", p[0], p[1])
		}
	}
	return nil
}

type ThemeInput struct {
	Title     string
	Questions []domain.ThemeQuestion
}

// AddTheme adds a theme to the finale round.
func (svc *SetupService) AddTheme(ctx context.Context, caller domain.Caller, gameID, roundID string, input ThemeInput) (*domain.Theme, error) {
	if roundID == "" {
		return nil, domain.Precondition("round id is required")
	}
	var th *domain.Theme
	err := svc.engine.run(ctx, "AddTheme", gameID, func(s *session.Session) error {
		if _, err := requireBuild(s, caller); err != nil {
			return err
		}
		r, err := s.Round(roundID)
		if err != nil {
			return err
		}
		th, err = addTheme(s, r, input)
		return err
	})
	return th, err
}

func addTheme(s *session.Session, r *domain.Round, input ThemeInput) (*domain.Theme, error) {
	if r.Type != domain.RoundTypeSpecial {
		return nil, domain.InvalidAction("round %s is not a finale", r.ID)
	}
	if len(input.Questions) == 0 {
		return nil, domain.IllegalChoice("theme needs questions")
	}
	th := &domain.Theme{
		ID:        uuid.NewString(),
		Title:     sanitize(input.Title),
		Questions: slices.Clone(input.Questions),
	}
	s.SaveTheme(th)
	r.ThemeIDs = append(r.ThemeIDs, th.ID)
	s.SaveRound(r)
	return th, nil
}

package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/session"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// GameFile is the YAML layout of a complete game definition.
type GameFile struct {
	Title  string      `yaml:"title"`
	Teams  []TeamFile  `yaml:"teams"`
	Rounds []RoundFile `yaml:"rounds"`
}

type TeamFile struct {
	Name    string   `yaml:"name"`
	Color   string   `yaml:"color"`
	Players []string `yaml:"players"`
}

type RoundFile struct {
	Type               domain.RoundType   `yaml:"type"`
	Title              string             `yaml:"title"`
	RewardsPerQuestion int                `yaml:"rewards_per_question"`
	RewardsPerElement  int                `yaml:"rewards_per_element"`
	Bonus              int                `yaml:"bonus"`
	MistakePenalty     int                `yaml:"mistake_penalty"`
	MaxTries           int                `yaml:"max_tries"`
	ClueDelay          int                `yaml:"clue_delay"`
	ThinkingTime       int                `yaml:"thinking_time"`
	RewardsByOption    map[string]int     `yaml:"rewards_by_option"`
	ScorePolicy        domain.ScorePolicy `yaml:"score_policy"`
	RewardsTable       []int              `yaml:"rewards_table"`
	Questions          []QuestionFile     `yaml:"questions"`
	Themes             []ThemeFile        `yaml:"themes"`
}

// QuestionFile holds the fields of every family. Only those of the round's
// family are read.
type QuestionFile struct {
	Title       string `yaml:"title"`
	Answer      string `yaml:"answer"`
	Explanation string `yaml:"explanation"`

	Clues    []string `yaml:"clues"`
	MediaURL string   `yaml:"media_url"`

	Quote      string   `yaml:"quote"`
	Author     string   `yaml:"author"`
	Source     string   `yaml:"source"`
	ToGuess    []string `yaml:"to_guess"`
	QuoteParts [][2]int `yaml:"quote_parts"`

	Items         []string `yaml:"items"`
	MaxIsKnown    bool     `yaml:"max_is_known"`
	ChallengeTime int      `yaml:"challenge_time"`

	Rows [][]string `yaml:"rows"`

	Subtype     domain.MCQSubtype `yaml:"subtype"`
	Choices     []string          `yaml:"choices"`
	AnswerIndex int               `yaml:"answer_index"`

	Proposals []domain.OddOneOutItem `yaml:"proposals"`
}

type ThemeFile struct {
	Title     string `yaml:"title"`
	Questions []struct {
		Title       string `yaml:"title"`
		Answer      string `yaml:"answer"`
		Explanation string `yaml:"explanation"`
	} `yaml:"questions"`
}

func (f QuestionFile) question(t domain.RoundType) domain.Question {
	q := domain.Question{Type: t, Title: f.Title}
	switch t.Family() {
	case domain.FamilyRiddle:
		q.Riddle = &domain.RiddleDetails{Clues: f.Clues, Answer: f.Answer, MediaURL: f.MediaURL}
	case domain.FamilyQuote:
		q.Quote = &domain.QuoteDetails{
			Quote: f.Quote, Author: f.Author, Source: f.Source,
			ToGuess: f.ToGuess, QuoteParts: f.QuoteParts,
		}
	case domain.FamilyEnumeration:
		q.Enumeration = &domain.EnumerationDetails{Answer: f.Items, MaxIsKnown: f.MaxIsKnown, ChallengeTime: f.ChallengeTime}
	case domain.FamilyMatching:
		q.Matching = &domain.MatchingDetails{Answer: f.Rows}
	case domain.FamilyMCQ:
		q.MCQ = &domain.MCQDetails{Subtype: f.Subtype, Choices: f.Choices, Answer: f.AnswerIndex, Explanation: f.Explanation}
	case domain.FamilyOddOneOut:
		q.OddOneOut = &domain.OddOneOutDetails{Items: f.Proposals, Answer: f.AnswerIndex}
	case domain.FamilyBasic:
		q.Basic = &domain.BasicDetails{Answer: f.Answer, Explanation: f.Explanation}
	}
	return q
}

// ImportYAML creates a whole game from a definition file in one transaction.
func (svc *SetupService) ImportYAML(ctx context.Context, caller domain.Caller, r io.Reader) (*domain.Game, error) {
	var file GameFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, domain.Precondition("decode game file: %v", err)
	}
	if !caller.IsOrganizer() || caller.UserID == "" {
		return nil, domain.InvalidAction("only organizers may create games")
	}
	title := sanitize(file.Title)
	if title == "" {
		return nil, domain.Precondition("title is required")
	}

	var g *domain.Game
	err := svc.engine.run(ctx, "ImportYAML", uuid.NewString(), func(s *session.Session) error {
		var err error
		if g, err = createGame(s, caller.UserID, title); err != nil {
			return err
		}
		for _, tf := range file.Teams {
			team, err := addTeam(s, TeamInput{Name: tf.Name, Color: tf.Color})
			if err != nil {
				return err
			}
			for _, name := range tf.Players {
				if _, err := addPlayer(s, team.ID, name); err != nil {
					return err
				}
			}
		}
		for i, rf := range file.Rounds {
			if err := svc.importRound(s, g, rf); err != nil {
				return fmt.Errorf("round %d: %w", i+1, err)
			}
		}
		return nil
	})
	return g, err
}

func (svc *SetupService) importRound(s *session.Session, g *domain.Game, rf RoundFile) error {
	r, err := addRound(s, g, RoundInput{
		Type:               rf.Type,
		Title:              rf.Title,
		RewardsPerQuestion: rf.RewardsPerQuestion,
		RewardsPerElement:  rf.RewardsPerElement,
		Bonus:              rf.Bonus,
		MistakePenalty:     rf.MistakePenalty,
		MaxTries:           rf.MaxTries,
		ClueDelay:          rf.ClueDelay,
		ThinkingTime:       rf.ThinkingTime,
		RewardsByOption:    rf.RewardsByOption,
		ScorePolicy:        rf.ScorePolicy,
		RewardsTable:       rf.RewardsTable,
	})
	if err != nil {
		return err
	}
	for j, qf := range rf.Questions {
		if _, err := addQuestion(s, svc.engine.deps, g, r, qf.question(r.Type)); err != nil {
			return fmt.Errorf("question %d: %w", j+1, err)
		}
	}
	for _, tf := range rf.Themes {
		input := ThemeInput{Title: tf.Title}
		for _, tq := range tf.Questions {
			input.Questions = append(input.Questions, domain.ThemeQuestion{
				Title: tq.Title, Answer: tq.Answer, Explanation: tq.Explanation,
			})
		}
		if _, err := addTheme(s, r, input); err != nil {
			return err
		}
	}
	return nil
}

// ImportMCQFromXLSX appends multiple-choice questions read from the first
// sheet of a workbook to an mcq round. Rows are: title, choices..., and the
// 1-based number of the correct choice in the last column. The first row is
// a header.
func (svc *SetupService) ImportMCQFromXLSX(ctx context.Context, caller domain.Caller, gameID, roundID string, subtype domain.MCQSubtype, r io.Reader) (int, error) {
	if roundID == "" {
		return 0, domain.Precondition("round id is required")
	}
	questions, err := ParseMCQSheet(r, subtype)
	if err != nil {
		return 0, err
	}
	err = svc.engine.run(ctx, "ImportMCQFromXLSX", gameID, func(s *session.Session) error {
		g, err := requireBuild(s, caller)
		if err != nil {
			return err
		}
		round, err := s.Round(roundID)
		if err != nil {
			return err
		}
		if round.Type != domain.RoundTypeMCQ {
			return domain.InvalidAction("round %s is not a multiple-choice round", round.ID)
		}
		for _, q := range questions {
			if _, err := addQuestion(s, svc.engine.deps, g, round, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(questions), nil
}

// ParseMCQSheet reads multiple-choice questions from a workbook.
func ParseMCQSheet(r io.Reader, subtype domain.MCQSubtype) ([]domain.Question, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.Precondition("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.Precondition("workbook has no sheet")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	var questions []domain.Question
	for i, row := range rows {
		if i == 0 {
			continue
		}
		cells := trimCells(row)
		if len(cells) == 0 {
			continue
		}
		if len(cells) < 4 {
			return nil, domain.IllegalChoice("row %d: need a title, two choices and the answer", i+1)
		}
		answer, err := strconv.Atoi(cells[len(cells)-1])
		if err != nil {
			return nil, domain.IllegalChoice("row %d: answer %q is not a number", i+1, cells[len(cells)-1])
		}
		choices := cells[1 : len(cells)-1]
		q := domain.Question{
			Type:  domain.RoundTypeMCQ,
			Title: cells[0],
			MCQ:   &domain.MCQDetails{Subtype: subtype, Choices: choices, Answer: answer - 1},
		}
		if err := ValidateQuestion(&q); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// trimCells trims every cell and drops trailing empty ones.
func trimCells(row []string) []string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

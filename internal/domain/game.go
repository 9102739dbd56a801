package domain

import "time"

type GameStatus string

const (
	GameStatusBuild          GameStatus = "build"
	GameStatusGameStart      GameStatus = "game_start"
	GameStatusGameHome       GameStatus = "game_home"
	GameStatusRoundStart     GameStatus = "round_start"
	GameStatusQuestionActive GameStatus = "question_active"
	GameStatusQuestionEnd    GameStatus = "question_end"
	GameStatusRoundEnd       GameStatus = "round_end"
	GameStatusFinale         GameStatus = "finale"
	GameStatusGameEnd        GameStatus = "game_end"
)

// HasCurrentQuestion reports whether a game in this status must point at a
// current question.
func (s GameStatus) HasCurrentQuestion() bool {
	return s == GameStatusQuestionActive || s == GameStatusQuestionEnd
}

type Game struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	OrganizerID       string     `json:"organizerId"`
	Status            GameStatus `json:"status"`
	CurrentRoundID    *string    `json:"currentRoundId"`
	CurrentQuestionID *string    `json:"currentQuestionId"`
	RoundIDs          []string   `json:"roundIds"`
	CreatedAt         time.Time  `json:"createdAt"`
	LaunchedAt        *time.Time `json:"launchedAt"`
	EndedAt           *time.Time `json:"endedAt"`
}

// SetQuestion points the game at a question and keeps the status in step.
func (g *Game) SetQuestion(roundID, questionID string, status GameStatus) {
	g.CurrentRoundID = &roundID
	g.CurrentQuestionID = &questionID
	g.Status = status
}

// ClearQuestion drops the current question pointer and moves to a status
// without one.
func (g *Game) ClearQuestion(status GameStatus) {
	g.CurrentQuestionID = nil
	g.Status = status
}

type FinaleStatus string

const (
	FinaleStatusHome        FinaleStatus = "finale_home"
	FinaleStatusThemeActive FinaleStatus = "theme_active"
	FinaleStatusThemeEnd    FinaleStatus = "theme_end"
)

// Theme is a finale block of organizer-validated questions.
type Theme struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Questions []ThemeQuestion `json:"questions"`
}

type ThemeQuestion struct {
	Title       string `json:"title"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation,omitempty"`
}

// FinaleState is the runtime of the special round.
type FinaleState struct {
	Status         FinaleStatus           `json:"status"`
	RoundID        string                 `json:"roundId"`
	CurrentThemeID *string                `json:"currentThemeId"`
	QuestionIndex  int                    `json:"questionIndex"`
	Themes         map[string]ThemeResult `json:"themes"`
	ThemeOrder     []string               `json:"themeOrder"`
	ChooserTeamID  *string                `json:"chooserTeamId"`
	DateStart      *time.Time             `json:"dateStart"`
	DateEnd        *time.Time             `json:"dateEnd"`
}

type ThemeResult struct {
	TeamID  *string `json:"teamId"`
	Answers []bool  `json:"answers"`
	Score   int     `json:"score"`
	Done    bool    `json:"done"`
}

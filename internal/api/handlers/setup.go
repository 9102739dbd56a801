package handlers

import (
	"net/http"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/service"
	"github.com/go-chi/chi/v5"
)

// SetupHandler serves the build phase: teams, rounds, questions and themes.
type SetupHandler struct {
	setup *service.SetupService
}

func NewSetupHandler(setup *service.SetupService) *SetupHandler {
	return &SetupHandler{setup: setup}
}

type TeamRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (h *SetupHandler) AddTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req TeamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	team, err := h.setup.AddTeam(r.Context(), caller, chi.URLParam(r, "gameID"), service.TeamInput{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

type RoundRequest struct {
	Type               domain.RoundType   `json:"type"`
	Title              string             `json:"title"`
	RewardsPerQuestion int                `json:"rewardsPerQuestion"`
	RewardsPerElement  int                `json:"rewardsPerElement"`
	Bonus              int                `json:"bonus"`
	MistakePenalty     int                `json:"mistakePenalty"`
	MaxTries           int                `json:"maxTries"`
	ClueDelay          int                `json:"clueDelay"`
	ThinkingTime       int                `json:"thinkingTime"`
	RewardsByOption    map[string]int     `json:"rewardsByOption"`
	ScorePolicy        domain.ScorePolicy `json:"scorePolicy"`
	RewardsTable       []int              `json:"rewardsTable"`
}

func (h *SetupHandler) AddRound(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req RoundRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	round, err := h.setup.AddRound(r.Context(), caller, chi.URLParam(r, "gameID"), service.RoundInput{
		Type:               req.Type,
		Title:              req.Title,
		RewardsPerQuestion: req.RewardsPerQuestion,
		RewardsPerElement:  req.RewardsPerElement,
		Bonus:              req.Bonus,
		MistakePenalty:     req.MistakePenalty,
		MaxTries:           req.MaxTries,
		ClueDelay:          req.ClueDelay,
		ThinkingTime:       req.ThinkingTime,
		RewardsByOption:    req.RewardsByOption,
		ScorePolicy:        req.ScorePolicy,
		RewardsTable:       req.RewardsTable,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

// AddQuestion takes a question definition in its stored JSON form. The type
// is taken from the round.
func (h *SetupHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var q domain.Question
	if !decodeJSON(w, r, &q) {
		return
	}
	created, err := h.setup.AddQuestion(r.Context(), caller, chi.URLParam(r, "gameID"), chi.URLParam(r, "roundID"), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type ThemeRequest struct {
	Title     string                 `json:"title"`
	Questions []domain.ThemeQuestion `json:"questions"`
}

func (h *SetupHandler) AddTheme(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req ThemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	theme, err := h.setup.AddTheme(r.Context(), caller, chi.URLParam(r, "gameID"), chi.URLParam(r, "roundID"), service.ThemeInput{
		Title:     req.Title,
		Questions: req.Questions,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, theme)
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

// ImportMCQ reads a multipart upload whose "file" part is an xlsx workbook.
// The optional "subtype" field selects immediate or conditional questions.
func (h *SetupHandler) ImportMCQ(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	subtype := domain.MCQSubtype(r.FormValue("subtype"))
	n, err := h.setup.ImportMCQFromXLSX(r.Context(), caller, chi.URLParam(r, "gameID"), chi.URLParam(r, "roundID"), subtype, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ImportResponse{Imported: n})
}

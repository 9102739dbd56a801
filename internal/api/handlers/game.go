package handlers

import (
	"net/http"
	"strconv"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/service"
	"github.com/go-chi/chi/v5"
)

// maxUploadBytes caps game files and spreadsheets.
const maxUploadBytes = 8 << 20

// GameHandler serves game creation, joining, read models and the
// organizer's flow commands.
type GameHandler struct {
	setup     *service.SetupService
	game      *service.GameService
	engine    *service.Engine
	auth      *service.AuthService
	publicURL string
}

func NewGameHandler(services *service.Services, publicURL string) *GameHandler {
	return &GameHandler{
		setup:     services.Setup,
		game:      services.Game,
		engine:    services.Engine,
		auth:      services.Auth,
		publicURL: publicURL,
	}
}

type CreateGameRequest struct {
	Title string `json:"title"`
}

type GameResponse struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Status domain.GameStatus `json:"status"`
}

func gameResponse(g *domain.Game) GameResponse {
	return GameResponse{ID: g.ID, Title: g.Title, Status: g.Status}
}

func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req CreateGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := h.setup.CreateGame(r.Context(), caller, service.CreateGameInput{Title: req.Title})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, gameResponse(g))
}

// Import creates a game from a YAML definition sent as the request body.
func (h *GameHandler) Import(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	g, err := h.setup.ImportYAML(r.Context(), caller, r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, gameResponse(g))
}

type JoinRequest struct {
	TeamID string `json:"teamId"`
	Name   string `json:"name"`
}

type JoinResponse struct {
	Player      domain.Player `json:"player"`
	AccessToken string        `json:"accessToken"`
}

// Join adds an anonymous player to a team and returns the player's token.
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	var req JoinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.setup.AddPlayer(r.Context(), gameID, req.TeamID, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.auth.PlayerToken(gameID, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, JoinResponse{Player: *p, AccessToken: token})
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Spectate returns a read-only token for an existing game.
func (h *GameHandler) Spectate(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	var g domain.Game
	if err := h.engine.Read(r.Context(), domain.GameKey(gameID), &g); err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.auth.SpectatorToken(g.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}

// Document returns the committed content of the document named by the key
// query parameter.
func (h *GameHandler) Document(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	raw, err := h.engine.ReadDocument(r.Context(), caller, r.URL.Query().Get("key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

func (h *GameHandler) GameChart(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	png, err := h.engine.GameChart(r.Context(), caller, chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePNG(w, png)
}

func (h *GameHandler) RoundChart(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	png, err := h.engine.RoundChart(r.Context(), caller, chi.URLParam(r, "gameID"), chi.URLParam(r, "roundID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePNG(w, png)
}

// JoinCode serves a QR code that opens the join page of the game.
func (h *GameHandler) JoinCode(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	png, err := h.engine.JoinCode(r.Context(), caller, chi.URLParam(r, "gameID"), h.publicURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePNG(w, png)
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// flow adapts an organizer command that takes the game id only.
func (h *GameHandler) flow(fn func(svc *service.GameService, r *http.Request, caller domain.Caller, gameID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		if err := fn(h.game, r, caller, chi.URLParam(r, "gameID")); err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w)
	}
}

func (h *GameHandler) Launch() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.Launch(r.Context(), c, gameID)
	})
}

func (h *GameHandler) OpenHome() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.OpenHome(r.Context(), c, gameID)
	})
}

func (h *GameHandler) SelectRound() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.SelectRound(r.Context(), c, gameID, chi.URLParam(r, "roundID"))
	})
}

func (h *GameHandler) StartRound() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.StartRound(r.Context(), c, gameID)
	})
}

func (h *GameHandler) EndQuestion() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.EndQuestion(r.Context(), c, gameID, chi.URLParam(r, "questionID"))
	})
}

func (h *GameHandler) NextQuestion() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.AdvanceAfterQuestionEnd(r.Context(), c, gameID, chi.URLParam(r, "questionID"))
	})
}

func (h *GameHandler) ReturnToHome() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.ReturnToHome(r.Context(), c, gameID)
	})
}

func (h *GameHandler) EndGame() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.EndGame(r.Context(), c, gameID)
	})
}

func (h *GameHandler) StartTimer() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.StartTimer(r.Context(), c, gameID)
	})
}

func (h *GameHandler) StopTimer() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.StopTimer(r.Context(), c, gameID)
	})
}

func (h *GameHandler) ResetQuestion() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.ResetQuestion(r.Context(), c, gameID)
	})
}

func (h *GameHandler) SelectTheme() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.SelectTheme(r.Context(), c, gameID, chi.URLParam(r, "themeID"))
	})
}

func (h *GameHandler) FinaleHome() http.HandlerFunc {
	return h.flow(func(svc *service.GameService, r *http.Request, c domain.Caller, gameID string) error {
		return svc.FinaleHome(r.Context(), c, gameID)
	})
}

type JudgeRequest struct {
	Correct bool `json:"correct"`
}

func (h *GameHandler) JudgeThemeAnswer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req JudgeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.game.JudgeThemeAnswer(r.Context(), caller, chi.URLParam(r, "gameID"), req.Correct); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w)
}

type ExpireRequest struct {
	Generation int64 `json:"generation"`
}

type ExpireResponse struct {
	Applied bool `json:"applied"`
}

// ExpireTimer reports a countdown that ran out on the timer authority's
// client. Only the authority recorded on the timer is accepted.
func (h *GameHandler) ExpireTimer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req ExpireRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	applied, err := h.game.HandleCountdownExpiry(r.Context(), caller.UserID, chi.URLParam(r, "gameID"), req.Generation)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExpireResponse{Applied: applied})
}

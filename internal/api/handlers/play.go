package handlers

import (
	"context"
	"net/http"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/service"
	"github.com/go-chi/chi/v5"
)

// PlayHandler serves the in-question actions of players and organizers.
// Every route is /games/{gameID}/questions/{questionID}/<action>.
type PlayHandler struct {
	play *service.PlayService
}

func NewPlayHandler(play *service.PlayService) *PlayHandler {
	return &PlayHandler{play: play}
}

// PlayRequest carries the arguments of every action; each action reads the
// fields it needs.
type PlayRequest struct {
	PlayerID  string             `json:"playerId"`
	TeamID    string             `json:"teamId"`
	Key       string             `json:"key"`
	Part      *int               `json:"part"`
	Attribute bool               `json:"attribute"`
	Value     int                `json:"value"`
	Index     int                `json:"index"`
	Option    string             `json:"option"`
	Correct   bool               `json:"correct"`
	Edges     []domain.MatchEdge `json:"edges"`
}

type playFunc func(ctx context.Context, svc *service.PlayService, caller domain.Caller, gameID, questionID string, req PlayRequest) error

func (h *PlayHandler) action(withBody bool, fn playFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFrom(w, r)
		if !ok {
			return
		}
		var req PlayRequest
		if withBody && !decodeJSON(w, r, &req) {
			return
		}
		err := fn(r.Context(), h.play, caller, chi.URLParam(r, "gameID"), chi.URLParam(r, "questionID"), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w)
	}
}

func (h *PlayHandler) Buzz() http.HandlerFunc {
	return h.action(false, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, _ PlayRequest) error {
		return svc.Buzz(ctx, c, g, q)
	})
}

func (h *PlayHandler) Unbuzz() http.HandlerFunc {
	return h.action(false, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, _ PlayRequest) error {
		return svc.Unbuzz(ctx, c, g, q)
	})
}

func (h *PlayHandler) ValidateBuzz() http.HandlerFunc {
	return h.action(true, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, req PlayRequest) error {
		return svc.ValidateBuzz(ctx, c, g, q, req.PlayerID)
	})
}

func (h *PlayHandler) InvalidateBuzz() http.HandlerFunc {
	return h.action(true, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, req PlayRequest) error {
		return svc.InvalidateBuzz(ctx, c, g, q, req.PlayerID)
	})
}

func (h *PlayHandler) AdvanceClue() http.HandlerFunc {
	return h.action(false, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, _ PlayRequest) error {
		return svc.AdvanceClue(ctx, c, g, q)
	})
}

func (h *PlayHandler) RevealElement() http.HandlerFunc {
	return h.action(true, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, req PlayRequest) error {
		return svc.RevealElement(ctx, c, g, q, req.Key, req.Part, req.Attribute)
	})
}

func (h *PlayHandler) ValidateAll() http.HandlerFunc {
	return h.action(true, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, req PlayRequest) error {
		return svc.ValidateAll(ctx, c, g, q, req.PlayerID)
	})
}

func (h *PlayHandler) PlaceBet() http.HandlerFunc {
	return h.action(true, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, req PlayRequest) error {
		return svc.PlaceBet(ctx, c, g, q, req.Value)
	})
}

func (h *PlayHandler) EndBetting() http.HandlerFunc {
	return h.action(false, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, _ PlayRequest) error {
		return svc.EndBetting(ctx, c, g, q)
	})
}

func (h *PlayHandler) CiteItem() http.HandlerFunc {
	return h.action(true, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, req PlayRequest) error {
		return svc.CiteItem(ctx, c, g, q, req.Index)
	})
}

func (h *PlayHandler) EndChallenge() http.HandlerFunc {
	return h.action(false, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, _ PlayRequest) error {
		return svc.EndChallenge(ctx, c, g, q)
	})
}

func (h *PlayHandler) SubmitPath() http.HandlerFunc {
	return h.action(true, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, req PlayRequest) error {
		return svc.SubmitPath(ctx, c, g, q, req.Edges)
	})
}

func (h *PlayHandler) SelectOption() http.HandlerFunc {
	return h.action(true, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, req PlayRequest) error {
		return svc.SelectOption(ctx, c, g, q, req.Option)
	})
}

func (h *PlayHandler) SelectChoice() http.HandlerFunc {
	return h.action(true, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, req PlayRequest) error {
		return svc.SelectChoice(ctx, c, g, q, req.Index)
	})
}

func (h *PlayHandler) JudgeHidden() http.HandlerFunc {
	return h.action(true, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, req PlayRequest) error {
		return svc.JudgeHidden(ctx, c, g, q, req.Correct)
	})
}

func (h *PlayHandler) SelectProposal() http.HandlerFunc {
	return h.action(true, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, req PlayRequest) error {
		return svc.SelectProposal(ctx, c, g, q, req.Index)
	})
}

func (h *PlayHandler) SubmitAnswer() http.HandlerFunc {
	return h.action(true, func(ctx context.Context, svc *service.PlayService, c domain.Caller, g, q string, req PlayRequest) error {
		return svc.SubmitAnswer(ctx, c, g, q, req.TeamID, req.Correct)
	})
}

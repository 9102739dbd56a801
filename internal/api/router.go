package api

import (
	"net/http"

	"github.com/dom/trivia-night/internal/api/handlers"
	"github.com/dom/trivia-night/internal/api/middleware"
	"github.com/dom/trivia-night/internal/config"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/service"
	"github.com/dom/trivia-night/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// NewRouter wires every route. metrics, when non-nil, is served on /metrics.
func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	authHandler := handlers.NewAuthHandler(services.Auth)
	gameHandler := handlers.NewGameHandler(services, cfg.PublicURL)
	setupHandler := handlers.NewSetupHandler(services.Setup)
	playHandler := handlers.NewPlayHandler(services.Play)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth, cfg.AllowedOrigins)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst)
	organizerOnly := middleware.RequireRole(domain.RoleOrganizer)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(limiter)).Post("/register", authHandler.Register)
			r.With(middleware.RateLimit(limiter)).Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/games", func(r chi.Router) {
			// Anonymous entry into a game
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(limiter))
				r.Post("/{gameID}/join", gameHandler.Join)
				r.Post("/{gameID}/spectate", gameHandler.Spectate)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))

				r.Get("/{gameID}/chart.png", gameHandler.GameChart)
				r.Get("/{gameID}/rounds/{roundID}/chart.png", gameHandler.RoundChart)
				r.With(organizerOnly).Get("/{gameID}/join.png", gameHandler.JoinCode)

				// Question actions. The services check who may do what.
				r.Group(func(r chi.Router) {
					r.Use(middleware.RateLimit(limiter))
					r.Route("/{gameID}/questions/{questionID}", func(r chi.Router) {
						r.Post("/buzz", playHandler.Buzz())
						r.Post("/unbuzz", playHandler.Unbuzz())
						r.Post("/buzz/validate", playHandler.ValidateBuzz())
						r.Post("/buzz/invalidate", playHandler.InvalidateBuzz())
						r.Post("/clue/next", playHandler.AdvanceClue())
						r.Post("/reveal", playHandler.RevealElement())
						r.Post("/validate-all", playHandler.ValidateAll())
						r.Post("/bet", playHandler.PlaceBet())
						r.Post("/betting/end", playHandler.EndBetting())
						r.Post("/cite", playHandler.CiteItem())
						r.Post("/challenge/end", playHandler.EndChallenge())
						r.Post("/path", playHandler.SubmitPath())
						r.Post("/option", playHandler.SelectOption())
						r.Post("/choice", playHandler.SelectChoice())
						r.Post("/judge", playHandler.JudgeHidden())
						r.Post("/proposal", playHandler.SelectProposal())
						r.Post("/answer", playHandler.SubmitAnswer())
						r.With(organizerOnly).Post("/end", gameHandler.EndQuestion())
						r.With(organizerOnly).Post("/next", gameHandler.NextQuestion())
					})
				})

				r.Group(func(r chi.Router) {
					r.Use(organizerOnly)
					r.Post("/", gameHandler.Create)
					r.Post("/import", gameHandler.Import)

					// Build phase
					r.Post("/{gameID}/teams", setupHandler.AddTeam)
					r.Post("/{gameID}/rounds", setupHandler.AddRound)
					r.Post("/{gameID}/rounds/{roundID}/questions", setupHandler.AddQuestion)
					r.Post("/{gameID}/rounds/{roundID}/themes", setupHandler.AddTheme)
					r.Post("/{gameID}/rounds/{roundID}/mcq-import", setupHandler.ImportMCQ)

					// Game flow
					r.Post("/{gameID}/launch", gameHandler.Launch())
					r.Post("/{gameID}/home", gameHandler.OpenHome())
					r.Post("/{gameID}/rounds/{roundID}/select", gameHandler.SelectRound())
					r.Post("/{gameID}/round/start", gameHandler.StartRound())
					r.Post("/{gameID}/question/reset", gameHandler.ResetQuestion())
					r.Post("/{gameID}/return-home", gameHandler.ReturnToHome())
					r.Post("/{gameID}/end", gameHandler.EndGame())
					r.Post("/{gameID}/timer/start", gameHandler.StartTimer())
					r.Post("/{gameID}/timer/stop", gameHandler.StopTimer())
					r.Post("/{gameID}/timer/expire", gameHandler.ExpireTimer)
					r.Post("/{gameID}/finale/themes/{themeID}/select", gameHandler.SelectTheme())
					r.Post("/{gameID}/finale/judge", gameHandler.JudgeThemeAnswer)
					r.Post("/{gameID}/finale/home", gameHandler.FinaleHome())
				})
			})
		})

		r.With(middleware.Auth(services.Auth)).Get("/documents", gameHandler.Document)

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}

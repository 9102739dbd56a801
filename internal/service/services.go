package service

import (
	"github.com/dom/trivia-night/internal/config"
	"github.com/dom/trivia-night/internal/repository"
)

type Services struct {
	Auth   *AuthService
	Game   *GameService
	Play   *PlayService
	Setup  *SetupService
	Engine *Engine
}

func NewServices(repos *repository.Repositories, engine *Engine, cfg *config.Config) *Services {
	return &Services{
		Auth:   NewAuthService(repos.User, cfg),
		Game:   NewGameService(engine),
		Play:   NewPlayService(engine),
		Setup:  NewSetupService(engine),
		Engine: engine,
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dom/trivia-night/internal/config"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = domain.ErrInvalidCredentials
	ErrDisplayNameExists  = domain.ErrDisplayNameExists
	ErrUserNotFound       = domain.ErrUserNotFound
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService issues the tokens every command is authenticated with.
// Organizers have accounts; players and spectators get a token scoped to one
// game when they join it.
type AuthService struct {
	userRepo repository.UserRepository
	cfg      *config.Config
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Password    string
	DisplayName string
}

type LoginInput struct {
	DisplayName string
	Password    string
}

type AuthResult struct {
	User        *domain.User
	AccessToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := sanitize(input.DisplayName)
	if name == "" || len(input.Password) < 8 {
		return nil, domain.Precondition("display name and a password of at least 8 characters are required")
	}

	existing, err := s.userRepo.GetByDisplayName(ctx, name)
	if err == nil && existing != nil {
		return nil, ErrDisplayNameExists
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		PasswordHash: string(hashedPassword),
		DisplayName:  name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.organizerResult(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.GetByDisplayName(ctx, strings.TrimSpace(input.DisplayName))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.organizerResult(user)
}

func (s *AuthService) organizerResult(user *domain.User) (*AuthResult, error) {
	token, err := s.sign(domain.Caller{UserID: user.ID.String(), Role: domain.RoleOrganizer}, user.DisplayName)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: token}, nil
}

// PlayerToken issues the token of a player who joined gameID.
func (s *AuthService) PlayerToken(gameID string, p *domain.Player) (string, error) {
	return s.sign(domain.Caller{UserID: p.ID, TeamID: p.TeamID, Role: domain.RolePlayer, GameID: gameID}, p.Name)
}

// SpectatorToken issues a read-only token for gameID.
func (s *AuthService) SpectatorToken(gameID string) (string, error) {
	return s.sign(domain.Caller{UserID: "spectator-" + uuid.NewString(), Role: domain.RoleSpectator, GameID: gameID}, "")
}

func (s *AuthService) sign(c domain.Caller, name string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  c.UserID,
		"role": string(c.Role),
		"exp":  now.Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
		"iat":  now.Unix(),
	}
	if name != "" {
		claims["name"] = name
	}
	if c.TeamID != "" {
		claims["team"] = c.TeamID
	}
	if c.GameID != "" {
		claims["game"] = c.GameID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken checks the signature and expiry of a token and returns who
// it identifies.
func (s *AuthService) ValidateToken(tokenString string) (domain.Caller, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return domain.Caller{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return domain.Caller{}, ErrInvalidToken
	}

	c := domain.Caller{Role: domain.Role(stringClaim(claims, "role"))}
	c.UserID = stringClaim(claims, "sub")
	c.TeamID = stringClaim(claims, "team")
	c.GameID = stringClaim(claims, "game")
	if c.UserID == "" || !c.Role.Valid() {
		return domain.Caller{}, ErrInvalidToken
	}
	if c.Role == domain.RolePlayer && (c.TeamID == "" || c.GameID == "") {
		return domain.Caller{}, ErrInvalidToken
	}
	return c, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *AuthService) GetUserByDisplayName(ctx context.Context, name string) (*domain.User, error) {
	return s.userRepo.GetByDisplayName(ctx, name)
}

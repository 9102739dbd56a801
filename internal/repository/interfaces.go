package repository

import (
	"context"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/google/uuid"
)

// UserRepository stores organizer accounts. Lookups that find nothing
// return domain.ErrUserNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type Repositories struct {
	User UserRepository
}

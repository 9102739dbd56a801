package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an organizer account. Players and spectators join games with a
// name only and never get a row here.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PasswordHash string    `json:"-" gorm:"not null"`
	DisplayName  string    `json:"displayName" gorm:"uniqueIndex;not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Role string

const (
	RoleOrganizer Role = "organizer"
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

func (r Role) Valid() bool {
	return r == RoleOrganizer || r == RolePlayer || r == RoleSpectator
}

// Caller identifies who issues a command. TeamID is empty for organizers and
// spectators.
type Caller struct {
	UserID string
	TeamID string
	Role   Role
	GameID string
}

func (c Caller) IsOrganizer() bool { return c.Role == RoleOrganizer }

func (c Caller) IsPlayer() bool { return c.Role == RolePlayer }

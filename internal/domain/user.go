package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is the explicit identity handed to every operation that needs a user.
// It is created at sign-in and stops being accepted after sign-out.
type Session struct {
	Token     string    `json:"token"`
	TokenID   string    `json:"-"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != uuid.Nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Session pairs a refresh token with its owner and expiry. Presence of a live
// row is the sole proof that a refresh token is still valid.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionWithUser is the admin listing shape, joining the owning user.
type SessionWithUser struct {
	Session
	UserEmail     string `json:"user_email"`
	UserFirstName string `json:"user_first_name"`
	UserLastName  string `json:"user_last_name"`
}

// SessionStats summarizes the session registry.
type SessionStats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LogoutRequest represents a logout request
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RevokeAllRequest represents a request to revoke all sessions for the
// caller. When ExceptCurrent is set, RefreshToken names the session to spare.
type RevokeAllRequest struct {
	ExceptCurrent bool   `json:"except_current"`
	RefreshToken  string `json:"refresh_token,omitempty"`
}

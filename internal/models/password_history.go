package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordHistoryDepth is how many prior hashes are consulted when blocking
// password reuse.
const PasswordHistoryDepth = 5

// PasswordHistory retains a superseded password hash for reuse prevention.
type PasswordHistory struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

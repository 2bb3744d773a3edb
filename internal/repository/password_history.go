package repository

import (
	"context"
	"docvault/internal/models"

	"github.com/google/uuid"
)

// PasswordHistoryRepository defines the interface for password history operations
type PasswordHistoryRepository interface {
	Repository
	Add(ctx context.Context, userID uuid.UUID, passwordHash string) error
	// CheckReuse returns ErrPasswordReuse when newPassword matches any of
	// the user's most recent retained hashes.
	CheckReuse(ctx context.Context, userID uuid.UUID, newPassword string) error
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.PasswordHistory, error)
}

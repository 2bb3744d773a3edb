package repository

import (
	"context"
	"time"
	"docvault/internal/models"

	"github.com/google/uuid"
)

// SessionRepository defines the interface for refresh-token session operations
type SessionRepository interface {
	Repository
	Create(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*models.Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	ListAll(ctx context.Context) ([]models.SessionWithUser, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByToken(ctx context.Context, token string) error
	// DeleteAllForUser removes every session of the user, sparing the one
	// matching exceptToken when non-nil. Returns the number deleted.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID, exceptToken *string) (int, error)
	// DeleteExpired removes all sessions past their expiry. Returns the
	// number deleted.
	DeleteExpired(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*models.SessionStats, error)
}

package repository

import (
	"context"
	"time"
	"docvault/internal/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Repository
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error
	UpdateStatus(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Login bookkeeping. IncrementFailedAttempts is a single atomic
	// UPDATE returning the new counter value.
	IncrementFailedAttempts(ctx context.Context, id uuid.UUID) (int, error)
	LockAccount(ctx context.Context, id uuid.UUID, until time.Time) error
	ResetFailedAttempts(ctx context.Context, id uuid.UUID) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, ip string) error

	// Password lifecycle
	UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	CompletePasswordReset(ctx context.Context, id uuid.UUID, hashedPassword string) error

	// Email verification
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

// UserFilter defines the filter options for listing users
type UserFilter struct {
	Search    *string      // Case-insensitive search over email and names
	Role      *models.Role // Filter by role
	IsActive  *bool        // Filter by active flag
	OrderBy   string       // Field to order by
	OrderDesc bool         // Order descending
	Limit     *int         // Limit results
	Offset    *int         // Offset results
}

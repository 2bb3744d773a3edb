package repository

import (
	"context"
	"time"
	"docvault/internal/models"

	"github.com/google/uuid"
)

// LoginHistoryRepository defines the interface for the append-only record of
// authentication attempts.
type LoginHistoryRepository interface {
	Repository
	Create(ctx context.Context, entry *models.LoginHistory) error
	// List returns a page of entries newest-first along with the total
	// matching count.
	List(ctx context.Context, filter LoginHistoryFilter) ([]models.LoginHistoryWithUser, int, error)
	Stats(ctx context.Context, userID *uuid.UUID) (*models.LoginStats, error)
	// DeleteOlderThan removes entries created before the cutoff. Returns
	// the number deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// LoginHistoryFilter defines the filter options for listing login history
type LoginHistoryFilter struct {
	UserID    *uuid.UUID // Filter by user ID
	Success   *bool      // Filter by outcome
	StartDate *time.Time // Filter by creation time
	EndDate   *time.Time // Filter by creation time
	Page      int        // 1-based page number
	Limit     int        // Page size
}

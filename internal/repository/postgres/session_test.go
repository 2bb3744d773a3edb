package postgres_test

import (
	"context"
	"testing"
	"time"

	"docvault/internal/repository"
	"docvault/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_CreateAndGet(t *testing.T) {
	db := setupDB(t)
	userRepo := postgres.NewUserRepository(db)
	repo := postgres.NewSessionRepository(db)
	ctx := context.Background()
	user := createUser(t, userRepo, "sessions@example.com")

	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	session, err := repo.Create(ctx, user.ID, "refresh-token-1", expiresAt)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, session.ID)

	byID, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, byID.UserID)

	byToken, err := repo.GetByToken(ctx, "refresh-token-1")
	require.NoError(t, err)
	require.Equal(t, session.ID, byToken.ID)
	require.WithinDuration(t, expiresAt, byToken.ExpiresAt, 2*time.Second)

	_, err = repo.GetByToken(ctx, "unknown")
	require.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestSessionRepository_ListByUser_SkipsExpired(t *testing.T) {
	db := setupDB(t)
	userRepo := postgres.NewUserRepository(db)
	repo := postgres.NewSessionRepository(db)
	ctx := context.Background()
	user := createUser(t, userRepo, "list@example.com")

	_, err := repo.Create(ctx, user.ID, "live", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = repo.Create(ctx, user.ID, "dead", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	sessions, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "live", sessions[0].Token)
}

func TestSessionRepository_DeleteAllForUser(t *testing.T) {
	db := setupDB(t)
	userRepo := postgres.NewUserRepository(db)
	repo := postgres.NewSessionRepository(db)
	ctx := context.Background()
	user := createUser(t, userRepo, "revoke@example.com")
	other := createUser(t, userRepo, "untouched@example.com")

	for _, token := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, user.ID, token, time.Now().Add(time.Hour))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, other.ID, "theirs", time.Now().Add(time.Hour))
	require.NoError(t, err)

	keep := "b"
	count, err := repo.DeleteAllForUser(ctx, user.ID, &keep)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	sessions, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "b", sessions[0].Token)

	// Another user's sessions are never touched
	sessions, err = repo.ListByUser(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	count, err = repo.DeleteAllForUser(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestSessionRepository_DeleteExpiredAndStats(t *testing.T) {
	db := setupDB(t)
	userRepo := postgres.NewUserRepository(db)
	repo := postgres.NewSessionRepository(db)
	ctx := context.Background()
	user := createUser(t, userRepo, "expiry@example.com")

	_, err := repo.Create(ctx, user.ID, "live", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = repo.Create(ctx, user.ID, "dead-1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = repo.Create(ctx, user.ID, "dead-2", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 1, stats.Active)
	require.Equal(t, 2, stats.Expired)

	count, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Total)
	require.Equal(t, 0, stats.Expired)
}

func TestSessionRepository_DeleteByToken(t *testing.T) {
	db := setupDB(t)
	userRepo := postgres.NewUserRepository(db)
	repo := postgres.NewSessionRepository(db)
	ctx := context.Background()
	user := createUser(t, userRepo, "logout@example.com")

	_, err := repo.Create(ctx, user.ID, "token", time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByToken(ctx, "token"))
	require.ErrorIs(t, repo.DeleteByToken(ctx, "token"), repository.ErrSessionNotFound)
}

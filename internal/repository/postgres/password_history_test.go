package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"docvault/internal/models"
	"docvault/internal/repository"
	"docvault/internal/repository/postgres"

	"github.com/stretchr/testify/require"
)

func TestPasswordHistoryRepository_CheckReuse(t *testing.T) {
	db := setupDB(t)
	userRepo := postgres.NewUserRepository(db)
	repo := postgres.NewPasswordHistoryRepository(db)
	ctx := context.Background()
	user := createUser(t, userRepo, "history@example.com")

	require.NoError(t, repo.Add(ctx, user.ID, hashPassword(t, "Old$ecret1")))
	require.NoError(t, repo.Add(ctx, user.ID, hashPassword(t, "Old$ecret2")))

	require.ErrorIs(t, repo.CheckReuse(ctx, user.ID, "Old$ecret1"), repository.ErrPasswordReuse)
	require.ErrorIs(t, repo.CheckReuse(ctx, user.ID, "Old$ecret2"), repository.ErrPasswordReuse)
	require.NoError(t, repo.CheckReuse(ctx, user.ID, "Fresh$ecret3"))
}

func TestPasswordHistoryRepository_CheckReuse_OnlyRecentCount(t *testing.T) {
	db := setupDB(t)
	userRepo := postgres.NewUserRepository(db)
	repo := postgres.NewPasswordHistoryRepository(db)
	ctx := context.Background()
	user := createUser(t, userRepo, "aged@example.com")

	// Push the first password beyond the retained window
	require.NoError(t, repo.Add(ctx, user.ID, hashPassword(t, "Anc1ent$")))
	for i := 0; i < models.PasswordHistoryDepth; i++ {
		hash := hashPassword(t, fmt.Sprintf("R3cent$%d", i))
		require.NoError(t, repo.Add(ctx, user.ID, hash))
		// Distinct created_at ordering for the recency window
		_, err := db.Exec(`
			UPDATE password_history
			SET created_at = created_at + ($1 || ' seconds')::interval
			WHERE user_id = $2 AND password_hash = $3`,
			i+1, user.ID, hash)
		require.NoError(t, err)
	}

	require.NoError(t, repo.CheckReuse(ctx, user.ID, "Anc1ent$"))
	require.ErrorIs(t, repo.CheckReuse(ctx, user.ID, "R3cent$0"), repository.ErrPasswordReuse)
	require.ErrorIs(t, repo.CheckReuse(ctx, user.ID,
		fmt.Sprintf("R3cent$%d", models.PasswordHistoryDepth-1)), repository.ErrPasswordReuse)
}

func TestPasswordHistoryRepository_GetByUserID(t *testing.T) {
	db := setupDB(t)
	userRepo := postgres.NewUserRepository(db)
	repo := postgres.NewPasswordHistoryRepository(db)
	ctx := context.Background()
	user := createUser(t, userRepo, "mine@example.com")
	other := createUser(t, userRepo, "theirs@example.com")

	require.NoError(t, repo.Add(ctx, user.ID, hashPassword(t, "Mine$ecret1")))
	require.NoError(t, repo.Add(ctx, other.ID, hashPassword(t, "Their$ecret1")))

	history, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, user.ID, history[0].UserID)

	// Reuse checks are scoped per user
	require.NoError(t, repo.CheckReuse(ctx, user.ID, "Their$ecret1"))
}

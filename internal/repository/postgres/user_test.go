package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"docvault/internal/models"
	"docvault/internal/repository"
	"docvault/internal/repository/postgres"
	"docvault/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	repo := postgres.NewUserRepository(setupDB(t))
	ctx := context.Background()

	user := createUser(t, repo, "create@example.com")
	require.NotEqual(t, uuid.Nil, user.ID)
	require.False(t, user.CreatedAt.IsZero())

	fetched, err := repo.GetByEmail(ctx, "create@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, fetched.ID)
	require.Equal(t, models.RoleUser, fetched.Role)
	require.Equal(t, 0, fetched.FailedLoginAttempts)
	require.Nil(t, fetched.LockedUntil)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo := postgres.NewUserRepository(setupDB(t))
	ctx := context.Background()

	createUser(t, repo, "dup@example.com")

	err := repo.Create(ctx, &models.User{
		Email:     "dup@example.com",
		Password:  "hash",
		FirstName: "Other",
		LastName:  "User",
		Role:      models.RoleUser,
		IsActive:  true,
	})
	require.ErrorIs(t, err, repository.ErrEmailExists)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo := postgres.NewUserRepository(setupDB(t))

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_IncrementFailedAttempts(t *testing.T) {
	repo := postgres.NewUserRepository(setupDB(t))
	ctx := context.Background()
	user := createUser(t, repo, "counter@example.com")

	for want := 1; want <= 3; want++ {
		got, err := repo.IncrementFailedAttempts(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := repo.IncrementFailedAttempts(ctx, uuid.New())
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_IncrementFailedAttempts_Concurrent(t *testing.T) {
	repo := postgres.NewUserRepository(setupDB(t))
	ctx := context.Background()
	user := createUser(t, repo, "race@example.com")

	// Concurrent increments must never lose an update
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementFailedAttempts(ctx, user.ID)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	fetched, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 10, fetched.FailedLoginAttempts)
}

func TestUserRepository_LockAndReset(t *testing.T) {
	repo := postgres.NewUserRepository(setupDB(t))
	ctx := context.Background()
	user := createUser(t, repo, "lock@example.com")

	_, err := repo.IncrementFailedAttempts(ctx, user.ID)
	require.NoError(t, err)

	until := time.Now().Add(30 * time.Minute)
	require.NoError(t, repo.LockAccount(ctx, user.ID, until))

	fetched, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.LockedUntil)
	require.True(t, fetched.IsLocked(time.Now()))

	require.NoError(t, repo.ResetFailedAttempts(ctx, user.ID))

	fetched, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 0, fetched.FailedLoginAttempts)
	require.Nil(t, fetched.LockedUntil)
}

func TestUserRepository_RecordLogin(t *testing.T) {
	repo := postgres.NewUserRepository(setupDB(t))
	ctx := context.Background()
	user := createUser(t, repo, "lastlogin@example.com")

	at := time.Now()
	require.NoError(t, repo.RecordLogin(ctx, user.ID, at, "203.0.113.7"))

	fetched, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.LastLoginAt)
	require.WithinDuration(t, at, *fetched.LastLoginAt, 2*time.Second)
	require.NotNil(t, fetched.LastLoginIP)
	require.Equal(t, "203.0.113.7", *fetched.LastLoginIP)
}

func TestUserRepository_ResetTokenLifecycle(t *testing.T) {
	repo := postgres.NewUserRepository(setupDB(t))
	ctx := context.Background()
	user := createUser(t, repo, "reset@example.com")

	require.NoError(t, repo.SetResetToken(ctx, user.ID, "valid-token", time.Now().Add(time.Hour)))

	fetched, err := repo.GetByResetToken(ctx, "valid-token")
	require.NoError(t, err)
	require.Equal(t, user.ID, fetched.ID)

	_, err = repo.GetByResetToken(ctx, "unknown-token")
	require.ErrorIs(t, err, repository.ErrTokenInvalid)

	// An expired token is indistinguishable from an unknown one
	require.NoError(t, repo.SetResetToken(ctx, user.ID, "stale-token", time.Now().Add(-time.Minute)))
	_, err = repo.GetByResetToken(ctx, "stale-token")
	require.ErrorIs(t, err, repository.ErrTokenInvalid)
}

func TestUserRepository_CompletePasswordReset(t *testing.T) {
	db := setupDB(t)
	repo := postgres.NewUserRepository(db)
	historyRepo := postgres.NewPasswordHistoryRepository(db)
	ctx := context.Background()
	user := createUser(t, repo, "complete@example.com")
	oldHash := user.Password

	require.NoError(t, repo.SetResetToken(ctx, user.ID, "reset-me", time.Now().Add(time.Hour)))
	_, err := repo.IncrementFailedAttempts(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, repo.LockAccount(ctx, user.ID, time.Now().Add(30*time.Minute)))

	newHash := hashPassword(t, "N3w$ecret!")
	require.NoError(t, repo.CompletePasswordReset(ctx, user.ID, newHash))

	fetched, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, newHash, fetched.Password)
	require.Nil(t, fetched.PasswordResetToken)
	require.Nil(t, fetched.PasswordResetExpiry)
	require.Equal(t, 0, fetched.FailedLoginAttempts)
	require.Nil(t, fetched.LockedUntil)

	// The replaced hash was archived
	history, err := historyRepo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, oldHash, history[0].PasswordHash)

	require.ErrorIs(t, repo.CompletePasswordReset(ctx, uuid.New(), newHash), repository.ErrUserNotFound)
}

func TestUserRepository_VerificationTokenLifecycle(t *testing.T) {
	repo := postgres.NewUserRepository(setupDB(t))
	ctx := context.Background()
	user := createUser(t, repo, "verify@example.com")
	require.False(t, user.IsEmailVerified)

	require.NoError(t, repo.SetVerificationToken(ctx, user.ID, "verify-token", time.Now().Add(24*time.Hour)))

	fetched, err := repo.GetByVerificationToken(ctx, "verify-token")
	require.NoError(t, err)
	require.Equal(t, user.ID, fetched.ID)

	require.NoError(t, repo.MarkEmailVerified(ctx, user.ID))

	fetched, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, fetched.IsEmailVerified)
	require.Nil(t, fetched.EmailVerificationToken)

	// Token is single-use
	_, err = repo.GetByVerificationToken(ctx, "verify-token")
	require.ErrorIs(t, err, repository.ErrTokenInvalid)
}

func TestUserRepository_List(t *testing.T) {
	repo := postgres.NewUserRepository(setupDB(t))
	ctx := context.Background()

	alice := createUser(t, repo, "alice@example.com")
	createUser(t, repo, "bob@example.com")
	require.NoError(t, repo.UpdateRole(ctx, alice.ID, models.RoleManager))
	require.NoError(t, repo.UpdateStatus(ctx, alice.ID, false))

	users, err := repo.List(ctx, repository.UserFilter{})
	require.NoError(t, err)
	require.Len(t, users, 2)
	// Default ordering is by email
	require.Equal(t, "alice@example.com", users[0].Email)

	users, err = repo.List(ctx, repository.UserFilter{Search: testutil.String("ALICE")})
	require.NoError(t, err)
	require.Len(t, users, 1)

	role := models.RoleManager
	users, err = repo.List(ctx, repository.UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, alice.ID, users[0].ID)

	users, err = repo.List(ctx, repository.UserFilter{IsActive: testutil.Bool(true)})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "bob@example.com", users[0].Email)

	users, err = repo.List(ctx, repository.UserFilter{Limit: testutil.Int(1), Offset: testutil.Int(1)})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "bob@example.com", users[0].Email)
}

func TestRepository_TransactionRollsBackOnError(t *testing.T) {
	db := setupDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()
	user := createUser(t, repo, "tx@example.com")

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO password_history (id, user_id, password_hash)
			VALUES ($1, $2, $3)`,
			uuid.New(), user.ID, "some-hash")
		require.NoError(t, execErr)
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The insert was rolled back with the failed transaction
	var count int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM password_history WHERE user_id = $1", user.ID).Scan(&count))
	require.Equal(t, 0, count)
}

func TestUserRepository_Delete(t *testing.T) {
	repo := postgres.NewUserRepository(setupDB(t))
	ctx := context.Background()
	user := createUser(t, repo, "gone@example.com")

	require.NoError(t, repo.Delete(ctx, user.ID))
	_, err := repo.GetByID(ctx, user.ID)
	require.ErrorIs(t, err, repository.ErrUserNotFound)

	require.ErrorIs(t, repo.Delete(ctx, user.ID), repository.ErrUserNotFound)
}

package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"docvault/internal/models"
	"docvault/internal/repository"
	testdb "docvault/internal/testutil/db"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := testdb.LoadTestConfig(t)
	db := testdb.SetupTestDB(t, &cfg.Database)
	t.Cleanup(func() {
		_ = testdb.CleanupTestDB(db)
		db.Close()
	})
	return db
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func createUser(t *testing.T, repo repository.UserRepository, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     email,
		Password:  hashPassword(t, "Sup3r$ecret"),
		FirstName: "Test",
		LastName:  "User",
		Role:      models.RoleUser,
		IsActive:  true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

package db

import (
	"path/filepath"
	"runtime"
	"testing"

	"docvault/internal/config"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

// LoadTestConfig loads configuration from the repository's .env.test file
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	projectRoot := filepath.Join(filepath.Dir(filename), "..", "..", "..")
	projectRoot, err := filepath.Abs(projectRoot)
	require.NoError(t, err, "Failed to get absolute project root path")

	err = godotenv.Load(filepath.Join(projectRoot, ".env.test"))
	require.NoError(t, err, "Failed to load .env.test file")

	cfg := &config.Config{}
	err = cfg.LoadFromEnv()
	require.NoError(t, err, "Failed to load config")

	// Only override migrations path to ensure it's absolute
	cfg.Database.MigrationsPath = filepath.Join(projectRoot, "migrations")

	return cfg
}

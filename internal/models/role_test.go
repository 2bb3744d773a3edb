package models_test

import (
	"testing"
	"time"

	"docvault/internal/models"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"SUPER_ADMIN", "ADMIN", "MANAGER", "USER"} {
		role, err := models.ParseRole(valid)
		require.NoError(t, err)
		require.Equal(t, models.Role(valid), role)
		require.True(t, role.Valid())
	}

	for _, invalid := range []string{"", "admin", "Admin", "ROOT", "SUPERADMIN"} {
		_, err := models.ParseRole(invalid)
		require.Error(t, err, invalid)
		require.False(t, models.Role(invalid).Valid())
	}
}

func TestRole_AtLeast(t *testing.T) {
	order := []models.Role{models.RoleUser, models.RoleManager, models.RoleAdmin, models.RoleSuperAdmin}

	for i, lower := range order {
		for j, higher := range order {
			got := higher.AtLeast(lower)
			require.Equal(t, j >= i, got, "%s.AtLeast(%s)", higher, lower)
		}
	}

	// Unknown roles rank below everything
	require.False(t, models.Role("GHOST").AtLeast(models.RoleUser))
	require.True(t, models.RoleUser.AtLeast(models.Role("GHOST")))
}

func TestRole_In(t *testing.T) {
	require.True(t, models.RoleAdmin.In(models.AdminOrAbove))
	require.True(t, models.RoleSuperAdmin.In(models.AdminOrAbove))
	require.False(t, models.RoleManager.In(models.AdminOrAbove))

	require.True(t, models.RoleManager.In(models.ManagerOrAbove))
	require.False(t, models.RoleUser.In(models.ManagerOrAbove))

	require.False(t, models.RoleAdmin.In(models.SuperAdminOnly))
}

func TestUser_IsLocked(t *testing.T) {
	now := time.Now()

	user := &models.User{}
	require.False(t, user.IsLocked(now))

	future := now.Add(time.Minute)
	user.LockedUntil = &future
	require.True(t, user.IsLocked(now))

	past := now.Add(-time.Minute)
	user.LockedUntil = &past
	require.False(t, user.IsLocked(now))
}

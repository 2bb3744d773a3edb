package auth_test

import (
	"testing"
	"time"

	"docvault/internal/auth"
	"docvault/internal/models"

	"github.com/stretchr/testify/require"
)

func TestLockout_PreCheck(t *testing.T) {
	lockout := auth.NewLockout(5, 30*time.Minute)
	now := time.Now()

	t.Run("Active Unlocked User Is Allowed", func(t *testing.T) {
		user := &models.User{IsActive: true}
		decision := lockout.PreCheck(user, now)
		require.True(t, decision.Allow)
	})

	t.Run("Deactivated User Is Denied", func(t *testing.T) {
		user := &models.User{IsActive: false}
		decision := lockout.PreCheck(user, now)
		require.False(t, decision.Allow)
		require.Equal(t, models.FailReasonAccountDeactivated, decision.Reason)
		require.Equal(t, "Account is deactivated. Please contact administrator.", decision.Message)
	})

	t.Run("Locked User Is Denied With Remaining Minutes", func(t *testing.T) {
		until := now.Add(30 * time.Minute)
		user := &models.User{IsActive: true, LockedUntil: &until}
		decision := lockout.PreCheck(user, now)
		require.False(t, decision.Allow)
		require.Equal(t, models.FailReasonAccountLocked, decision.Reason)
		require.Equal(t, "Account locked due to multiple failed login attempts. Try again in 30 minutes.", decision.Message)
	})

	t.Run("Remaining Minutes Round Up", func(t *testing.T) {
		until := now.Add(90 * time.Second)
		user := &models.User{IsActive: true, LockedUntil: &until}
		decision := lockout.PreCheck(user, now)
		require.False(t, decision.Allow)
		require.Contains(t, decision.Message, "Try again in 2 minutes.")
	})

	t.Run("Elapsed Lock Is Allowed", func(t *testing.T) {
		until := now.Add(-time.Minute)
		user := &models.User{IsActive: true, LockedUntil: &until, FailedLoginAttempts: 5}
		decision := lockout.PreCheck(user, now)
		require.True(t, decision.Allow)
	})

	t.Run("Deactivation Wins Over Lock", func(t *testing.T) {
		until := now.Add(30 * time.Minute)
		user := &models.User{IsActive: false, LockedUntil: &until}
		decision := lockout.PreCheck(user, now)
		require.Equal(t, models.FailReasonAccountDeactivated, decision.Reason)
	})
}

func TestLockout_OnPasswordMismatch(t *testing.T) {
	lockout := auth.NewLockout(5, 30*time.Minute)
	now := time.Now()

	tests := []struct {
		name        string
		attempts    int
		wantMessage string
		wantLocked  bool
	}{
		{
			name:        "First Failure",
			attempts:    1,
			wantMessage: "Invalid email or password. 4 attempts remaining before account lock.",
		},
		{
			name:        "Fourth Failure",
			attempts:    4,
			wantMessage: "Invalid email or password. 1 attempts remaining before account lock.",
		},
		{
			name:        "Fifth Failure Locks",
			attempts:    5,
			wantMessage: "Account locked due to multiple failed login attempts. Try again in 30 minutes.",
			wantLocked:  true,
		},
		{
			name:        "Beyond Threshold Stays Locked",
			attempts:    6,
			wantMessage: "Account locked due to multiple failed login attempts. Try again in 30 minutes.",
			wantLocked:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := lockout.OnPasswordMismatch(tt.attempts, now)
			require.False(t, decision.Allow)
			require.Equal(t, models.FailReasonInvalidPassword, decision.Reason)
			require.Equal(t, tt.wantMessage, decision.Message)

			if tt.wantLocked {
				require.NotNil(t, decision.LockUntil)
				require.WithinDuration(t, now.Add(30*time.Minute), *decision.LockUntil, time.Second)
			} else {
				require.Nil(t, decision.LockUntil)
			}
		})
	}
}

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"docvault/internal/ratelimit"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "login:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, res.Allowed)
		require.Equal(t, 3, res.Limit)
		require.Equal(t, 2-i, res.Remaining)
	}

	res, err := limiter.Allow(ctx, "login:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 0, res.Remaining)
	require.WithinDuration(t, time.Now().Add(time.Minute), res.ResetAt, 2*time.Second)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "login:1.2.3.4", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "login:1.2.3.4", 1, time.Minute)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	res, err = limiter.Allow(ctx, "login:5.6.7.8", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestMemoryLimiter_WindowResets(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "reset:key", 1, 20*time.Millisecond)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "reset:key", 1, 20*time.Millisecond)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	time.Sleep(30 * time.Millisecond)

	res, err = limiter.Allow(ctx, "reset:key", 1, 20*time.Millisecond)
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, 0, res.Remaining)
}

func TestMemoryLimiter_Prune(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "short", 5, 10*time.Millisecond)
	require.NoError(t, err)
	_, err = limiter.Allow(ctx, "long", 5, time.Hour)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	limiter.Prune()

	// The pruned window starts over, the live one keeps counting
	res, err := limiter.Allow(ctx, "short", 5, 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 4, res.Remaining)

	res, err = limiter.Allow(ctx, "long", 5, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 3, res.Remaining)
}

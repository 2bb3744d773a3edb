// Package ratelimit provides fixed-window request counters for the
// per-endpoint limits on sensitive auth routes.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the state of a counter after one attempt was charged.
type Result struct {
	// Allowed is false once the window's budget is exhausted
	Allowed bool
	// Limit is the window's budget
	Limit int
	// Remaining is the budget left in the current window
	Remaining int
	// ResetAt is when the current window ends
	ResetAt time.Time
}

// Limiter is a pluggable fixed-window counter keyed by string. The in-process
// implementation serves single-instance deployments; the Redis implementation
// shares counters across instances.
type Limiter interface {
	// Allow charges one attempt against the key's window and reports
	// whether it fit within the budget.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

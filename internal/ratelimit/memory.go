package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryWindow struct {
	count   int
	resetAt time.Time
}

// pruneInterval is how often elapsed windows are dropped from the map
const pruneInterval = time.Hour

// MemoryLimiter is an in-process fixed-window counter. Counters are not
// shared across server instances; multi-instance deployments need the Redis
// limiter instead.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

// NewMemoryLimiter creates a new in-process limiter
func NewMemoryLimiter() *MemoryLimiter {
	limiter := &MemoryLimiter{
		windows: make(map[string]*memoryWindow),
	}

	go limiter.pruneRoutine()

	return limiter
}

// pruneRoutine periodically drops elapsed windows to bound memory
func (l *MemoryLimiter) pruneRoutine() {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for range ticker.C {
		l.Prune()
	}
}

// Allow implements the Limiter interface
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &memoryWindow{resetAt: now.Add(window)}
		l.windows[key] = w
	}

	w.count++

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   w.count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   w.resetAt,
	}, nil
}

// Prune drops windows that have already reset
func (l *MemoryLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

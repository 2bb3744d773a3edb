package auth

import (
	"fmt"
	"math"
	"time"
	"docvault/internal/models"
)

// Lockout evaluates progressive account lockout for the login path. It is a
// pure decision type: callers load the user row, ask for a decision, and
// persist whatever the decision dictates.
type Lockout struct {
	// MaxAttempts is the consecutive-failure threshold that locks the account
	MaxAttempts int
	// Duration is how long a lock lasts
	Duration time.Duration
}

// NewLockout creates a lockout engine with the given threshold and duration
func NewLockout(maxAttempts int, duration time.Duration) *Lockout {
	return &Lockout{MaxAttempts: maxAttempts, Duration: duration}
}

// Decision is the outcome of a lockout evaluation.
type Decision struct {
	// Allow is true when the login attempt may proceed
	Allow bool
	// Reason is the exact string recorded in login history on denial
	Reason string
	// Message is the user-facing error text on denial
	Message string
	// LockUntil is set when this failure transitions the account to locked
	LockUntil *time.Time
}

// PreCheck gates a login attempt before any password verification. A locked
// or deactivated account is rejected without re-checking the password, which
// avoids repeated hashing cost while locked.
func (l *Lockout) PreCheck(user *models.User, now time.Time) *Decision {
	if !user.IsActive {
		return &Decision{
			Reason:  models.FailReasonAccountDeactivated,
			Message: "Account is deactivated. Please contact administrator.",
		}
	}

	if user.IsLocked(now) {
		minutes := remainingMinutes(*user.LockedUntil, now)
		return &Decision{
			Reason:  models.FailReasonAccountLocked,
			Message: fmt.Sprintf("Account locked due to multiple failed login attempts. Try again in %d minutes.", minutes),
		}
	}

	// An elapsed lock needs no explicit clearing here; the counter and
	// lock timestamp are reset on the next successful login.
	return &Decision{Allow: true}
}

// OnPasswordMismatch produces the decision for a failed password check.
// attempts is the counter value after the increment. Reaching the threshold
// sets LockUntil; the caller persists it and notifies the user. The
// remaining-attempts disclosure is a deliberate usability trade-off.
func (l *Lockout) OnPasswordMismatch(attempts int, now time.Time) *Decision {
	if attempts >= l.MaxAttempts {
		until := now.Add(l.Duration)
		return &Decision{
			Reason: models.FailReasonInvalidPassword,
			Message: fmt.Sprintf("Account locked due to multiple failed login attempts. Try again in %d minutes.",
				int(l.Duration.Minutes())),
			LockUntil: &until,
		}
	}

	remaining := l.MaxAttempts - attempts
	return &Decision{
		Reason:  models.FailReasonInvalidPassword,
		Message: fmt.Sprintf("Invalid email or password. %d attempts remaining before account lock.", remaining),
	}
}

func remainingMinutes(until, now time.Time) int {
	return int(math.Ceil(until.Sub(now).Minutes()))
}

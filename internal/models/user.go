package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the portal
type User struct {
	ID                      uuid.UUID  `json:"id"`
	Email                   string     `json:"email"`
	Password                string     `json:"-"`
	FirstName               string     `json:"first_name"`
	LastName                string     `json:"last_name"`
	Role                    Role       `json:"role"`
	IsActive                bool       `json:"is_active"`
	IsEmailVerified         bool       `json:"is_email_verified"`
	FailedLoginAttempts     int        `json:"-"`
	LockedUntil             *time.Time `json:"-"`
	LastLoginAt             *time.Time `json:"last_login_at"`
	LastLoginIP             *string    `json:"last_login_ip,omitempty"`
	PasswordResetToken      *string    `json:"-"`
	PasswordResetExpiry     *time.Time `json:"-"`
	EmailVerificationToken  *string    `json:"-"`
	EmailVerificationExpiry *time.Time `json:"-"`
	MustChangePassword      bool       `json:"must_change_password"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// IsLocked reports whether the account is currently under a login lockout.
// A lock whose deadline has passed is treated as already lifted.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// RegisterRequest represents the request to register a new account
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Role      *Role  `json:"role,omitempty" binding:"omitempty,role"`
}

// UpdateRoleRequest represents the request to change a user's role
type UpdateRoleRequest struct {
	Role Role `json:"role" binding:"required,role"`
}

// UpdateStatusRequest represents the request to activate or deactivate a user
type UpdateStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ChangePasswordRequest represents the request to change a password while logged in
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// ForgotPasswordRequest represents the request to start a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest represents the request to complete a password reset
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// VerifyEmailRequest represents the request to redeem a verification token
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

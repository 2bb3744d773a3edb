package models

import (
	"time"

	"github.com/google/uuid"
)

// Failure reasons recorded in login history. These exact strings feed the
// audit and statistics surface.
const (
	FailReasonAccountLocked      = "Account locked"
	FailReasonAccountDeactivated = "Account deactivated"
	FailReasonInvalidPassword    = "Invalid password"
)

// LoginHistory is an append-only record of one authentication attempt.
type LoginHistory struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	IPAddress  *string   `json:"ip_address"`
	UserAgent  *string   `json:"user_agent"`
	Success    bool      `json:"success"`
	FailReason *string   `json:"fail_reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LoginHistoryWithUser is the admin listing shape, joining the owning user.
type LoginHistoryWithUser struct {
	LoginHistory
	UserEmail     string `json:"user_email"`
	UserFirstName string `json:"user_first_name"`
	UserLastName  string `json:"user_last_name"`
}

// LoginHistoryPage is the pagination envelope for history queries.
type LoginHistoryPage struct {
	History    []LoginHistoryWithUser `json:"history"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// LoginStats aggregates attempt counts for a user or the whole system.
type LoginStats struct {
	Total        int    `json:"total"`
	Successful   int    `json:"successful"`
	Failed       int    `json:"failed"`
	SuccessRate  string `json:"success_rate"`
	RecentLogins int    `json:"recent_logins"`
}

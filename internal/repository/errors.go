package repository

import "errors"

var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")

	// Token errors
	ErrTokenInvalid = errors.New("token invalid")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Password errors
	ErrPasswordReuse = errors.New("password was recently used")
)

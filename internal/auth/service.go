// Package auth implements credential verification, token issuance and the
// account lockout rules.
package auth

import (
	"context"
	"errors"
	"time"
	"docvault/internal/config"
	"docvault/internal/models"
	"docvault/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidToken indicates the token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates the token has expired
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the decoded access token payload attached to requests.
type Claims struct {
	UserID uuid.UUID
	Email  string
	Role   models.Role
}

// Service provides token issuance and password hashing
type Service struct {
	config      *config.Config
	sessionRepo repository.SessionRepository
}

// NewService creates a new authentication service
func NewService(cfg *config.Config, sessionRepo repository.SessionRepository) *Service {
	return &Service{
		config:      cfg,
		sessionRepo: sessionRepo,
	}
}

// GenerateToken signs a JWT for the user. Refresh tokens get the longer
// lifetime; both carry the same identity payload.
func (s *Service) GenerateToken(user *models.User, isRefresh bool) (string, error) {
	expiration := s.config.Auth.AccessTokenDuration
	if isRefresh {
		expiration = s.config.Auth.RefreshTokenDuration
	}

	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    string(user.Role),
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(expiration).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Auth.JWTSecret))
}

// IssuePair signs an access and a refresh token and registers a session row
// for the refresh token. The session row is what makes the refresh token
// revocable; the access token carries no server-side state.
func (s *Service) IssuePair(ctx context.Context, user *models.User) (accessToken, refreshToken string, err error) {
	accessToken, err = s.GenerateToken(user, false)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = s.GenerateToken(user, true)
	if err != nil {
		return "", "", err
	}

	expiresAt := time.Now().Add(s.config.Auth.RefreshTokenDuration)
	if _, err := s.sessionRepo.Create(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// ValidateRefreshToken checks a refresh token against the session registry
// and returns the owning user ID. An expired session row is deleted so later
// attempts fail on the not-found path.
func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (uuid.UUID, error) {
	session, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return uuid.Nil, ErrInvalidToken
		}
		return uuid.Nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessionRepo.DeleteByToken(ctx, token)
		return uuid.Nil, ErrTokenExpired
	}

	return session.UserID, nil
}

// RevokeRefreshToken removes the session row backing a refresh token
func (s *Service) RevokeRefreshToken(ctx context.Context, token string) error {
	return s.sessionRepo.DeleteByToken(ctx, token)
}

// RevokeAll removes every session of the user, sparing exceptToken when
// non-nil. Returns the number revoked.
func (s *Service) RevokeAll(ctx context.Context, userID uuid.UUID, exceptToken *string) (int, error) {
	return s.sessionRepo.DeleteAllForUser(ctx, userID, exceptToken)
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// ComparePasswords compares a hashed password with a plain text password
func (s *Service) ComparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidateToken verifies a JWT's signature and expiry and returns the typed claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.Auth.JWTSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userIDStr, ok := mapClaims["user_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	email, ok := mapClaims["email"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	roleStr, ok := mapClaims["role"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	role, err := models.ParseRole(roleStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
	}, nil
}

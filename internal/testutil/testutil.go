// Package testutil provides utilities for testing
package testutil

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"docvault/internal/api/handlers"
	"docvault/internal/auth"
	"docvault/internal/config"
	"docvault/internal/models"
	"docvault/internal/repository"
	"docvault/internal/repository/postgres"
	"docvault/internal/testutil/db"
	"docvault/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// LoadTestConfig loads the test configuration
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return db.LoadTestConfig(t)
}

// SentEmail records one outbound message captured by the mock sender
type SentEmail struct {
	Kind      string
	To        string
	FirstName string
	Token     string
	Until     time.Time
}

// MockEmailSender captures outbound mail instead of sending it. Setting Fail
// makes every send return an error, for exercising the failure contracts.
type MockEmailSender struct {
	mu   sync.Mutex
	Sent []SentEmail
	Fail bool
}

func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{}
}

func (s *MockEmailSender) record(e SentEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return errors.New("mock send failure")
	}
	s.Sent = append(s.Sent, e)
	return nil
}

func (s *MockEmailSender) SendVerificationEmail(to, firstName, token string) error {
	return s.record(SentEmail{Kind: "verification", To: to, FirstName: firstName, Token: token})
}

func (s *MockEmailSender) SendPasswordResetEmail(to, firstName, token string) error {
	return s.record(SentEmail{Kind: "reset", To: to, FirstName: firstName, Token: token})
}

func (s *MockEmailSender) SendAccountLockedEmail(to, firstName string, until time.Time) error {
	return s.record(SentEmail{Kind: "locked", To: to, FirstName: firstName, Until: until})
}

func (s *MockEmailSender) SendWelcomeEmail(to, firstName string) error {
	return s.record(SentEmail{Kind: "welcome", To: to, FirstName: firstName})
}

// ByKind returns the captured messages of one kind
func (s *MockEmailSender) ByKind(kind string) []SentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []SentEmail
	for _, e := range s.Sent {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// TestContext holds common test dependencies
type TestContext struct {
	T                   *testing.T
	DB                  *sql.DB
	Config              *config.Config
	UserRepo            repository.UserRepository
	SessionRepo         repository.SessionRepository
	HistoryRepo         repository.LoginHistoryRepository
	PasswordHistoryRepo repository.PasswordHistoryRepository
	AuthService         *auth.Service
	EmailSender         *MockEmailSender
	AuthHandler         *handlers.AuthHandler
	PasswordHandler     *handlers.PasswordHandler
	SessionHandler      *handlers.SessionHandler
	HistoryHandler      *handlers.LoginHistoryHandler
	UserHandler         *handlers.UserHandler
}

// NewTestContext creates a new test context with all dependencies
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)
	validation.Initialize()

	cfg := LoadTestConfig(t)

	testDB := db.SetupTestDB(t, &cfg.Database)

	userRepo := postgres.NewUserRepository(testDB)
	sessionRepo := postgres.NewSessionRepository(testDB)
	historyRepo := postgres.NewLoginHistoryRepository(testDB)
	passwordHistoryRepo := postgres.NewPasswordHistoryRepository(testDB)

	authService := auth.NewService(cfg, sessionRepo)
	emailSender := NewMockEmailSender()

	tc := &TestContext{
		T:                   t,
		DB:                  testDB,
		Config:              cfg,
		UserRepo:            userRepo,
		SessionRepo:         sessionRepo,
		HistoryRepo:         historyRepo,
		PasswordHistoryRepo: passwordHistoryRepo,
		AuthService:         authService,
		EmailSender:         emailSender,
		AuthHandler:         handlers.NewAuthHandler(userRepo, historyRepo, authService, emailSender, cfg),
		PasswordHandler:     handlers.NewPasswordHandler(userRepo, passwordHistoryRepo, authService, emailSender, cfg),
		SessionHandler:      handlers.NewSessionHandler(sessionRepo, authService),
		HistoryHandler:      handlers.NewLoginHistoryHandler(historyRepo, cfg),
		UserHandler:         handlers.NewUserHandler(userRepo, authService),
	}

	t.Cleanup(func() {
		tc.cleanup()
	})

	return tc
}

// cleanup performs necessary cleanup after tests
func (tc *TestContext) cleanup() {
	if tc.DB != nil {
		if err := db.CleanupTestDB(tc.DB); err != nil {
			tc.T.Errorf("Failed to cleanup test database: %v", err)
		}
		tc.DB.Close()
	}
}

// CreateTestUser creates an active user with the given credentials and role
func (tc *TestContext) CreateTestUser(email, password string, role models.Role) *models.User {
	tc.T.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(tc.T, err, "Failed to hash password")

	user := &models.User{
		Email:     email,
		Password:  string(hashedPassword),
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
		IsActive:  true,
	}

	err = tc.UserRepo.Create(context.Background(), user)
	require.NoError(tc.T, err, "Failed to create test user")

	return user
}

// GetTestJWT generates an access token for the given user
func (tc *TestContext) GetTestJWT(userID uuid.UUID) string {
	tc.T.Helper()

	user, err := tc.UserRepo.GetByID(context.Background(), userID)
	require.NoError(tc.T, err, "Failed to get user")

	token, err := tc.AuthService.GenerateToken(user, false)
	require.NoError(tc.T, err, "Failed to generate test JWT")
	return token
}

// IssueTestPair issues an access and refresh token pair with a session row
func (tc *TestContext) IssueTestPair(userID uuid.UUID) (string, string) {
	tc.T.Helper()

	user, err := tc.UserRepo.GetByID(context.Background(), userID)
	require.NoError(tc.T, err, "Failed to get user")

	access, refresh, err := tc.AuthService.IssuePair(context.Background(), user)
	require.NoError(tc.T, err, "Failed to issue token pair")
	return access, refresh
}

// MarkEmailVerified marks a user's email as verified
func (tc *TestContext) MarkEmailVerified(userID uuid.UUID) {
	tc.T.Helper()
	err := tc.UserRepo.MarkEmailVerified(context.Background(), userID)
	require.NoError(tc.T, err, "Failed to mark email as verified")
}

package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"docvault/internal/api/middleware"
	"docvault/internal/auth"
	"docvault/internal/config"
	"docvault/internal/email"
	"docvault/internal/models"
	"docvault/internal/repository"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles HTTP requests for registration, login and tokens
type AuthHandler struct {
	userRepo     repository.UserRepository
	historyRepo  repository.LoginHistoryRepository
	authService  *auth.Service
	emailService email.Sender
	lockout      *auth.Lockout
	config       *config.Config
}

// NewAuthHandler creates a new authentication handler with the given dependencies
func NewAuthHandler(
	userRepo repository.UserRepository,
	historyRepo repository.LoginHistoryRepository,
	authService *auth.Service,
	emailService email.Sender,
	cfg *config.Config,
) *AuthHandler {
	return &AuthHandler{
		userRepo:     userRepo,
		historyRepo:  historyRepo,
		authService:  authService,
		emailService: emailService,
		lockout:      auth.NewLockout(cfg.Auth.MaxFailedAttempts, cfg.Auth.LockoutDuration),
		config:       cfg,
	}
}

// recordAttempt appends one login history entry. History write failures are
// logged but never change the outcome of the attempt itself.
func (h *AuthHandler) recordAttempt(c *gin.Context, user *models.User, success bool, failReason string) {
	entry := &models.LoginHistory{
		UserID:  user.ID,
		Success: success,
	}
	if ip := c.ClientIP(); ip != "" {
		entry.IPAddress = &ip
	}
	if ua := c.GetHeader("User-Agent"); ua != "" {
		entry.UserAgent = &ua
	}
	if !success {
		entry.FailReason = &failReason
	}

	if err := h.historyRepo.Create(c.Request.Context(), entry); err != nil {
		log.Printf("Failed to record login attempt: %v", err)
	}
}

// Register godoc
// @Summary Register new account
// @Description Create a new user account. Elevated roles can only be assigned by an authenticated admin.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration details"
// @Success 201 {object} models.AuthResponse "Account created"
// @Failure 400 {object} models.ErrorResponse "Invalid request or weak password"
// @Failure 403 {object} models.ErrorResponse "Role not permitted"
// @Failure 409 {object} models.ErrorResponse "Email already registered"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if violations := auth.ValidatePasswordStrength(req.Password); len(violations) > 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: strings.Join(violations, "; ")})
		return
	}

	role := models.RoleUser
	if req.Role != nil {
		if !req.Role.Valid() {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid role"})
			return
		}
		if *req.Role != models.RoleUser {
			caller := middleware.CurrentUser(c)
			if caller == nil || !caller.Role.AtLeast(models.RoleAdmin) {
				c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "only administrators can assign elevated roles"})
				return
			}
		}
		role = *req.Role
	}

	hashedPassword, err := h.authService.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process registration"})
		return
	}

	user := &models.User{
		Email:     strings.ToLower(req.Email),
		Password:  hashedPassword,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
		IsActive:  true,
	}

	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		if err == repository.ErrEmailExists {
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create user"})
		return
	}

	// Verification mail failure must not undo a successful registration
	token, err := auth.GenerateSecureToken()
	if err == nil {
		expiry := time.Now().Add(h.config.Auth.VerifyTokenTTL)
		if err := h.userRepo.SetVerificationToken(c.Request.Context(), user.ID, token, expiry); err != nil {
			log.Printf("Failed to store verification token: %v", err)
		} else if err := h.emailService.SendVerificationEmail(user.Email, user.FirstName, token); err != nil {
			log.Printf("Failed to send verification email: %v", err)
		}
	}

	accessToken, refreshToken, err := h.authService.IssuePair(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate tokens"})
		return
	}

	c.JSON(http.StatusCreated, models.AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate with email and password and receive a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.AuthResponse "Login successful"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials, locked or deactivated account"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		if err == repository.ErrUserNotFound {
			// No history entry here; attempts are only recorded against
			// accounts that exist
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid email or password."})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
		return
	}

	now := time.Now()

	// Locked and deactivated accounts are rejected before the password is
	// ever checked
	if decision := h.lockout.PreCheck(user, now); !decision.Allow {
		h.recordAttempt(c, user, false, decision.Reason)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: decision.Message})
		return
	}

	if err := h.authService.ComparePasswords(user.Password, req.Password); err != nil {
		attempts, err := h.userRepo.IncrementFailedAttempts(c.Request.Context(), user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
			return
		}

		decision := h.lockout.OnPasswordMismatch(attempts, now)
		if decision.LockUntil != nil {
			if err := h.userRepo.LockAccount(c.Request.Context(), user.ID, *decision.LockUntil); err != nil {
				c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
				return
			}
			// Lock notification is best effort
			if err := h.emailService.SendAccountLockedEmail(user.Email, user.FirstName, *decision.LockUntil); err != nil {
				log.Printf("Failed to send account locked email: %v", err)
			}
		}

		h.recordAttempt(c, user, false, decision.Reason)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: decision.Message})
		return
	}

	if err := h.userRepo.ResetFailedAttempts(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
		return
	}

	ip := c.ClientIP()
	if err := h.userRepo.RecordLogin(c.Request.Context(), user.ID, now, ip); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to update login time"})
		return
	}
	user.LastLoginAt = &now
	if ip != "" {
		user.LastLoginIP = &ip
	}

	h.recordAttempt(c, user, true, "")

	accessToken, refreshToken, err := h.authService.IssuePair(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Logout godoc
// @Summary User logout
// @Description Revoke the refresh token's session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LogoutRequest true "Refresh token to revoke"
// @Success 200 {object} models.SuccessResponse "Logged out"
// @Failure 400 {object} models.ErrorResponse "Invalid request or unknown token"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.authService.RevokeRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
		if err == repository.ErrSessionNotFound {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid refresh token"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to log out"})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "logged out successfully"})
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange a live refresh token for a new access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RefreshRequest true "Refresh token"
// @Success 200 {object} models.RefreshResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Invalid or expired refresh token"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	userID, err := h.authService.ValidateRefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid or expired refresh token"})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid or expired refresh token"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "account is deactivated"})
		return
	}

	accessToken, err := h.authService.GenerateToken(user, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate access token"})
		return
	}

	c.JSON(http.StatusOK, models.RefreshResponse{AccessToken: accessToken})
}

// Me godoc
// @Summary Current user
// @Description Return the authenticated user's profile
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	c.JSON(http.StatusOK, user)
}

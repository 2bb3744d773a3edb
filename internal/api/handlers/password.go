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

// forgotPasswordMessage is returned whether or not the email exists, so the
// endpoint cannot be used to enumerate accounts.
const forgotPasswordMessage = "If the email exists, a password reset link has been sent."

// PasswordHandler handles password lifecycle and email verification requests
type PasswordHandler struct {
	userRepo     repository.UserRepository
	passwordRepo repository.PasswordHistoryRepository
	authService  *auth.Service
	emailService email.Sender
	config       *config.Config
}

// NewPasswordHandler creates a new password handler with the given dependencies
func NewPasswordHandler(
	userRepo repository.UserRepository,
	passwordRepo repository.PasswordHistoryRepository,
	authService *auth.Service,
	emailService email.Sender,
	cfg *config.Config,
) *PasswordHandler {
	return &PasswordHandler{
		userRepo:     userRepo,
		passwordRepo: passwordRepo,
		authService:  authService,
		emailService: emailService,
		config:       cfg,
	}
}

// checkNewPassword validates strength and reuse for a candidate password.
// Returns a user-facing message, empty when the password is acceptable.
func (h *PasswordHandler) checkNewPassword(c *gin.Context, user *models.User, newPassword string) (string, error) {
	if violations := auth.ValidatePasswordStrength(newPassword); len(violations) > 0 {
		return strings.Join(violations, "; "), nil
	}

	// The current password is not in history yet, so it is checked directly
	if err := h.authService.ComparePasswords(user.Password, newPassword); err == nil {
		return "cannot reuse recent passwords", nil
	}

	if err := h.passwordRepo.CheckReuse(c.Request.Context(), user.ID, newPassword); err != nil {
		if err == repository.ErrPasswordReuse {
			return "cannot reuse recent passwords", nil
		}
		return "", err
	}

	return "", nil
}

// ForgotPassword godoc
// @Summary Request password reset
// @Description Send a password reset email. Always returns success so the endpoint cannot confirm whether an email is registered.
// @Tags password
// @Accept json
// @Produce json
// @Param request body models.ForgotPasswordRequest true "Account email"
// @Success 200 {object} models.SuccessResponse "Reset link sent if the email exists"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Failed to create token or send email"
// @Router /auth/forgot-password [post]
func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		if err == repository.ErrUserNotFound {
			c.JSON(http.StatusOK, models.SuccessResponse{Message: forgotPasswordMessage})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process request"})
		return
	}

	// Deactivated accounts keep the generic response but get no email
	if !user.IsActive {
		c.JSON(http.StatusOK, models.SuccessResponse{Message: forgotPasswordMessage})
		return
	}

	token, err := auth.GenerateSecureToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create reset token"})
		return
	}

	expiry := time.Now().Add(h.config.Auth.ResetTokenTTL)
	if err := h.userRepo.SetResetToken(c.Request.Context(), user.ID, token, expiry); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create reset token"})
		return
	}

	// The reset flow depends on the mail arriving, so a send failure is an
	// error the caller must see
	if err := h.emailService.SendPasswordResetEmail(user.Email, user.FirstName, token); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to send password reset email"})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: forgotPasswordMessage})
}

// ResetPassword godoc
// @Summary Complete password reset
// @Description Set a new password using a reset token. The token is single use and all sessions are revoked.
// @Tags password
// @Accept json
// @Produce json
// @Param request body models.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} models.SuccessResponse "Password reset"
// @Failure 400 {object} models.ErrorResponse "Invalid or expired token, weak password, or password reuse"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/reset-password [post]
func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.userRepo.GetByResetToken(c.Request.Context(), req.Token)
	if err != nil {
		if err == repository.ErrTokenInvalid {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid or expired reset token"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to verify token"})
		return
	}

	msg, err := h.checkNewPassword(c, user, req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process password"})
		return
	}
	if msg != "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	hashedPassword, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process password"})
		return
	}

	// Archives the old hash, swaps in the new one, clears the token and any
	// lockout state in one transaction
	if err := h.userRepo.CompletePasswordReset(c.Request.Context(), user.ID, hashedPassword); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to update password"})
		return
	}

	if _, err := h.authService.RevokeAll(c.Request.Context(), user.ID, nil); err != nil {
		log.Printf("Failed to revoke sessions after password reset: %v", err)
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "password reset successfully"})
}

// ChangePassword godoc
// @Summary Change password
// @Description Change the authenticated user's password. Other sessions are revoked.
// @Tags password
// @Accept json
// @Produce json
// @Param request body models.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} models.SuccessResponse "Password changed"
// @Failure 400 {object} models.ErrorResponse "Wrong current password, weak password, or password reuse"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /auth/change-password [post]
func (h *PasswordHandler) ChangePassword(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.authService.ComparePasswords(user.Password, req.CurrentPassword); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "current password is incorrect"})
		return
	}

	msg, err := h.checkNewPassword(c, user, req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process password"})
		return
	}
	if msg != "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	hashedPassword, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process password"})
		return
	}

	if err := h.passwordRepo.Add(c.Request.Context(), user.ID, user.Password); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to update password"})
		return
	}

	// Also clears the must-change-password flag
	if err := h.userRepo.UpdatePassword(c.Request.Context(), user.ID, hashedPassword); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to update password"})
		return
	}

	if _, err := h.authService.RevokeAll(c.Request.Context(), user.ID, nil); err != nil {
		log.Printf("Failed to revoke sessions after password change: %v", err)
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "password changed successfully"})
}

// SendVerification godoc
// @Summary Send verification email
// @Description Send a fresh email verification link to the authenticated user
// @Tags password
// @Produce json
// @Success 200 {object} models.SuccessResponse "Verification email sent"
// @Failure 400 {object} models.ErrorResponse "Email already verified"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Failed to create token or send email"
// @Security BearerAuth
// @Router /auth/send-verification [post]
func (h *PasswordHandler) SendVerification(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	if user.IsEmailVerified {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "email already verified"})
		return
	}

	token, err := auth.GenerateSecureToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create verification token"})
		return
	}

	expiry := time.Now().Add(h.config.Auth.VerifyTokenTTL)
	if err := h.userRepo.SetVerificationToken(c.Request.Context(), user.ID, token, expiry); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create verification token"})
		return
	}

	if err := h.emailService.SendVerificationEmail(user.Email, user.FirstName, token); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to send verification email"})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "verification email sent"})
}

// VerifyEmail godoc
// @Summary Verify email address
// @Description Redeem an email verification token, from the link's query parameter or a JSON body
// @Tags password
// @Accept json
// @Produce json
// @Param token query string false "Verification token"
// @Param request body models.VerifyEmailRequest false "Verification token"
// @Success 200 {object} models.SuccessResponse "Email verified"
// @Failure 400 {object} models.ErrorResponse "Invalid, expired, or missing token"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/verify-email [get]
// @Router /auth/verify-email [post]
func (h *PasswordHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		var req models.VerifyEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "verification token is required"})
			return
		}
		token = req.Token
	}

	user, err := h.userRepo.GetByVerificationToken(c.Request.Context(), token)
	if err != nil {
		if err == repository.ErrTokenInvalid {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid or expired verification token"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to verify email"})
		return
	}

	if err := h.userRepo.MarkEmailVerified(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to verify email"})
		return
	}

	// Welcome mail is best effort
	if err := h.emailService.SendWelcomeEmail(user.Email, user.FirstName); err != nil {
		log.Printf("Failed to send welcome email: %v", err)
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "email verified successfully"})
}

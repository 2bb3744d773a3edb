package handlers

import (
	"net/http"

	"docvault/internal/api/middleware"
	"docvault/internal/auth"
	"docvault/internal/models"
	"docvault/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler handles HTTP requests for the refresh-token session registry
type SessionHandler struct {
	sessionRepo repository.SessionRepository
	authService *auth.Service
}

// NewSessionHandler creates a new session handler with the given dependencies
func NewSessionHandler(sessionRepo repository.SessionRepository, authService *auth.Service) *SessionHandler {
	return &SessionHandler{
		sessionRepo: sessionRepo,
		authService: authService,
	}
}

// List godoc
// @Summary List own sessions
// @Description List the authenticated user's active sessions
// @Tags sessions
// @Produce json
// @Success 200 {array} models.Session
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	sessions, err := h.sessionRepo.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// ListAll godoc
// @Summary List all sessions
// @Description List every active session with its owner. Admin only.
// @Tags sessions
// @Produce json
// @Success 200 {array} models.SessionWithUser
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 403 {object} models.ErrorResponse "Insufficient permissions"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /sessions/all [get]
func (h *SessionHandler) ListAll(c *gin.Context) {
	sessions, err := h.sessionRepo.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// Revoke godoc
// @Summary Revoke one session
// @Description Revoke a session by ID. Users can revoke their own sessions; admins any.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SuccessResponse "Session revoked"
// @Failure 400 {object} models.ErrorResponse "Invalid session ID"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 403 {object} models.ErrorResponse "Not the session owner"
// @Failure 404 {object} models.ErrorResponse "Session not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Revoke(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid session id"})
		return
	}

	session, err := h.sessionRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if err == repository.ErrSessionNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to revoke session"})
		return
	}

	if session.UserID != user.ID && !user.Role.AtLeast(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "insufficient permissions"})
		return
	}

	if err := h.sessionRepo.Delete(c.Request.Context(), id); err != nil {
		if err == repository.ErrSessionNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to revoke session"})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "session revoked"})
}

// RevokeAll godoc
// @Summary Revoke all own sessions
// @Description Revoke every session of the authenticated user, optionally sparing the current one
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body models.RevokeAllRequest false "Revocation options"
// @Success 200 {object} models.CountResponse "Sessions revoked"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /sessions/revoke-all [post]
func (h *SessionHandler) RevokeAll(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	// Body is optional; absence means revoke everything
	var req models.RevokeAllRequest
	_ = c.ShouldBindJSON(&req)

	var exceptToken *string
	if req.ExceptCurrent && req.RefreshToken != "" {
		exceptToken = &req.RefreshToken
	}

	count, err := h.authService.RevokeAll(c.Request.Context(), user.ID, exceptToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to revoke sessions"})
		return
	}

	c.JSON(http.StatusOK, models.CountResponse{Message: "sessions revoked", Count: count})
}

// Cleanup godoc
// @Summary Purge expired sessions
// @Description Delete every session past its expiry. Admin only.
// @Tags sessions
// @Produce json
// @Success 200 {object} models.CountResponse "Expired sessions deleted"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 403 {object} models.ErrorResponse "Insufficient permissions"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /sessions/cleanup [post]
func (h *SessionHandler) Cleanup(c *gin.Context) {
	count, err := h.sessionRepo.DeleteExpired(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to clean up sessions"})
		return
	}

	c.JSON(http.StatusOK, models.CountResponse{Message: "expired sessions deleted", Count: count})
}

// Stats godoc
// @Summary Session statistics
// @Description Report total, active and expired session counts. Admin only.
// @Tags sessions
// @Produce json
// @Success 200 {object} models.SessionStats
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 403 {object} models.ErrorResponse "Insufficient permissions"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /sessions/stats [get]
func (h *SessionHandler) Stats(c *gin.Context) {
	stats, err := h.sessionRepo.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get session stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

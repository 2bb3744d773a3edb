package handlers

import (
	"log"
	"net/http"
	"strconv"

	"docvault/internal/api/middleware"
	"docvault/internal/auth"
	"docvault/internal/models"
	"docvault/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles HTTP requests for account administration
type UserHandler struct {
	userRepo    repository.UserRepository
	authService *auth.Service
}

// NewUserHandler creates a new user handler with the given dependencies
func NewUserHandler(userRepo repository.UserRepository, authService *auth.Service) *UserHandler {
	return &UserHandler{
		userRepo:    userRepo,
		authService: authService,
	}
}

// List godoc
// @Summary List users
// @Description List accounts with optional filters. Admin only.
// @Tags users
// @Produce json
// @Param search query string false "Search email and names"
// @Param role query string false "Filter by role"
// @Param is_active query boolean false "Filter by active flag"
// @Param limit query integer false "Limit results"
// @Param offset query integer false "Offset results"
// @Success 200 {array} models.User
// @Failure 400 {object} models.ErrorResponse "Invalid filter parameter"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 403 {object} models.ErrorResponse "Insufficient permissions"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter repository.UserFilter

	if v := c.Query("search"); v != "" {
		filter.Search = &v
	}

	if v := c.Query("role"); v != "" {
		role, err := models.ParseRole(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid role"})
			return
		}
		filter.Role = &role
	}

	if v := c.Query("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid is_active"})
			return
		}
		filter.IsActive = &active
	}

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid limit"})
			return
		}
		filter.Limit = &limit
	}

	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid offset"})
			return
		}
		filter.Offset = &offset
	}

	users, err := h.userRepo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// Get godoc
// @Summary Get user
// @Description Get one account by ID. Users can read themselves; admins any.
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse "Invalid user ID"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 403 {object} models.ErrorResponse "Not the account owner"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateRole godoc
// @Summary Change user role
// @Description Assign a new role to an account. Super admin only.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body models.UpdateRoleRequest true "New role"
// @Success 200 {object} models.User "Updated user"
// @Failure 400 {object} models.ErrorResponse "Invalid user ID, role, or self-demotion"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 403 {object} models.ErrorResponse "Insufficient permissions"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /users/{id}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid role"})
		return
	}

	// A super admin demoting themselves could leave the portal without one
	if id == caller.ID && req.Role != caller.Role {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "cannot change your own role"})
		return
	}

	if err := h.userRepo.UpdateRole(c.Request.Context(), id, req.Role); err != nil {
		if err == repository.ErrUserNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to update role"})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateStatus godoc
// @Summary Activate or deactivate user
// @Description Flip an account's active flag. Deactivation revokes all sessions. Admin only.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body models.UpdateStatusRequest true "New status"
// @Success 200 {object} models.User "Updated user"
// @Failure 400 {object} models.ErrorResponse "Invalid user ID or self-deactivation"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 403 {object} models.ErrorResponse "Insufficient permissions"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /users/{id}/status [put]
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if id == caller.ID && !*req.IsActive {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "cannot deactivate your own account"})
		return
	}

	if err := h.userRepo.UpdateStatus(c.Request.Context(), id, *req.IsActive); err != nil {
		if err == repository.ErrUserNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to update status"})
		return
	}

	// A deactivated user must not be able to refresh their way back in
	if !*req.IsActive {
		if _, err := h.authService.RevokeAll(c.Request.Context(), id, nil); err != nil {
			log.Printf("Failed to revoke sessions for deactivated user %s: %v", id, err)
		}
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Delete godoc
// @Summary Delete user
// @Description Permanently delete an account and its sessions and history. Super admin only.
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.SuccessResponse "User deleted"
// @Failure 400 {object} models.ErrorResponse "Invalid user ID or self-deletion"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 403 {object} models.ErrorResponse "Insufficient permissions"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	if id == caller.ID {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "cannot delete your own account"})
		return
	}

	if err := h.userRepo.Delete(c.Request.Context(), id); err != nil {
		if err == repository.ErrUserNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "user deleted"})
}

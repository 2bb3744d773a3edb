package handlers

import (
	"net/http"
	"strconv"
	"time"

	"docvault/internal/api/middleware"
	"docvault/internal/config"
	"docvault/internal/models"
	"docvault/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LoginHistoryHandler handles HTTP requests for the authentication audit trail
type LoginHistoryHandler struct {
	historyRepo repository.LoginHistoryRepository
	config      *config.Config
}

// NewLoginHistoryHandler creates a new login history handler
func NewLoginHistoryHandler(historyRepo repository.LoginHistoryRepository, cfg *config.Config) *LoginHistoryHandler {
	return &LoginHistoryHandler{
		historyRepo: historyRepo,
		config:      cfg,
	}
}

// List godoc
// @Summary List login history
// @Description List login attempts newest-first. Non-admins only see their own; admins may filter by user.
// @Tags login-history
// @Produce json
// @Param user_id query string false "Filter by user ID (admin only)"
// @Param success query boolean false "Filter by outcome"
// @Param start_date query string false "Filter from this time (RFC3339)"
// @Param end_date query string false "Filter until this time (RFC3339)"
// @Param page query integer false "Page number (default 1)"
// @Param limit query integer false "Page size (default 20, max 100)"
// @Success 200 {object} models.LoginHistoryPage
// @Failure 400 {object} models.ErrorResponse "Invalid filter parameter"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /login-history [get]
func (h *LoginHistoryHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	filter, errMsg := h.parseFilter(c, user)
	if errMsg != "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: errMsg})
		return
	}

	entries, total, err := h.historyRepo.List(c.Request.Context(), *filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list login history"})
		return
	}

	totalPages := 0
	if filter.Limit > 0 {
		totalPages = (total + filter.Limit - 1) / filter.Limit
	}

	c.JSON(http.StatusOK, models.LoginHistoryPage{
		History:    entries,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	})
}

func (h *LoginHistoryHandler) parseFilter(c *gin.Context, user *models.User) (*repository.LoginHistoryFilter, string) {
	filter := repository.LoginHistoryFilter{Page: 1, Limit: 20}

	if user.Role.AtLeast(models.RoleAdmin) {
		if v := c.Query("user_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, "invalid user_id"
			}
			filter.UserID = &id
		}
	} else {
		// Non-admins are pinned to their own history regardless of filters
		id := user.ID
		filter.UserID = &id
	}

	if v := c.Query("success"); v != "" {
		success, err := strconv.ParseBool(v)
		if err != nil {
			return nil, "invalid success"
		}
		filter.Success = &success
	}

	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, "invalid start_date"
		}
		filter.StartDate = &t
	}

	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, "invalid end_date"
		}
		filter.EndDate = &t
	}

	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return nil, "invalid page"
		}
		filter.Page = page
	}

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 100 {
			return nil, "invalid limit"
		}
		filter.Limit = limit
	}

	return &filter, ""
}

// Stats godoc
// @Summary Login statistics
// @Description Aggregate attempt counts and success rate. Non-admins only see their own; admins may target a user or the whole system.
// @Tags login-history
// @Produce json
// @Param user_id query string false "Target user ID (admin only)"
// @Success 200 {object} models.LoginStats
// @Failure 400 {object} models.ErrorResponse "Invalid user_id"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /login-history/stats [get]
func (h *LoginHistoryHandler) Stats(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	var userID *uuid.UUID
	if user.Role.AtLeast(models.RoleAdmin) {
		if v := c.Query("user_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user_id"})
				return
			}
			userID = &id
		}
	} else {
		id := user.ID
		userID = &id
	}

	stats, err := h.historyRepo.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get login stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Cleanup godoc
// @Summary Purge old login history
// @Description Delete history entries older than the retention window. Admin only.
// @Tags login-history
// @Produce json
// @Param days query integer false "Retention in days (defaults to configured retention)"
// @Success 200 {object} models.CountResponse "Old entries deleted"
// @Failure 400 {object} models.ErrorResponse "Invalid days"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 403 {object} models.ErrorResponse "Insufficient permissions"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /login-history/cleanup [post]
func (h *LoginHistoryHandler) Cleanup(c *gin.Context) {
	days := h.config.Maintenance.HistoryRetentionDays
	if v := c.Query("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid days"})
			return
		}
		days = parsed
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	count, err := h.historyRepo.DeleteOlderThan(c.Request.Context(), cutoff)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to clean up login history"})
		return
	}

	c.JSON(http.StatusOK, models.CountResponse{Message: "old login history deleted", Count: count})
}

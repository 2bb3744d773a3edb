package middleware

import (
	"net/http"
	"strings"

	"docvault/internal/auth"
	"docvault/internal/models"
	"docvault/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthMiddleware struct {
	authService *auth.Service
	userRepo    repository.UserRepository
}

func NewAuthMiddleware(authService *auth.Service, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// AuthRequired validates the bearer token and loads the authenticated user
// into the request context. Token problems always map to 401; role checks
// come later and never run for an unauthenticated request.
func (m *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}

		claims, err := m.authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		// Load the full user so role and status changes take effect on the
		// next request, not at the token's next issuance
		user, err := m.userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			c.Abort()
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account is deactivated"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("token", parts[1])

		c.Next()
	}
}

// OptionalAuth loads the user when a valid bearer token is present and lets
// the request through anonymously otherwise. Endpoints behind it decide what
// an authenticated caller may additionally do.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		claims, err := m.authService.ValidateToken(parts[1])
		if err != nil {
			c.Next()
			return
		}

		user, err := m.userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			c.Next()
			return
		}

		c.Set("user", user)
		c.Set("token", parts[1])

		c.Next()
	}
}

// RequireRole allows the request through only when the authenticated user
// holds one of the given roles. Must run after AuthRequired.
func (m *AuthMiddleware) RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		if !user.Role.In(roles) {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// OwnerOrAdmin allows the request through when the authenticated user is an
// admin or when the :id path parameter names the user themselves.
func (m *AuthMiddleware) OwnerOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		if user.Role.AtLeast(models.RoleAdmin) {
			c.Next()
			return
		}

		id, err := uuid.Parse(c.Param(param))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			c.Abort()
			return
		}

		if id != user.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by AuthRequired, or nil
func CurrentUser(c *gin.Context) *models.User {
	v, exists := c.Get("user")
	if !exists {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// CurrentToken returns the raw bearer token stored by AuthRequired
func CurrentToken(c *gin.Context) string {
	v, exists := c.Get("token")
	if !exists {
		return ""
	}
	token, _ := v.(string)
	return token
}

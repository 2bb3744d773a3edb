// Package routes handles the setup and configuration of API routes
package routes

import (
	"database/sql"

	_ "docvault/docs" // Import swagger docs
	"docvault/internal/api/handlers"
	"docvault/internal/api/middleware"
	"docvault/internal/auth"
	"docvault/internal/config"
	"docvault/internal/email"
	"docvault/internal/models"
	"docvault/internal/ratelimit"
	"docvault/internal/repository/postgres"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes and their handlers
func SetupRoutes(cfg *config.Config, db *sql.DB) *gin.Engine {
	if cfg.API.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(middleware.Compression(middleware.DefaultCompressionConfig()))

	healthHandler := handlers.NewHealthHandler(db)

	// Routes without rate limiting
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Apply global rate limiting to all other routes
	r.Use(middleware.NewRateLimiter(cfg).Middleware())

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	historyRepo := postgres.NewLoginHistoryRepository(db)
	passwordRepo := postgres.NewPasswordHistoryRepository(db)

	// Initialize services
	authService := auth.NewService(cfg, sessionRepo)
	emailService := email.NewService(cfg.Email)

	// Per-endpoint counters share a Redis instance when one is configured
	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter()
	if cfg.Redis.Addr != "" {
		limiter = ratelimit.NewRedisLimiter(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService, userRepo)
	loginLimit := middleware.EndpointLimit(limiter, middleware.KeyByIP("login"), cfg.RateLimit.LoginMax, cfg.RateLimit.LoginWindow)
	resetLimit := middleware.EndpointLimit(limiter, middleware.KeyByIP("pwreset"), cfg.RateLimit.ResetRequestMax, cfg.RateLimit.ResetRequestWindow)
	verifyLimit := middleware.EndpointLimit(limiter, middleware.KeyByUser("verify"), cfg.RateLimit.VerifySendMax, cfg.RateLimit.VerifySendWindow)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepo, historyRepo, authService, emailService, cfg)
	passwordHandler := handlers.NewPasswordHandler(userRepo, passwordRepo, authService, emailService, cfg)
	sessionHandler := handlers.NewSessionHandler(sessionRepo, authService)
	historyHandler := handlers.NewLoginHistoryHandler(historyRepo, cfg)
	userHandler := handlers.NewUserHandler(userRepo, authService)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Health check (no authentication required)
		v1.GET("/health", healthHandler.Health)

		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authMiddleware.OptionalAuth(), authHandler.Register)
			authGroup.POST("/login", loginLimit, authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/me", authMiddleware.AuthRequired(), authHandler.Me)

			authGroup.POST("/forgot-password", resetLimit, passwordHandler.ForgotPassword)
			authGroup.POST("/reset-password", passwordHandler.ResetPassword)
			authGroup.POST("/change-password", authMiddleware.AuthRequired(), passwordHandler.ChangePassword)
			authGroup.POST("/send-verification", authMiddleware.AuthRequired(), verifyLimit, passwordHandler.SendVerification)
			authGroup.GET("/verify-email", passwordHandler.VerifyEmail)
			authGroup.POST("/verify-email", passwordHandler.VerifyEmail)
		}

		// Session routes (requires authentication)
		sessions := v1.Group("/sessions")
		sessions.Use(authMiddleware.AuthRequired())
		{
			sessions.GET("", sessionHandler.List)
			sessions.GET("/all", authMiddleware.RequireRole(models.AdminOrAbove...), sessionHandler.ListAll)
			sessions.GET("/stats", authMiddleware.RequireRole(models.AdminOrAbove...), sessionHandler.Stats)
			sessions.POST("/revoke-all", sessionHandler.RevokeAll)
			sessions.POST("/cleanup", authMiddleware.RequireRole(models.AdminOrAbove...), sessionHandler.Cleanup)
			sessions.DELETE("/:id", sessionHandler.Revoke)
		}

		// Login history routes (requires authentication)
		history := v1.Group("/login-history")
		history.Use(authMiddleware.AuthRequired())
		{
			history.GET("", historyHandler.List)
			history.GET("/stats", historyHandler.Stats)
			history.POST("/cleanup", authMiddleware.RequireRole(models.AdminOrAbove...), historyHandler.Cleanup)
		}

		// User administration routes (requires authentication)
		users := v1.Group("/users")
		users.Use(authMiddleware.AuthRequired())
		{
			users.GET("", authMiddleware.RequireRole(models.AdminOrAbove...), userHandler.List)
			users.GET("/:id", authMiddleware.OwnerOrAdmin("id"), userHandler.Get)
			users.PUT("/:id/role", authMiddleware.RequireRole(models.SuperAdminOnly...), userHandler.UpdateRole)
			users.PUT("/:id/status", authMiddleware.RequireRole(models.AdminOrAbove...), userHandler.UpdateStatus)
			users.DELETE("/:id", authMiddleware.RequireRole(models.SuperAdminOnly...), userHandler.Delete)
		}
	}

	return r
}

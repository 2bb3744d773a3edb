package handlers_test

import (
	"docvault/internal/api/middleware"
	"docvault/internal/repository"
	"docvault/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// newAuthTestRouter wires the auth surface the way the real router does,
// including the auth middleware, so tests exercise full request handling.
func newAuthTestRouter(tc *testutil.TestContext) *gin.Engine {
	router := gin.New()
	authMiddleware := middleware.NewAuthMiddleware(tc.AuthService, tc.UserRepo)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authMiddleware.OptionalAuth(), tc.AuthHandler.Register)
		authGroup.POST("/login", tc.AuthHandler.Login)
		authGroup.POST("/logout", tc.AuthHandler.Logout)
		authGroup.POST("/refresh", tc.AuthHandler.Refresh)
		authGroup.GET("/me", authMiddleware.AuthRequired(), tc.AuthHandler.Me)

		authGroup.POST("/forgot-password", tc.PasswordHandler.ForgotPassword)
		authGroup.POST("/reset-password", tc.PasswordHandler.ResetPassword)
		authGroup.POST("/change-password", authMiddleware.AuthRequired(), tc.PasswordHandler.ChangePassword)
		authGroup.POST("/send-verification", authMiddleware.AuthRequired(), tc.PasswordHandler.SendVerification)
		authGroup.GET("/verify-email", tc.PasswordHandler.VerifyEmail)
		authGroup.POST("/verify-email", tc.PasswordHandler.VerifyEmail)
	}

	return router
}

func repositoryFilterFor(userID uuid.UUID) repository.LoginHistoryFilter {
	return repository.LoginHistoryFilter{UserID: &userID, Page: 1, Limit: 50}
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docvault/internal/models"
	"docvault/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		setupFunc  func(*testutil.TestContext)
		input      models.LoginRequest
		wantStatus int
		wantErr    bool
		errMsg     string
	}{
		{
			name: "Success",
			setupFunc: func(tc *testutil.TestContext) {
				tc.CreateTestUser("test@example.com", "Sup3r$ecret", models.RoleUser)
			},
			input: models.LoginRequest{
				Email:    "test@example.com",
				Password: "Sup3r$ecret",
			},
			wantStatus: http.StatusOK,
		},
		{
			name:      "User Not Found",
			setupFunc: nil,
			input: models.LoginRequest{
				Email:    "nobody@example.com",
				Password: "Sup3r$ecret",
			},
			wantStatus: http.StatusUnauthorized,
			wantErr:    true,
			errMsg:     "Invalid email or password.",
		},
		{
			name: "Wrong Password Discloses Remaining Attempts",
			setupFunc: func(tc *testutil.TestContext) {
				tc.CreateTestUser("test@example.com", "Sup3r$ecret", models.RoleUser)
			},
			input: models.LoginRequest{
				Email:    "test@example.com",
				Password: "wrong-password",
			},
			wantStatus: http.StatusUnauthorized,
			wantErr:    true,
			errMsg:     "Invalid email or password. 4 attempts remaining before account lock.",
		},
		{
			name: "Deactivated Account",
			setupFunc: func(tc *testutil.TestContext) {
				user := tc.CreateTestUser("inactive@example.com", "Sup3r$ecret", models.RoleUser)
				_, err := tc.DB.Exec("UPDATE users SET is_active = false WHERE id = $1", user.ID)
				require.NoError(tc.T, err)
			},
			input: models.LoginRequest{
				Email:    "inactive@example.com",
				Password: "Sup3r$ecret",
			},
			wantStatus: http.StatusUnauthorized,
			wantErr:    true,
			errMsg:     "Account is deactivated. Please contact administrator.",
		},
		{
			name: "Locked Account Rejected Even With Correct Password",
			setupFunc: func(tc *testutil.TestContext) {
				user := tc.CreateTestUser("locked@example.com", "Sup3r$ecret", models.RoleUser)
				until := time.Now().Add(30 * time.Minute)
				_, err := tc.DB.Exec("UPDATE users SET failed_login_attempts = 5, locked_until = $2 WHERE id = $1", user.ID, until)
				require.NoError(tc.T, err)
			},
			input: models.LoginRequest{
				Email:    "locked@example.com",
				Password: "Sup3r$ecret",
			},
			wantStatus: http.StatusUnauthorized,
			wantErr:    true,
			errMsg:     "Account locked due to multiple failed login attempts. Try again in 30 minutes.",
		},
		{
			name: "Elapsed Lock Allows Login",
			setupFunc: func(tc *testutil.TestContext) {
				user := tc.CreateTestUser("unlocked@example.com", "Sup3r$ecret", models.RoleUser)
				until := time.Now().Add(-time.Minute)
				_, err := tc.DB.Exec("UPDATE users SET failed_login_attempts = 5, locked_until = $2 WHERE id = $1", user.ID, until)
				require.NoError(tc.T, err)
			},
			input: models.LoginRequest{
				Email:    "unlocked@example.com",
				Password: "Sup3r$ecret",
			},
			wantStatus: http.StatusOK,
		},
		{
			name:      "Missing Email",
			setupFunc: nil,
			input: models.LoginRequest{
				Password: "Sup3r$ecret",
			},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errMsg:     "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := testutil.NewTestContext(t)

			if tt.setupFunc != nil {
				tt.setupFunc(tc)
			}

			router := gin.New()
			router.POST("/login", tc.AuthHandler.Login)

			w := postJSON(t, router, "/login", tt.input, nil)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantErr {
				var resp models.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				require.Equal(t, tt.errMsg, resp.Error)
			} else {
				var resp models.AuthResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				require.NotEmpty(t, resp.AccessToken)
				require.NotEmpty(t, resp.RefreshToken)
				require.NotNil(t, resp.User)

				claims, err := tc.AuthService.ValidateToken(resp.AccessToken)
				require.NoError(t, err)
				require.Equal(t, resp.User.ID, claims.UserID)
			}
		})
	}
}

func TestAuthHandler_Login_LockoutProgression(t *testing.T) {
	tc := testutil.NewTestContext(t)
	user := tc.CreateTestUser("victim@example.com", "Sup3r$ecret", models.RoleUser)

	router := gin.New()
	router.POST("/login", tc.AuthHandler.Login)

	attempt := func(password string) (*httptest.ResponseRecorder, models.ErrorResponse) {
		w := postJSON(t, router, "/login", models.LoginRequest{
			Email:    "victim@example.com",
			Password: password,
		}, nil)
		var resp models.ErrorResponse
		if w.Code != http.StatusOK {
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		}
		return w, resp
	}

	// Four failures count down the remaining attempts
	for i := 1; i <= 4; i++ {
		w, resp := attempt("wrong-password")
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, fmt.Sprintf("Invalid email or password. %d attempts remaining before account lock.", 5-i), resp.Error)
	}

	// The fifth failure locks the account and notifies the user
	w, resp := attempt("wrong-password")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Account locked due to multiple failed login attempts. Try again in 30 minutes.", resp.Error)
	require.Len(t, tc.EmailSender.ByKind("locked"), 1)

	loaded, err := tc.UserRepo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, loaded.IsLocked(time.Now()))
	require.Equal(t, 5, loaded.FailedLoginAttempts)

	// While locked even the correct password is rejected
	w, resp = attempt("Sup3r$ecret")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, resp.Error, "Account locked due to multiple failed login attempts.")

	// Attempts while locked are recorded with the lock reason, the
	// triggering failures with the password reason
	entries, _, err := tc.HistoryRepo.List(context.Background(), repositoryFilterFor(user.ID))
	require.NoError(t, err)
	require.Len(t, entries, 6)
	require.Equal(t, models.FailReasonAccountLocked, *entries[0].FailReason)
	require.Equal(t, models.FailReasonInvalidPassword, *entries[1].FailReason)
}

func TestAuthHandler_Login_SuccessResetsCounter(t *testing.T) {
	tc := testutil.NewTestContext(t)
	user := tc.CreateTestUser("reset@example.com", "Sup3r$ecret", models.RoleUser)

	router := gin.New()
	router.POST("/login", tc.AuthHandler.Login)

	for i := 0; i < 3; i++ {
		w := postJSON(t, router, "/login", models.LoginRequest{
			Email:    "reset@example.com",
			Password: "wrong-password",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := postJSON(t, router, "/login", models.LoginRequest{
		Email:    "reset@example.com",
		Password: "Sup3r$ecret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	loaded, err := tc.UserRepo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 0, loaded.FailedLoginAttempts)
	require.Nil(t, loaded.LockedUntil)
	require.NotNil(t, loaded.LastLoginAt)
	require.NotNil(t, loaded.LastLoginIP)
}

func TestAuthHandler_Register(t *testing.T) {
	adminRole := models.RoleAdmin

	tests := []struct {
		name       string
		asAdmin    bool
		input      models.RegisterRequest
		wantStatus int
		errMsg     string
	}{
		{
			name: "Success",
			input: models.RegisterRequest{
				Email:     "new@example.com",
				Password:  "Sup3r$ecret",
				FirstName: "New",
				LastName:  "User",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "Weak Password",
			input: models.RegisterRequest{
				Email:     "weak@example.com",
				Password:  "alllowercase1!",
				FirstName: "Weak",
				LastName:  "Password",
			},
			wantStatus: http.StatusBadRequest,
			errMsg:     "password must contain at least one uppercase letter",
		},
		{
			name: "Elevated Role Without Admin",
			input: models.RegisterRequest{
				Email:     "sneaky@example.com",
				Password:  "Sup3r$ecret",
				FirstName: "Sneaky",
				LastName:  "User",
				Role:      &adminRole,
			},
			wantStatus: http.StatusForbidden,
			errMsg:     "only administrators can assign elevated roles",
		},
		{
			name:    "Elevated Role With Admin",
			asAdmin: true,
			input: models.RegisterRequest{
				Email:     "manager@example.com",
				Password:  "Sup3r$ecret",
				FirstName: "Made",
				LastName:  "Manager",
				Role:      &adminRole,
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := testutil.NewTestContext(t)

			headers := map[string]string{}
			if tt.asAdmin {
				admin := tc.CreateTestUser("boss@example.com", "Sup3r$ecret", models.RoleSuperAdmin)
				headers["Authorization"] = "Bearer " + tc.GetTestJWT(admin.ID)
			}

			router := newAuthTestRouter(tc)

			w := postJSON(t, router, "/api/v1/auth/register", tt.input, headers)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.errMsg != "" {
				var resp models.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				require.Contains(t, resp.Error, tt.errMsg)
				return
			}

			var resp models.AuthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			require.NotEmpty(t, resp.AccessToken)
			require.Equal(t, tt.input.Email, resp.User.Email)
			require.False(t, resp.User.IsEmailVerified)

			// Registration queues a verification mail
			require.Len(t, tc.EmailSender.ByKind("verification"), 1)
		})
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	tc := testutil.NewTestContext(t)
	tc.CreateTestUser("taken@example.com", "Sup3r$ecret", models.RoleUser)

	router := gin.New()
	router.POST("/register", tc.AuthHandler.Register)

	w := postJSON(t, router, "/register", models.RegisterRequest{
		Email:     "taken@example.com",
		Password:  "An0ther$ecret",
		FirstName: "Dup",
		LastName:  "User",
	}, nil)

	require.Equal(t, http.StatusConflict, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, "email already registered", resp.Error)
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		tc := testutil.NewTestContext(t)
		user := tc.CreateTestUser("refresh@example.com", "Sup3r$ecret", models.RoleUser)
		_, refresh := tc.IssueTestPair(user.ID)

		router := gin.New()
		router.POST("/refresh", tc.AuthHandler.Refresh)

		w := postJSON(t, router, "/refresh", models.RefreshRequest{RefreshToken: refresh}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.RefreshResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

		claims, err := tc.AuthService.ValidateToken(resp.AccessToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.UserID)
	})

	t.Run("Unknown Token", func(t *testing.T) {
		tc := testutil.NewTestContext(t)

		router := gin.New()
		router.POST("/refresh", tc.AuthHandler.Refresh)

		w := postJSON(t, router, "/refresh", models.RefreshRequest{RefreshToken: "not-a-session"}, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Expired Session Is Deleted", func(t *testing.T) {
		tc := testutil.NewTestContext(t)
		user := tc.CreateTestUser("expired@example.com", "Sup3r$ecret", models.RoleUser)

		session, err := tc.SessionRepo.Create(context.Background(), user.ID, "stale-token", time.Now().Add(-time.Hour))
		require.NoError(t, err)

		router := gin.New()
		router.POST("/refresh", tc.AuthHandler.Refresh)

		w := postJSON(t, router, "/refresh", models.RefreshRequest{RefreshToken: "stale-token"}, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		// The expired row is gone, so the next attempt fails as unknown
		_, err = tc.SessionRepo.GetByID(context.Background(), session.ID)
		require.Error(t, err)
	})

	t.Run("Deactivated User", func(t *testing.T) {
		tc := testutil.NewTestContext(t)
		user := tc.CreateTestUser("gone@example.com", "Sup3r$ecret", models.RoleUser)
		_, refresh := tc.IssueTestPair(user.ID)

		err := tc.UserRepo.UpdateStatus(context.Background(), user.ID, false)
		require.NoError(t, err)

		router := gin.New()
		router.POST("/refresh", tc.AuthHandler.Refresh)

		w := postJSON(t, router, "/refresh", models.RefreshRequest{RefreshToken: refresh}, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_LoginLogoutFlow(t *testing.T) {
	tc := testutil.NewTestContext(t)
	tc.CreateTestUser("flow@example.com", "Sup3r$ecret", models.RoleUser)

	router := newAuthTestRouter(tc)

	// Login
	w := postJSON(t, router, "/api/v1/auth/login", models.LoginRequest{
		Email:    "flow@example.com",
		Password: "Sup3r$ecret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var authResp models.AuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&authResp))

	// Me with the fresh access token
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+authResp.AccessToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var me models.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&me))
	require.Equal(t, "flow@example.com", me.Email)

	// Logout revokes the session
	w = postJSON(t, router, "/api/v1/auth/logout", models.LogoutRequest{
		RefreshToken: authResp.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The refresh token no longer works
	w = postJSON(t, router, "/api/v1/auth/refresh", models.RefreshRequest{
		RefreshToken: authResp.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Double logout reports an invalid token
	w = postJSON(t, router, "/api/v1/auth/logout", models.LogoutRequest{
		RefreshToken: authResp.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

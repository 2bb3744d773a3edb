// Package config loads application configuration from the environment
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// API contains API server configuration
	API APIConfig
	// Auth contains authentication configuration
	Auth AuthConfig
	// Database contains database configuration
	Database DatabaseConfig
	// Email contains email service configuration
	Email EmailConfig
	// RateLimit contains rate limiting configuration
	RateLimit RateLimitConfig
	// Redis contains the optional shared-counter store configuration
	Redis RedisConfig
	// Maintenance contains periodic cleanup configuration
	Maintenance MaintenanceConfig
}

// APIConfig contains API server settings
type APIConfig struct {
	// Port is the server port to listen on
	Port string
	// Production disables debug detail in error responses
	Production bool
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	// JWTSecret is the secret key used to sign tokens
	JWTSecret string
	// AccessTokenDuration is the lifetime of access tokens
	AccessTokenDuration time.Duration
	// RefreshTokenDuration is the lifetime of refresh tokens and sessions
	RefreshTokenDuration time.Duration
	// MaxFailedAttempts is the failed-login threshold before lockout
	MaxFailedAttempts int
	// LockoutDuration is how long an account stays locked
	LockoutDuration time.Duration
	// ResetTokenTTL is the lifetime of password reset tokens
	ResetTokenTTL time.Duration
	// VerifyTokenTTL is the lifetime of email verification tokens
	VerifyTokenTTL time.Duration
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname
	Host string
	// Port is the database server port
	Port int
	// User is the database username
	User string
	// Password is the database password
	Password string
	// DBName is the database name
	DBName string
	// SSLMode is the SSL mode for the database connection
	SSLMode string
	// MigrationsPath is the path to database migrations
	MigrationsPath string
}

// EmailConfig contains email service settings
type EmailConfig struct {
	// SMTPHost is the SMTP server hostname
	SMTPHost string
	// SMTPPort is the SMTP server port
	SMTPPort int
	// SMTPUsername is the SMTP authentication username
	SMTPUsername string
	// SMTPPassword is the SMTP authentication password
	SMTPPassword string
	// FromAddress is the email address used as sender
	FromAddress string
	// AppURL is the base URL of the application, used in links
	AppURL string
}

// RateLimitConfig contains rate limiting settings. Global settings drive the
// token-bucket limiter over the whole API; the per-route windows drive the
// fixed-window limiters on the sensitive auth endpoints.
type RateLimitConfig struct {
	Requests int // global requests allowed per window
	Window   int // global window in seconds
	Burst    int // global burst size

	LoginMax           int           // login attempts per window per IP
	LoginWindow        time.Duration // login window
	ResetRequestMax    int           // password reset requests per window per IP
	ResetRequestWindow time.Duration // reset request window
	VerifySendMax      int           // verification sends per window per user
	VerifySendWindow   time.Duration // verification send window
}

// RedisConfig contains the optional Redis settings for multi-instance
// rate limit counters. When Addr is empty the in-process limiter is used.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MaintenanceConfig contains the periodic cleanup settings
type MaintenanceConfig struct {
	// Enabled turns on the in-process cron scheduler
	Enabled bool
	// Schedule is the cron expression for both cleanup jobs
	Schedule string
	// HistoryRetentionDays is how long login history rows are kept
	HistoryRetentionDays int
}

// LoadFromEnv retrieves configuration from environment variables
func (c *Config) LoadFromEnv() error {
	c.API = APIConfig{
		Port:       getEnvOrDefault("API_PORT", "8080"),
		Production: getEnvAsBool("PRODUCTION", false),
	}
	c.Database = DatabaseConfig{
		Host:           getEnvOrDefault("DB_HOST", "localhost"),
		Port:           getEnvAsInt("DB_PORT", 5432),
		User:           getEnvOrDefault("DB_USER", "postgres"),
		Password:       getEnvOrDefault("DB_PASSWORD", "postgres"),
		DBName:         getEnvOrDefault("DB_NAME", "docvault"),
		SSLMode:        getEnvOrDefault("DB_SSL_MODE", "disable"),
		MigrationsPath: getEnvOrDefault("DB_MIGRATIONS_PATH", "migrations"),
	}
	c.Auth = AuthConfig{
		JWTSecret:            os.Getenv("JWT_SECRET"),
		AccessTokenDuration:  getEnvAsDuration("ACCESS_TOKEN_DURATION", 7*24*time.Hour),
		RefreshTokenDuration: getEnvAsDuration("REFRESH_TOKEN_DURATION", 30*24*time.Hour),
		MaxFailedAttempts:    getEnvAsInt("MAX_FAILED_ATTEMPTS", 5),
		LockoutDuration:      getEnvAsDuration("LOCKOUT_DURATION", 30*time.Minute),
		ResetTokenTTL:        getEnvAsDuration("RESET_TOKEN_TTL", time.Hour),
		VerifyTokenTTL:       getEnvAsDuration("VERIFY_TOKEN_TTL", 24*time.Hour),
	}
	c.Email = EmailConfig{
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		FromAddress:  os.Getenv("SMTP_FROM"),
		AppURL:       getEnvOrDefault("APP_URL", "http://localhost:8080"),
	}
	c.RateLimit = RateLimitConfig{
		Requests:           getEnvAsInt("RATE_LIMIT_REQUESTS", 1000),
		Window:             getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		Burst:              getEnvAsInt("RATE_LIMIT_BURST", 50),
		LoginMax:           getEnvAsInt("LOGIN_RATE_MAX", 5),
		LoginWindow:        getEnvAsDuration("LOGIN_RATE_WINDOW", 15*time.Minute),
		ResetRequestMax:    getEnvAsInt("RESET_RATE_MAX", 3),
		ResetRequestWindow: getEnvAsDuration("RESET_RATE_WINDOW", time.Hour),
		VerifySendMax:      getEnvAsInt("VERIFY_RATE_MAX", 5),
		VerifySendWindow:   getEnvAsDuration("VERIFY_RATE_WINDOW", time.Hour),
	}
	c.Redis = RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvAsInt("REDIS_DB", 0),
	}
	c.Maintenance = MaintenanceConfig{
		Enabled:              getEnvAsBool("MAINTENANCE_ENABLED", false),
		Schedule:             getEnvOrDefault("MAINTENANCE_SCHEDULE", "0 3 * * *"),
		HistoryRetentionDays: getEnvAsInt("HISTORY_RETENTION_DAYS", 90),
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	return nil
}

// getEnvAsInt retrieves an environment variable and converts it to an integer
func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvAsBool retrieves an environment variable and converts it to a boolean
func getEnvAsBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvAsDuration retrieves an environment variable and parses it as a duration
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvOrDefault(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"docvault/internal/models"
	"docvault/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `
	id, email, password, first_name, last_name, role,
	is_active, is_email_verified, failed_login_attempts, locked_until,
	last_login_at, last_login_ip,
	password_reset_token, password_reset_expiry,
	email_verification_token, email_verification_expiry,
	must_change_password, created_at, updated_at`

type userRepository struct {
	repository.BaseRepository
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsActive,
		&user.IsEmailVerified,
		&user.FailedLoginAttempts,
		&user.LockedUntil,
		&user.LastLoginAt,
		&user.LastLoginIP,
		&user.PasswordResetToken,
		&user.PasswordResetExpiry,
		&user.EmailVerificationToken,
		&user.EmailVerificationExpiry,
		&user.MustChangePassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			id, email, password, first_name, last_name, role,
			is_active, is_email_verified, must_change_password,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10
		)
		RETURNING created_at, updated_at`

	now := time.Now()
	user.ID = uuid.New()

	err := r.DB().QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.Password,
		user.FirstName,
		user.LastName,
		user.Role,
		user.IsActive,
		user.IsEmailVerified,
		user.MustChangePassword,
		now,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return repository.ErrEmailExists
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB().QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.DB().QueryRowContext(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]models.User, error) {
	conditions := make([]string, 0)
	args := make([]interface{}, 0)
	argCount := 1

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
			argCount, argCount, argCount))
		args = append(args, "%"+*filter.Search+"%")
		argCount++
	}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argCount))
		args = append(args, *filter.Role)
		argCount++
	}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argCount))
		args = append(args, *filter.IsActive)
		argCount++
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if filter.OrderBy != "" {
		query += fmt.Sprintf(" ORDER BY %s", filter.OrderBy)
		if filter.OrderDesc {
			query += " DESC"
		} else {
			query += " ASC"
		}
	} else {
		query += " ORDER BY email ASC"
	}

	if filter.Limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, *filter.Limit)
		argCount++
	}

	if filter.Offset != nil {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, *filter.Offset)
	}

	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	return r.exec(ctx, `
		UPDATE users
		SET role = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`,
		role, id)
}

func (r *userRepository) UpdateStatus(ctx context.Context, id uuid.UUID, active bool) error {
	return r.exec(ctx, `
		UPDATE users
		SET is_active = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`,
		active, id)
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Hard delete; sessions, login history and password history cascade.
	return r.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *userRepository) IncrementFailedAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING failed_login_attempts`

	var attempts int
	err := r.DB().QueryRowContext(ctx, query, id).Scan(&attempts)
	if err == sql.ErrNoRows {
		return 0, repository.ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *userRepository) LockAccount(ctx context.Context, id uuid.UUID, until time.Time) error {
	return r.exec(ctx, `
		UPDATE users
		SET locked_until = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`,
		until, id)
}

func (r *userRepository) ResetFailedAttempts(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `
		UPDATE users
		SET failed_login_attempts = 0,
		    locked_until = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		id)
}

func (r *userRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, ip string) error {
	return r.exec(ctx, `
		UPDATE users
		SET last_login_at = $1, last_login_ip = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`,
		at, ip, id)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	return r.exec(ctx, `
		UPDATE users
		SET password = $1,
		    must_change_password = FALSE,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`,
		hashedPassword, id)
}

func (r *userRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	// Overwrites any previous token; only one reset token is active per user.
	return r.exec(ctx, `
		UPDATE users
		SET password_reset_token = $1,
		    password_reset_expiry = $2,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`,
		token, expiry, id)
}

func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE password_reset_token = $1
		  AND password_reset_expiry > CURRENT_TIMESTAMP`

	user, err := scanUser(r.DB().QueryRowContext(ctx, query, token))
	if err == repository.ErrUserNotFound {
		return nil, repository.ErrTokenInvalid
	}
	return user, err
}

func (r *userRepository) CompletePasswordReset(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	return r.Transaction(ctx, func(tx *sql.Tx) error {
		// Archive the current hash before replacing it.
		_, err := tx.ExecContext(ctx, `
			INSERT INTO password_history (id, user_id, password_hash)
			SELECT $1, id, password FROM users WHERE id = $2`,
			uuid.New(), id)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE users
			SET password = $1,
			    password_reset_token = NULL,
			    password_reset_expiry = NULL,
			    failed_login_attempts = 0,
			    locked_until = NULL,
			    updated_at = CURRENT_TIMESTAMP
			WHERE id = $2`,
			hashedPassword, id)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return repository.ErrUserNotFound
		}

		return nil
	})
}

func (r *userRepository) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	return r.exec(ctx, `
		UPDATE users
		SET email_verification_token = $1,
		    email_verification_expiry = $2,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`,
		token, expiry, id)
}

func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE email_verification_token = $1
		  AND email_verification_expiry > CURRENT_TIMESTAMP`

	user, err := scanUser(r.DB().QueryRowContext(ctx, query, token))
	if err == repository.ErrUserNotFound {
		return nil, repository.ErrTokenInvalid
	}
	return user, err
}

func (r *userRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `
		UPDATE users
		SET is_email_verified = TRUE,
		    email_verification_token = NULL,
		    email_verification_expiry = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		id)
}

// exec runs a single-row UPDATE/DELETE and maps zero affected rows to
// ErrUserNotFound.
func (r *userRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

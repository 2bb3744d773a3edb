package postgres

import (
	"context"
	"database/sql"
	"docvault/internal/models"
	"docvault/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type passwordHistoryRepository struct {
	repository.BaseRepository
}

// NewPasswordHistoryRepository creates a new PostgreSQL password history repository
func NewPasswordHistoryRepository(db *sql.DB) repository.PasswordHistoryRepository {
	return &passwordHistoryRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *passwordHistoryRepository) Add(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `
		INSERT INTO password_history (id, user_id, password_hash)
		VALUES ($1, $2, $3)`

	_, err := r.DB().ExecContext(ctx, query, uuid.New(), userID, passwordHash)
	return err
}

func (r *passwordHistoryRepository) CheckReuse(ctx context.Context, userID uuid.UUID, newPassword string) error {
	// Only the most recent entries count; older passwords may be reused.
	query := `
		SELECT password_hash FROM password_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.DB().QueryContext(ctx, query, userID, models.PasswordHistoryDepth)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(newPassword)); err == nil {
			return repository.ErrPasswordReuse
		}
	}

	return rows.Err()
}

func (r *passwordHistoryRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.PasswordHistory, error) {
	query := `
		SELECT id, user_id, password_hash, created_at
		FROM password_history
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.DB().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var histories []models.PasswordHistory
	for rows.Next() {
		var h models.PasswordHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.PasswordHash, &h.CreatedAt); err != nil {
			return nil, err
		}
		histories = append(histories, h)
	}

	return histories, rows.Err()
}

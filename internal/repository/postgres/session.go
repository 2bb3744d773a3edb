package postgres

import (
	"context"
	"database/sql"
	"time"
	"docvault/internal/models"
	"docvault/internal/repository"

	"github.com/google/uuid"
)

type sessionRepository struct {
	repository.BaseRepository
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *sessionRepository) Create(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*models.Session, error) {
	session := &models.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}

	query := `
		INSERT INTO sessions (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING created_at`

	err := r.DB().QueryRowContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt,
	).Scan(&session.CreatedAt)

	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM sessions
		WHERE id = $1`

	return r.scanSession(r.DB().QueryRowContext(ctx, query, id))
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM sessions
		WHERE token = $1`

	return r.scanSession(r.DB().QueryRowContext(ctx, query, token))
}

func (r *sessionRepository) scanSession(row *sql.Row) (*models.Session, error) {
	session := &models.Session{}
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM sessions
		WHERE user_id = $1 AND expires_at > CURRENT_TIMESTAMP
		ORDER BY created_at DESC`

	rows, err := r.DB().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func (r *sessionRepository) ListAll(ctx context.Context) ([]models.SessionWithUser, error) {
	query := `
		SELECT s.id, s.user_id, s.token, s.expires_at, s.created_at,
		       u.email, u.first_name, u.last_name
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.expires_at > CURRENT_TIMESTAMP
		ORDER BY s.created_at DESC`

	rows, err := r.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.SessionWithUser
	for rows.Next() {
		var s models.SessionWithUser
		err := rows.Scan(
			&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt,
			&s.UserEmail, &s.UserFirstName, &s.UserLastName,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.deleteOne(ctx, `DELETE FROM sessions WHERE id = $1`, id)
}

func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.deleteOne(ctx, `DELETE FROM sessions WHERE token = $1`, token)
}

func (r *sessionRepository) deleteOne(ctx context.Context, query string, arg interface{}) error {
	result, err := r.DB().ExecContext(ctx, query, arg)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

func (r *sessionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID, exceptToken *string) (int, error) {
	var result sql.Result
	var err error

	if exceptToken != nil {
		result, err = r.DB().ExecContext(ctx,
			`DELETE FROM sessions WHERE user_id = $1 AND token != $2`,
			userID, *exceptToken)
	} else {
		result, err = r.DB().ExecContext(ctx,
			`DELETE FROM sessions WHERE user_id = $1`,
			userID)
	}
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	result, err := r.DB().ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

func (r *sessionRepository) Stats(ctx context.Context) (*models.SessionStats, error) {
	stats := &models.SessionStats{}
	err := r.DB().QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE expires_at > CURRENT_TIMESTAMP),
		       COUNT(*) FILTER (WHERE expires_at <= CURRENT_TIMESTAMP)
		FROM sessions`).Scan(&stats.Total, &stats.Active, &stats.Expired)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

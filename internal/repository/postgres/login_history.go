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
)

type loginHistoryRepository struct {
	repository.BaseRepository
}

// NewLoginHistoryRepository creates a new PostgreSQL login history repository
func NewLoginHistoryRepository(db *sql.DB) repository.LoginHistoryRepository {
	return &loginHistoryRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *loginHistoryRepository) Create(ctx context.Context, entry *models.LoginHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO login_history (id, user_id, ip_address, user_agent, success, fail_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING created_at`

	return r.DB().QueryRowContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.IPAddress,
		entry.UserAgent,
		entry.Success,
		entry.FailReason,
	).Scan(&entry.CreatedAt)
}

func buildHistoryConditions(filter repository.LoginHistoryFilter) ([]string, []interface{}) {
	conditions := make([]string, 0)
	args := make([]interface{}, 0)
	argCount := 1

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("h.user_id = $%d", argCount))
		args = append(args, *filter.UserID)
		argCount++
	}

	if filter.Success != nil {
		conditions = append(conditions, fmt.Sprintf("h.success = $%d", argCount))
		args = append(args, *filter.Success)
		argCount++
	}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("h.created_at >= $%d", argCount))
		args = append(args, *filter.StartDate)
		argCount++
	}

	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("h.created_at <= $%d", argCount))
		args = append(args, *filter.EndDate)
	}

	return conditions, args
}

func (r *loginHistoryRepository) List(ctx context.Context, filter repository.LoginHistoryFilter) ([]models.LoginHistoryWithUser, int, error) {
	conditions, args := buildHistoryConditions(filter)

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM login_history h" + where
	if err := r.DB().QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	query := `
		SELECT h.id, h.user_id, h.ip_address, h.user_agent, h.success, h.fail_reason, h.created_at,
		       u.email, u.first_name, u.last_name
		FROM login_history h
		JOIN users u ON h.user_id = u.id` + where + fmt.Sprintf(`
		ORDER BY h.created_at DESC
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	args = append(args, limit, (page-1)*limit)

	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []models.LoginHistoryWithUser
	for rows.Next() {
		var e models.LoginHistoryWithUser
		err := rows.Scan(
			&e.ID, &e.UserID, &e.IPAddress, &e.UserAgent, &e.Success, &e.FailReason, &e.CreatedAt,
			&e.UserEmail, &e.UserFirstName, &e.UserLastName,
		)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}

	return entries, total, rows.Err()
}

func (r *loginHistoryRepository) Stats(ctx context.Context, userID *uuid.UUID) (*models.LoginStats, error) {
	where := ""
	args := []interface{}{}
	if userID != nil {
		where = " WHERE user_id = $1"
		args = append(args, *userID)
	}

	stats := &models.LoginStats{}
	var successful, failed, recent int

	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE success),
		       COUNT(*) FILTER (WHERE NOT success),
		       COUNT(*) FILTER (WHERE success AND created_at >= CURRENT_TIMESTAMP - INTERVAL '7 days')
		FROM login_history` + where

	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&stats.Total, &successful, &failed, &recent)
	if err != nil {
		return nil, err
	}

	stats.Successful = successful
	stats.Failed = failed
	stats.RecentLogins = recent
	if stats.Total > 0 {
		stats.SuccessRate = fmt.Sprintf("%.2f", float64(successful)/float64(stats.Total)*100)
	} else {
		stats.SuccessRate = "0"
	}

	return stats, nil
}

func (r *loginHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.DB().ExecContext(ctx,
		`DELETE FROM login_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

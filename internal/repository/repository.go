package repository

import (
	"context"
	"database/sql"
)

// Repository represents the base repository interface
type Repository interface {
	// Transaction executes operations within a database transaction
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
	DB() *sql.DB
}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sql.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sql.DB) BaseRepository {
	return BaseRepository{db: db}
}

// DB returns the database connection
func (r *BaseRepository) DB() *sql.DB {
	return r.db
}

// Transaction runs fn inside a database transaction, rolling back when fn
// returns an error. fn must issue its statements through the passed tx.
func (r *BaseRepository) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

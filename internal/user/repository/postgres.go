package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/user/domain"
)

const (
	selectUser = `SELECT id, email, name, created_at FROM users`
	userExists = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
	insertUser = `INSERT INTO users (id, email, name, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`
)

type PostgresRepository struct {
	conn db.DBTX
}

// NewPostgresRepository returns a user repository over conn.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// WithTx returns a repository bound to tx.
func (r *PostgresRepository) WithTx(tx *sql.Tx) *PostgresRepository {
	return &PostgresRepository{conn: tx}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

// GetByEmail returns the user for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

// Exists reports whether a user with id exists.
func (r *PostgresRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.conn.QueryRowContext(ctx, userExists, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("user exists: %w", db.Classify(err))
	}
	return ok, nil
}

// Create inserts u. An existing id is left untouched.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if _, err := r.conn.ExecContext(ctx, insertUser, u.ID, u.Email, u.Name, u.CreatedAt); err != nil {
		return fmt.Errorf("create user: %w", db.Classify(err))
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var u domain.User
	err := r.conn.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", db.Classify(err))
	}
	return &u, nil
}

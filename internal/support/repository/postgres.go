package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/support/domain"
)

const (
	selectSupport = `SELECT id, artist_id, supporter_id, amount_cents, type, message, is_anonymous, status, created_at FROM artist_support`
	insertSupport = `INSERT INTO artist_support (id, artist_id, supporter_id, amount_cents, type, message, is_anonymous, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	getParties = `SELECT s.artist_id, a.user_id, s.supporter_id FROM artist_support s JOIN artist_profiles a ON a.id = s.artist_id WHERE s.id = $1`
)

type PostgresRepository struct {
	conn db.DBTX
}

// NewPostgresRepository returns a support repository over conn.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// Create persists t. The transaction must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Transaction) error {
	_, err := r.conn.ExecContext(ctx, insertSupport,
		t.ID, t.ArtistID, t.SupporterID, t.AmountCents, string(t.Type), t.Message, t.IsAnonymous, t.Status, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create support: %w", db.Classify(err))
	}
	return nil
}

// GetByID returns the pledge for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := scanTransaction(r.conn.QueryRowContext(ctx, selectSupport+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get support: %w", db.Classify(err))
	}
	return t, nil
}

// GetParties returns the supporter and the supported artist of pledge id, or nil if not found.
func (r *PostgresRepository) GetParties(ctx context.Context, id string) (*domain.Parties, error) {
	var p domain.Parties
	if err := r.conn.QueryRowContext(ctx, getParties, id).Scan(&p.ArtistID, &p.ArtistUserID, &p.SupporterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get support parties: %w", db.Classify(err))
	}
	return &p, nil
}

// ListByArtist returns the artist's pledges, newest first.
func (r *PostgresRepository) ListByArtist(ctx context.Context, artistID string) ([]*domain.Transaction, error) {
	rows, err := r.conn.QueryContext(ctx, selectSupport+` WHERE artist_id = $1 ORDER BY created_at DESC`, artistID)
	if err != nil {
		return nil, fmt.Errorf("list support: %w", db.Classify(err))
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, db.Classify(rows.Err())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var (
		t   domain.Transaction
		typ string
	)
	if err := s.Scan(&t.ID, &t.ArtistID, &t.SupporterID, &t.AmountCents, &typ, &t.Message, &t.IsAnonymous, &t.Status, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Type = domain.Type(typ)
	return &t, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/product/domain"
)

const (
	selectProduct   = `SELECT id, artist_id, name, price_cents, is_active, created_at FROM products`
	getProductOwner = `SELECT p.artist_id, a.user_id FROM products p JOIN artist_profiles a ON a.id = p.artist_id WHERE p.id = $1`
	insertProduct   = `INSERT INTO products (id, artist_id, name, price_cents, is_active, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	softDelete      = `UPDATE products SET is_active = false WHERE id = $1`
)

type PostgresRepository struct {
	conn db.DBTX
}

// NewPostgresRepository returns a product repository over conn.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// GetByID returns the product for id, or nil if not found. Inactive products are returned.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.conn.QueryRowContext(ctx, selectProduct+` WHERE id = $1`, id).
		Scan(&p.ID, &p.ArtistID, &p.Name, &p.PriceCents, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", db.Classify(err))
	}
	return &p, nil
}

// GetOwner resolves the artist profile and user owning product id, or nil if not found.
func (r *PostgresRepository) GetOwner(ctx context.Context, id string) (*domain.Owner, error) {
	var o domain.Owner
	if err := r.conn.QueryRowContext(ctx, getProductOwner, id).Scan(&o.ArtistID, &o.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product owner: %w", db.Classify(err))
	}
	return &o, nil
}

// ListByArtist returns the artist's products, newest first.
func (r *PostgresRepository) ListByArtist(ctx context.Context, artistID string, includeInactive bool) ([]*domain.Product, error) {
	query := selectProduct + ` WHERE artist_id = $1`
	if !includeInactive {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.conn.QueryContext(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", db.Classify(err))
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.ArtistID, &p.Name, &p.PriceCents, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, db.Classify(rows.Err())
}

// Create persists p. The product must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.conn.ExecContext(ctx, insertProduct, p.ID, p.ArtistID, p.Name, p.PriceCents, p.IsActive, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", db.Classify(err))
	}
	return nil
}

// SoftDelete marks the product inactive. It reports false when no product has id.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	res, err := r.conn.ExecContext(ctx, softDelete, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

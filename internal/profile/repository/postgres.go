package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/platform/errs"
	"handicraft-marketplace/backend/internal/profile/domain"
)

const (
	selectArtist = `SELECT id, user_id, bio, specialization, location, contact_phone, is_verified, created_at, updated_at FROM artist_profiles`
	selectAgent  = `SELECT id, user_id, region, contact_phone, is_verified, max_artists, created_at, updated_at FROM agent_profiles`

	insertArtist = `INSERT INTO artist_profiles (id, user_id, bio, specialization, location, contact_phone, is_verified, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (user_id) DO NOTHING`
	insertAgent = `INSERT INTO agent_profiles (id, user_id, region, contact_phone, is_verified, max_artists, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (user_id) DO NOTHING`

	verifyArtist = `UPDATE artist_profiles SET is_verified = $2, updated_at = now() WHERE id = $1`
	verifyAgent  = `UPDATE agent_profiles SET is_verified = $2, updated_at = now() WHERE id = $1`
)

type PostgresRepository struct {
	conn db.DBTX
}

// NewPostgresRepository returns a profile repository over conn.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// WithTx returns a repository bound to tx.
func (r *PostgresRepository) WithTx(tx *sql.Tx) *PostgresRepository {
	return &PostgresRepository{conn: tx}
}

// GetArtistByID returns the artist profile for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetArtistByID(ctx context.Context, id string) (*domain.ArtistProfile, error) {
	return r.artist(ctx, selectArtist+` WHERE id = $1`, id)
}

// GetArtistByUserID returns the artist profile of userID, or nil if the user has none.
func (r *PostgresRepository) GetArtistByUserID(ctx context.Context, userID string) (*domain.ArtistProfile, error) {
	return r.artist(ctx, selectArtist+` WHERE user_id = $1`, userID)
}

// GetAgentByID returns the agent profile for id, or nil if not found.
func (r *PostgresRepository) GetAgentByID(ctx context.Context, id string) (*domain.AgentProfile, error) {
	return r.agent(ctx, selectAgent+` WHERE id = $1`, id)
}

// GetAgentByUserID returns the agent profile of userID, or nil if the user has none.
func (r *PostgresRepository) GetAgentByUserID(ctx context.Context, userID string) (*domain.AgentProfile, error) {
	return r.agent(ctx, selectAgent+` WHERE user_id = $1`, userID)
}

// LockArtist reads the artist profile FOR UPDATE.
func (r *PostgresRepository) LockArtist(ctx context.Context, id string) (*domain.ArtistProfile, error) {
	return r.artist(ctx, selectArtist+` WHERE id = $1 FOR UPDATE`, id)
}

// LockAgent reads the agent profile FOR UPDATE. Concurrent assignments to the same agent serialize on this lock.
func (r *PostgresRepository) LockAgent(ctx context.Context, id string) (*domain.AgentProfile, error) {
	return r.agent(ctx, selectAgent+` WHERE id = $1 FOR UPDATE`, id)
}

// CreateArtistIfAbsent inserts p unless the user already has an artist profile.
func (r *PostgresRepository) CreateArtistIfAbsent(ctx context.Context, p *domain.ArtistProfile) error {
	_, err := r.conn.ExecContext(ctx, insertArtist,
		p.ID, p.UserID, p.Bio, p.Specialization, p.Location, p.ContactPhone, p.IsVerified, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create artist profile: %w", db.Classify(err))
	}
	return nil
}

// CreateAgentIfAbsent inserts p unless the user already has an agent profile.
func (r *PostgresRepository) CreateAgentIfAbsent(ctx context.Context, p *domain.AgentProfile) error {
	if p.MaxArtists <= 0 {
		return fmt.Errorf("%w: max artists must be positive", errs.ErrInvalidArgument)
	}
	_, err := r.conn.ExecContext(ctx, insertAgent,
		p.ID, p.UserID, p.Region, p.ContactPhone, p.IsVerified, p.MaxArtists, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create agent profile: %w", db.Classify(err))
	}
	return nil
}

// SetVerified updates the verification flag. It reports false when no profile has id.
func (r *PostgresRepository) SetVerified(ctx context.Context, kind domain.Kind, id string, verified bool) (bool, error) {
	query := verifyArtist
	if kind == domain.KindAgent {
		query = verifyAgent
	}
	res, err := r.conn.ExecContext(ctx, query, id, verified)
	if err != nil {
		return false, fmt.Errorf("verify %s profile: %w", kind, db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepository) artist(ctx context.Context, query, arg string) (*domain.ArtistProfile, error) {
	var p domain.ArtistProfile
	err := r.conn.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.UserID, &p.Bio, &p.Specialization, &p.Location, &p.ContactPhone, &p.IsVerified, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get artist profile: %w", db.Classify(err))
	}
	return &p, nil
}

func (r *PostgresRepository) agent(ctx context.Context, query, arg string) (*domain.AgentProfile, error) {
	var p domain.AgentProfile
	err := r.conn.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.UserID, &p.Region, &p.ContactPhone, &p.IsVerified, &p.MaxArtists, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get agent profile: %w", db.Classify(err))
	}
	return &p, nil
}

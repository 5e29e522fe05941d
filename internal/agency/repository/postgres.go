package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"handicraft-marketplace/backend/internal/agency/domain"
	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/platform/errs"
	profiledomain "handicraft-marketplace/backend/internal/profile/domain"
)

// OneActivePerArtist is the partial unique index backing the single-active-relation invariant.
const OneActivePerArtist = "agent_artists_one_active_per_artist"

const (
	selectRelation = `SELECT id, agent_id, artist_id, assigned_by, assigned_at, is_active, deactivated_at FROM agent_artists`

	countActive = `SELECT count(*) FROM agent_artists WHERE agent_id = $1 AND is_active`

	isActive = `SELECT EXISTS (SELECT 1 FROM agent_artists WHERE agent_id = $1 AND artist_id = $2 AND is_active)`

	insertRelation = `INSERT INTO agent_artists (id, agent_id, artist_id, assigned_by, assigned_at, is_active)
VALUES ($1, $2, $3, $4, $5, true)`

	deactivateRelation = `UPDATE agent_artists SET is_active = false, deactivated_at = $3
WHERE agent_id = $1 AND artist_id = $2 AND is_active`

	currentAgent = `SELECT g.id, g.user_id, g.region, g.contact_phone, g.is_verified, g.max_artists, g.created_at, g.updated_at
FROM agent_artists aa JOIN agent_profiles g ON g.id = aa.agent_id
WHERE aa.artist_id = $1 AND aa.is_active`
)

type PostgresRepository struct {
	conn db.DBTX
}

// NewPostgresRepository returns a relation repository over conn.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// WithTx returns a repository bound to tx.
func (r *PostgresRepository) WithTx(tx *sql.Tx) *PostgresRepository {
	return &PostgresRepository{conn: tx}
}

// ActiveForArtist returns the artist's active relation, or nil if there is none.
func (r *PostgresRepository) ActiveForArtist(ctx context.Context, artistID string) (*domain.Relation, error) {
	rel, err := scanRelation(r.conn.QueryRowContext(ctx, selectRelation+` WHERE artist_id = $1 AND is_active`, artistID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("active relation: %w", db.Classify(err))
	}
	return rel, nil
}

// CountActiveForAgent returns how many artists the agent currently manages.
func (r *PostgresRepository) CountActiveForAgent(ctx context.Context, agentID string) (int, error) {
	var n int
	if err := r.conn.QueryRowContext(ctx, countActive, agentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active relations: %w", db.Classify(err))
	}
	return n, nil
}

// Insert stores an active relation. A concurrent active relation for the same artist
// surfaces as errs.ErrAlreadyAssigned.
func (r *PostgresRepository) Insert(ctx context.Context, rel *domain.Relation) error {
	_, err := r.conn.ExecContext(ctx, insertRelation, rel.ID, rel.AgentID, rel.ArtistID, rel.AssignedBy, rel.AssignedAt)
	if err != nil {
		if db.IsUniqueViolation(err, OneActivePerArtist) {
			return fmt.Errorf("artist %s: %w", rel.ArtistID, errs.ErrAlreadyAssigned)
		}
		return fmt.Errorf("insert relation: %w", db.Classify(err))
	}
	return nil
}

// Deactivate closes the active relation between agent and artist. It reports false when none was active.
func (r *PostgresRepository) Deactivate(ctx context.Context, agentID, artistID string, at time.Time) (bool, error) {
	res, err := r.conn.ExecContext(ctx, deactivateRelation, agentID, artistID, at)
	if err != nil {
		return false, fmt.Errorf("deactivate relation: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsActive reports whether agent currently manages artist.
func (r *PostgresRepository) IsActive(ctx context.Context, agentID, artistID string) (bool, error) {
	var ok bool
	if err := r.conn.QueryRowContext(ctx, isActive, agentID, artistID).Scan(&ok); err != nil {
		return false, fmt.Errorf("is active agent: %w", db.Classify(err))
	}
	return ok, nil
}

// CurrentAgent returns the profile of the agent actively managing artist, or nil.
func (r *PostgresRepository) CurrentAgent(ctx context.Context, artistID string) (*profiledomain.AgentProfile, error) {
	var p profiledomain.AgentProfile
	err := r.conn.QueryRowContext(ctx, currentAgent, artistID).Scan(
		&p.ID, &p.UserID, &p.Region, &p.ContactPhone, &p.IsVerified, &p.MaxArtists, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("current agent: %w", db.Classify(err))
	}
	return &p, nil
}

// ListActiveByAgent returns the agent's active relations, oldest first.
func (r *PostgresRepository) ListActiveByAgent(ctx context.Context, agentID string) ([]*domain.Relation, error) {
	return r.list(ctx, selectRelation+` WHERE agent_id = $1 AND is_active ORDER BY assigned_at`, agentID)
}

// ListByArtist returns every relation the artist has had, newest first.
func (r *PostgresRepository) ListByArtist(ctx context.Context, artistID string) ([]*domain.Relation, error) {
	return r.list(ctx, selectRelation+` WHERE artist_id = $1 ORDER BY assigned_at DESC`, artistID)
}

func (r *PostgresRepository) list(ctx context.Context, query, arg string) ([]*domain.Relation, error) {
	rows, err := r.conn.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", db.Classify(err))
	}
	defer rows.Close()

	var out []*domain.Relation
	for rows.Next() {
		rel, err := scanRelation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, db.Classify(rows.Err())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRelation(s scanner) (*domain.Relation, error) {
	var (
		rel         domain.Relation
		deactivated sql.NullTime
	)
	if err := s.Scan(&rel.ID, &rel.AgentID, &rel.ArtistID, &rel.AssignedBy, &rel.AssignedAt, &rel.IsActive, &deactivated); err != nil {
		return nil, err
	}
	if deactivated.Valid {
		t := deactivated.Time
		rel.DeactivatedAt = &t
	}
	return &rel, nil
}

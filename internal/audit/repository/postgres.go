package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"handicraft-marketplace/backend/internal/audit/domain"
	"handicraft-marketplace/backend/internal/db"
)

const (
	selectAuditLog = `SELECT id, actor_id, action, resource, ip, metadata, created_at FROM audit_logs`
	insertAuditLog = `INSERT INTO audit_logs (id, actor_id, action, resource, ip, metadata, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

type PostgresRepository struct {
	conn db.DBTX
}

// NewPostgresRepository returns an audit log repository that uses conn for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// GetByID returns the audit log for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	a, err := scanAuditLog(r.conn.QueryRowContext(ctx, selectAuditLog+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, db.Classify(err)
	}
	return a, nil
}

// ListByActor returns the actor's audit logs, newest first, paginated by limit and offset.
// Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByActor(ctx context.Context, actorID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.conn.QueryContext(ctx, selectAuditLog+` WHERE actor_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, actorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", db.Classify(err))
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		a, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, db.Classify(rows.Err())
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	meta := sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}
	_, err := r.conn.ExecContext(ctx, insertAuditLog, a.ID, a.ActorID, a.Action, a.Resource, a.IP, meta, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create audit log: %w", db.Classify(err))
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAuditLog(s scanner) (*domain.AuditLog, error) {
	var (
		a    domain.AuditLog
		meta sql.NullString
	)
	if err := s.Scan(&a.ID, &a.ActorID, &a.Action, &a.Resource, &a.IP, &meta, &a.CreatedAt); err != nil {
		return nil, err
	}
	if meta.Valid {
		a.Metadata = meta.String
	}
	return &a, nil
}

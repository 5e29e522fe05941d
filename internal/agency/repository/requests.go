package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"handicraft-marketplace/backend/internal/agency/domain"
	"handicraft-marketplace/backend/internal/db"
)

const (
	selectRequest = `SELECT id, artist_id, agent_id, status, location, created_by, created_at, updated_at FROM agent_requests`

	insertRequest = `INSERT INTO agent_requests (id, artist_id, status, location, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	updateRequest = `UPDATE agent_requests SET status = $2, agent_id = $3, updated_at = $4 WHERE id = $1`
)

// InsertRequest stores a new agent request.
func (r *PostgresRepository) InsertRequest(ctx context.Context, req *domain.Request) error {
	_, err := r.conn.ExecContext(ctx, insertRequest,
		req.ID, req.ArtistID, string(req.Status), req.Location, req.CreatedBy, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert agent request: %w", db.Classify(err))
	}
	return nil
}

// GetRequest returns the request, or nil if it does not exist.
func (r *PostgresRepository) GetRequest(ctx context.Context, id string) (*domain.Request, error) {
	return r.request(ctx, selectRequest+` WHERE id = $1`, id)
}

// LockRequest is GetRequest with a row lock; tx-bound repositories only.
func (r *PostgresRepository) LockRequest(ctx context.Context, id string) (*domain.Request, error) {
	return r.request(ctx, selectRequest+` WHERE id = $1 FOR UPDATE`, id)
}

// UpdateRequest persists status, agent and updated_at of req.
func (r *PostgresRepository) UpdateRequest(ctx context.Context, req *domain.Request) error {
	_, err := r.conn.ExecContext(ctx, updateRequest, req.ID, string(req.Status), nullString(req.AgentID), req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update agent request: %w", db.Classify(err))
	}
	return nil
}

// ListRequestsByArtist returns the artist's requests, newest first.
func (r *PostgresRepository) ListRequestsByArtist(ctx context.Context, artistID string) ([]*domain.Request, error) {
	return r.requests(ctx, selectRequest+` WHERE artist_id = $1 ORDER BY created_at DESC`, artistID)
}

// ListPendingRequests returns requests no agent has taken yet, oldest first.
func (r *PostgresRepository) ListPendingRequests(ctx context.Context) ([]*domain.Request, error) {
	return r.requests(ctx, selectRequest+` WHERE status = 'pending' ORDER BY created_at`)
}

func (r *PostgresRepository) request(ctx context.Context, query, id string) (*domain.Request, error) {
	req, err := scanRequest(r.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get agent request: %w", db.Classify(err))
	}
	return req, nil
}

func (r *PostgresRepository) requests(ctx context.Context, query string, args ...any) ([]*domain.Request, error) {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list agent requests: %w", db.Classify(err))
	}
	defer rows.Close()

	var out []*domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, db.Classify(rows.Err())
}

func scanRequest(s scanner) (*domain.Request, error) {
	var (
		req    domain.Request
		agent  sql.NullString
		status string
	)
	if err := s.Scan(&req.ID, &req.ArtistID, &agent, &status, &req.Location, &req.CreatedBy, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	req.AgentID = agent.String
	req.Status = domain.RequestStatus(status)
	return &req, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

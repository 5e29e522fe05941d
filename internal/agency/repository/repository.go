package repository

import (
	"context"
	"time"

	"handicraft-marketplace/backend/internal/agency/domain"
	profiledomain "handicraft-marketplace/backend/internal/profile/domain"
)

// Repository persists agent-artist relations and the agent requests that lead to them.
type Repository interface {
	ActiveForArtist(ctx context.Context, artistID string) (*domain.Relation, error)
	CountActiveForAgent(ctx context.Context, agentID string) (int, error)
	Insert(ctx context.Context, r *domain.Relation) error
	Deactivate(ctx context.Context, agentID, artistID string, at time.Time) (bool, error)
	IsActive(ctx context.Context, agentID, artistID string) (bool, error)
	CurrentAgent(ctx context.Context, artistID string) (*profiledomain.AgentProfile, error)
	ListActiveByAgent(ctx context.Context, agentID string) ([]*domain.Relation, error)
	ListByArtist(ctx context.Context, artistID string) ([]*domain.Relation, error)

	InsertRequest(ctx context.Context, req *domain.Request) error
	GetRequest(ctx context.Context, id string) (*domain.Request, error)
	LockRequest(ctx context.Context, id string) (*domain.Request, error)
	UpdateRequest(ctx context.Context, req *domain.Request) error
	ListRequestsByArtist(ctx context.Context, artistID string) ([]*domain.Request, error)
	ListPendingRequests(ctx context.Context) ([]*domain.Request, error)
}

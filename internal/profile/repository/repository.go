package repository

import (
	"context"

	"handicraft-marketplace/backend/internal/profile/domain"
)

// Repository defines persistence for artist and agent profiles.
// Getters return (nil, nil) for a missing row; the Lock variants take a row lock and must run inside a transaction.
type Repository interface {
	GetArtistByID(ctx context.Context, id string) (*domain.ArtistProfile, error)
	GetArtistByUserID(ctx context.Context, userID string) (*domain.ArtistProfile, error)
	GetAgentByID(ctx context.Context, id string) (*domain.AgentProfile, error)
	GetAgentByUserID(ctx context.Context, userID string) (*domain.AgentProfile, error)
	LockArtist(ctx context.Context, id string) (*domain.ArtistProfile, error)
	LockAgent(ctx context.Context, id string) (*domain.AgentProfile, error)
	CreateArtistIfAbsent(ctx context.Context, p *domain.ArtistProfile) error
	CreateAgentIfAbsent(ctx context.Context, p *domain.AgentProfile) error
	SetVerified(ctx context.Context, kind domain.Kind, id string, verified bool) (bool, error)
}

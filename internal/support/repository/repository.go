package repository

import (
	"context"

	"handicraft-marketplace/backend/internal/support/domain"
)

// Repository persists support pledges.
type Repository interface {
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetParties(ctx context.Context, id string) (*domain.Parties, error)
	ListByArtist(ctx context.Context, artistID string) ([]*domain.Transaction, error)
}

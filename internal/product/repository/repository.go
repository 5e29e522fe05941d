package repository

import (
	"context"

	"handicraft-marketplace/backend/internal/product/domain"
)

// Repository defines persistence for products. Reads include soft-deleted rows.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetOwner(ctx context.Context, id string) (*domain.Owner, error)
	ListByArtist(ctx context.Context, artistID string, includeInactive bool) ([]*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	SoftDelete(ctx context.Context, id string) (bool, error)
}

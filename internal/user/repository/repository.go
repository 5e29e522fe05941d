package repository

import (
	"context"

	"handicraft-marketplace/backend/internal/user/domain"
)

// Repository reads users. The identity service owns writes; Create is for seeding only.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, u *domain.User) error
}

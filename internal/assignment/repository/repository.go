package repository

import (
	"context"

	"handicraft-marketplace/backend/internal/assignment/domain"
	roledomain "handicraft-marketplace/backend/internal/role/domain"
)

// Repository is the user-role ledger.
type Repository interface {
	// LockUser takes a row lock on the user and reports whether the user exists. Must run inside a transaction.
	LockUser(ctx context.Context, userID string) (bool, error)
	// Insert adds the mapping and reports false when it already exists.
	Insert(ctx context.Context, a *domain.Assignment) (bool, error)
	// Delete removes the mapping and reports false when it did not exist.
	Delete(ctx context.Context, userID string, role roledomain.Role) (bool, error)
	// ListRoles returns the user's roles; a user with none gets an empty set.
	ListRoles(ctx context.Context, userID string) (roledomain.RoleSet, error)
	// List returns the user's assignments with audit fields, oldest first.
	List(ctx context.Context, userID string) ([]*domain.Assignment, error)
}

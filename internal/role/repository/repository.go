package repository

import (
	"context"

	"handicraft-marketplace/backend/internal/role/domain"
)

// Repository is the read-only role catalog. Roles are seeded by migration and never mutated at runtime.
type Repository interface {
	// GetByName returns the catalog entry for role, or nil if not found.
	GetByName(ctx context.Context, role domain.Role) (*domain.Definition, error)
	// GetPermissions returns the permissions granted by role. Unknown roles yield errs.ErrNotFound.
	GetPermissions(ctx context.Context, role domain.Role) (domain.PermissionSet, error)
	// PermissionsFor returns the union of the permissions granted by roles.
	PermissionsFor(ctx context.Context, roles domain.RoleSet) (domain.PermissionSet, error)
	// ListRoles returns the whole catalog in name order.
	ListRoles(ctx context.Context) ([]*domain.Definition, error)
}

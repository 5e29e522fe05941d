package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/platform/errs"
	"handicraft-marketplace/backend/internal/role/domain"
)

const (
	getRoleByName = `SELECT id, name, description, permissions FROM roles WHERE name = $1`
	listRoles     = `SELECT id, name, description, permissions FROM roles ORDER BY name`
)

type PostgresRepository struct {
	conn db.DBTX
}

// NewPostgresRepository returns a role repository that reads from conn.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// GetByName returns the catalog entry for role, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByName(ctx context.Context, role domain.Role) (*domain.Definition, error) {
	row := r.conn.QueryRowContext(ctx, getRoleByName, string(role))
	def, err := scanDefinition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, db.Classify(err)
	}
	return def, nil
}

// GetPermissions returns the permission set of role.
func (r *PostgresRepository) GetPermissions(ctx context.Context, role domain.Role) (domain.PermissionSet, error) {
	def, err := r.GetByName(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("get permissions for %s: %w", role, err)
	}
	if def == nil {
		return nil, fmt.Errorf("role %s: %w", role, errs.ErrNotFound)
	}
	return def.Permissions, nil
}

// PermissionsFor reads the catalog once and unions the permissions of roles. Roles absent from the catalog contribute nothing.
func (r *PostgresRepository) PermissionsFor(ctx context.Context, roles domain.RoleSet) (domain.PermissionSet, error) {
	out := domain.NewPermissionSet()
	if len(roles) == 0 {
		return out, nil
	}
	defs, err := r.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		if roles.Has(d.Name) {
			out.Union(d.Permissions)
		}
	}
	return out, nil
}

// ListRoles returns every catalog role. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListRoles(ctx context.Context) ([]*domain.Definition, error) {
	rows, err := r.conn.QueryContext(ctx, listRoles)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", db.Classify(err))
	}
	defer rows.Close()

	var out []*domain.Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roles: %w", db.Classify(err))
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDefinition(s scanner) (*domain.Definition, error) {
	var (
		def      domain.Definition
		name     string
		permsRaw []byte
	)
	if err := s.Scan(&def.ID, &name, &def.Description, &permsRaw); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(name)
	if err != nil {
		return nil, err
	}
	def.Name = role

	var perms []string
	if len(permsRaw) > 0 {
		if err := json.Unmarshal(permsRaw, &perms); err != nil {
			return nil, fmt.Errorf("decode permissions for %s: %w", name, err)
		}
	}
	def.Permissions = domain.NewPermissionSet()
	for _, p := range perms {
		def.Permissions[domain.Permission(p)] = struct{}{}
	}
	return &def, nil
}

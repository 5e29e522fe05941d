package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"handicraft-marketplace/backend/internal/assignment/domain"
	"handicraft-marketplace/backend/internal/db"
	roledomain "handicraft-marketplace/backend/internal/role/domain"
)

const (
	lockUser = `SELECT id FROM users WHERE id = $1 FOR UPDATE`

	insertAssignment = `INSERT INTO user_roles (user_id, role_id, assigned_at, assigned_by)
SELECT $1, r.id, $3, $4 FROM roles r WHERE r.name = $2
ON CONFLICT (user_id, role_id) DO NOTHING`

	deleteAssignment = `DELETE FROM user_roles WHERE user_id = $1 AND role_id = (SELECT id FROM roles WHERE name = $2)`

	listUserRoles = `SELECT r.name FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = $1`

	listAssignments = `SELECT ur.user_id, r.name, ur.assigned_at, ur.assigned_by
FROM user_roles ur JOIN roles r ON r.id = ur.role_id
WHERE ur.user_id = $1 ORDER BY ur.assigned_at, r.name`
)

type PostgresRepository struct {
	conn db.DBTX
}

// NewPostgresRepository returns a ledger repository over conn.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// WithTx returns a repository bound to tx.
func (r *PostgresRepository) WithTx(tx *sql.Tx) *PostgresRepository {
	return &PostgresRepository{conn: tx}
}

// LockUser reads the user row FOR UPDATE so concurrent ledger changes for one user serialize.
func (r *PostgresRepository) LockUser(ctx context.Context, userID string) (bool, error) {
	var id string
	if err := r.conn.QueryRowContext(ctx, lockUser, userID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lock user: %w", db.Classify(err))
	}
	return true, nil
}

// Insert adds a (user, role) mapping. It reports false when the mapping already exists
// or the role is absent from the catalog.
func (r *PostgresRepository) Insert(ctx context.Context, a *domain.Assignment) (bool, error) {
	res, err := r.conn.ExecContext(ctx, insertAssignment, a.UserID, string(a.Role), a.AssignedAt, a.AssignedBy)
	if err != nil {
		return false, fmt.Errorf("insert role assignment: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes a (user, role) mapping. It reports false when there was none.
func (r *PostgresRepository) Delete(ctx context.Context, userID string, role roledomain.Role) (bool, error) {
	res, err := r.conn.ExecContext(ctx, deleteAssignment, userID, string(role))
	if err != nil {
		return false, fmt.Errorf("delete role assignment: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListRoles returns the set of roles held by userID. Unknown users get an empty set.
func (r *PostgresRepository) ListRoles(ctx context.Context, userID string) (roledomain.RoleSet, error) {
	rows, err := r.conn.QueryContext(ctx, listUserRoles, userID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", db.Classify(err))
	}
	defer rows.Close()

	out := roledomain.NewRoleSet()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		role, err := roledomain.ParseRole(name)
		if err != nil {
			return nil, err
		}
		out.Add(role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roles: %w", db.Classify(err))
	}
	return out, nil
}

// List returns the assignments of userID with their audit fields.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*domain.Assignment, error) {
	rows, err := r.conn.QueryContext(ctx, listAssignments, userID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", db.Classify(err))
	}
	defer rows.Close()

	var out []*domain.Assignment
	for rows.Next() {
		var (
			a    domain.Assignment
			name string
		)
		if err := rows.Scan(&a.UserID, &name, &a.AssignedAt, &a.AssignedBy); err != nil {
			return nil, err
		}
		if a.Role, err = roledomain.ParseRole(name); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, db.Classify(rows.Err())
}

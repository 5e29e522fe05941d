package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handicraft-marketplace/backend/internal/assignment/domain"
	roledomain "handicraft-marketplace/backend/internal/role/domain"
)

func TestListRoles_EmptyForUnassignedUser(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("SELECT r.name FROM user_roles").WithArgs("u9").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	roles, err := NewPostgresRepository(conn).ListRoles(context.Background(), "u9")
	require.NoError(t, err)
	assert.NotNil(t, roles)
	assert.Empty(t, roles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRoles(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("SELECT r.name FROM user_roles").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("buyer").AddRow("artist"))

	roles, err := NewPostgresRepository(conn).ListRoles(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"artist", "buyer"}, roles.Names())
}

func TestInsert_Duplicate(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO user_roles (.+) ON CONFLICT").
		WithArgs("u1", "artist", now, "admin-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := NewPostgresRepository(conn).Insert(context.Background(), &domain.Assignment{
		UserID: "u1", Role: roledomain.RoleArtist, AssignedAt: now, AssignedBy: "admin-1",
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec("DELETE FROM user_roles").WithArgs("u1", "agent").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := NewPostgresRepository(conn).Delete(context.Background(), "u1", roledomain.RoleAgent)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockUser_Missing(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("SELECT id FROM users WHERE id = \\$1 FOR UPDATE").WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ok, err := NewPostgresRepository(conn).LockUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT ur.user_id, r.name, ur.assigned_at, ur.assigned_by").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "assigned_at", "assigned_by"}).
			AddRow("u1", "buyer", now, "").
			AddRow("u1", "artist", now.Add(time.Hour), "admin-1"))

	list, err := NewPostgresRepository(conn).List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, roledomain.RoleArtist, list[1].Role)
	assert.Equal(t, "admin-1", list[1].AssignedBy)
}

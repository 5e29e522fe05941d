package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handicraft-marketplace/backend/internal/platform/errs"
)

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		got, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	got, err := ParseRole(" Agent ")
	require.NoError(t, err)
	assert.Equal(t, RoleAgent, got)

	_, err = ParseRole("superuser")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = ParseRole("")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleBuyer.Valid())
	assert.False(t, Role("Buyer").Valid())
	assert.False(t, Role("owner").Valid())
}

func TestRoleSet_SortedInCatalogOrder(t *testing.T) {
	s := NewRoleSet(RoleBuyer, RoleAgent, RoleAdmin)
	assert.Equal(t, []Role{RoleAdmin, RoleAgent, RoleBuyer}, s.Sorted())
	assert.Equal(t, []string{"admin", "agent", "buyer"}, s.Names())
	assert.True(t, s.Has(RoleAgent))
	assert.False(t, s.Has(RoleArtist))
	s.Add(RoleArtist)
	assert.True(t, s.Has(RoleArtist))
}

func TestPermissionSet(t *testing.T) {
	s := NewPermissionSet(PermProductView)
	s.Union(NewPermissionSet(PermSupportCreate, PermProductView))
	assert.Equal(t, []string{"product:view", "support:create"}, s.Strings())
	assert.True(t, s.Has(PermSupportCreate))
	assert.False(t, s.Has(PermProductEditAny))
}

func TestBuiltInRoles_Catalog(t *testing.T) {
	defs := BuiltInRoles()
	require.Len(t, defs, 4)
	byName := map[Role]Definition{}
	for _, d := range defs {
		byName[d.Name] = d
	}

	admin := byName[RoleAdmin].Permissions
	for _, p := range []Permission{PermProductEditAny, PermProductDeleteAny, PermProfileEditAny, PermProfileDeleteAny, PermSupportViewAny} {
		assert.True(t, admin.Has(p), "admin should hold %s", p)
	}
	assert.True(t, byName[RoleArtist].Permissions.Has(PermProductEditOwn))
	assert.True(t, byName[RoleAgent].Permissions.Has(PermProductEditManaged))
	assert.False(t, byName[RoleAgent].Permissions.Has(PermProductDeleteAny), "agents never delete")
	assert.False(t, byName[RoleAgent].Permissions.Has(PermProductDeleteOwn), "agents never delete")
	assert.True(t, byName[RoleBuyer].Permissions.Has(PermSupportCreate))
}

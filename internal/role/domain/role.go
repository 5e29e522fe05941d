package domain

import (
	"fmt"
	"sort"
	"strings"

	"handicraft-marketplace/backend/internal/platform/errs"
)

// Role is one of the four marketplace roles. The set is closed.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleArtist Role = "artist"
	RoleAgent  Role = "agent"
	RoleBuyer  Role = "buyer"
)

// AllRoles lists every role in catalog order.
var AllRoles = []Role{RoleAdmin, RoleArtist, RoleAgent, RoleBuyer}

// ParseRole returns the Role named by s. Unknown names fail with errs.ErrInvalidArgument.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleArtist, RoleAgent, RoleBuyer:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", errs.ErrInvalidArgument, s)
	}
}

// Valid reports whether r is one of the catalog roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil && string(r) == strings.ToLower(string(r))
}

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet returns a set holding roles.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

func (s RoleSet) Add(r Role) {
	s[r] = struct{}{}
}

// Sorted returns the roles in catalog order.
func (s RoleSet) Sorted() []Role {
	out := make([]Role, 0, len(s))
	for _, r := range AllRoles {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Names returns the role names in catalog order.
func (s RoleSet) Names() []string {
	roles := s.Sorted()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// Permission is a capability tag such as "product:edit:any".
type Permission string

const (
	PermProductCreate      Permission = "product:create"
	PermProductView        Permission = "product:view"
	PermProductEditOwn     Permission = "product:edit:own"
	PermProductEditManaged Permission = "product:edit:managed"
	PermProductEditAny     Permission = "product:edit:any"
	PermProductDeleteOwn   Permission = "product:delete:own"
	PermProductDeleteAny   Permission = "product:delete:any"
	PermProfileEditOwn     Permission = "profile:edit:own"
	PermProfileEditManaged Permission = "profile:edit:managed"
	PermProfileEditAny     Permission = "profile:edit:any"
	PermProfileDeleteAny   Permission = "profile:delete:any"
	PermProfileVerify      Permission = "profile:verify"
	PermSupportCreate      Permission = "support:create"
	PermSupportViewAny     Permission = "support:view:any"
	PermSupportDeleteAny   Permission = "support:delete:any"
	PermRoleAssign         Permission = "role:assign"
	PermAgentAssign        Permission = "agent:assign"
)

// PermissionSet is an unordered set of permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet returns a set holding perms.
func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Union adds every permission of other to s.
func (s PermissionSet) Union(other PermissionSet) {
	for p := range other {
		s[p] = struct{}{}
	}
}

// Strings returns the permissions sorted lexically.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

// Definition is a catalog entry: a role and the permissions it grants.
type Definition struct {
	ID          string
	Name        Role
	Description string
	Permissions PermissionSet
}

// BuiltInRoles returns the catalog seeded at bootstrap. It matches the rows inserted by the init migration.
func BuiltInRoles() []Definition {
	return []Definition{
		{
			ID: "role-admin", Name: RoleAdmin, Description: "Platform administrator",
			Permissions: NewPermissionSet(
				PermProductEditAny, PermProductDeleteAny,
				PermProfileEditAny, PermProfileDeleteAny, PermProfileVerify,
				PermSupportViewAny, PermSupportDeleteAny,
				PermRoleAssign, PermAgentAssign,
			),
		},
		{
			ID: "role-artist", Name: RoleArtist, Description: "Artisan selling handmade products",
			Permissions: NewPermissionSet(PermProductCreate, PermProductEditOwn, PermProductDeleteOwn, PermProfileEditOwn),
		},
		{
			ID: "role-agent", Name: RoleAgent, Description: "Sales agent managing artists",
			Permissions: NewPermissionSet(PermProductEditManaged, PermProfileEditManaged),
		},
		{
			ID: "role-buyer", Name: RoleBuyer, Description: "Buyer and supporter",
			Permissions: NewPermissionSet(PermProductView, PermSupportCreate),
		},
	}
}

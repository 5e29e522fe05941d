// Package authz resolves what an actor may do to a marketplace resource. It gathers facts from the
// role ledger, the product and profile stores and the relationship registry, then asks the policy
// evaluator for a decision.
package authz

import (
	"fmt"
	"strings"

	"handicraft-marketplace/backend/internal/authz/engine"
	"handicraft-marketplace/backend/internal/platform/errs"
)

// ResourceKind names the kind of resource being authorized.
type ResourceKind string

const (
	KindProduct            ResourceKind = engine.KindProduct
	KindArtistProfile      ResourceKind = engine.KindArtistProfile
	KindSupportTransaction ResourceKind = engine.KindSupportTransaction
)

// ParseResourceKind maps s onto a known kind.
func ParseResourceKind(s string) (ResourceKind, error) {
	switch k := ResourceKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindProduct, KindArtistProfile, KindSupportTransaction:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown resource kind %q", errs.ErrInvalidArgument, s)
	}
}

// ResourceRef points at one resource.
type ResourceRef struct {
	Kind ResourceKind
	ID   string
}

func Product(id string) ResourceRef            { return ResourceRef{Kind: KindProduct, ID: id} }
func ArtistProfile(id string) ResourceRef      { return ResourceRef{Kind: KindArtistProfile, ID: id} }
func SupportTransaction(id string) ResourceRef { return ResourceRef{Kind: KindSupportTransaction, ID: id} }

func (r ResourceRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

func (r ResourceRef) validate() error {
	if _, err := ParseResourceKind(string(r.Kind)); err != nil {
		return err
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: resource id is required", errs.ErrInvalidArgument)
	}
	return nil
}

// Action is a verb checked against a resource.
type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// ParseAction maps s onto a known action.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionView, ActionEdit, ActionDelete:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", errs.ErrInvalidArgument, s)
	}
}

// Decision is the per-action answer for one (actor, resource) pair.
type Decision struct {
	CanView   bool
	CanEdit   bool
	CanDelete bool
}

// Allows reports whether d grants a. Unknown actions are denied.
func (d Decision) Allows(a Action) bool {
	switch a {
	case ActionView:
		return d.CanView
	case ActionEdit:
		return d.CanEdit
	case ActionDelete:
		return d.CanDelete
	default:
		return false
	}
}

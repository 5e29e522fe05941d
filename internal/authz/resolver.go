package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"handicraft-marketplace/backend/internal/authz/engine"
	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/platform/errs"
	"handicraft-marketplace/backend/internal/platform/logging"
	productdomain "handicraft-marketplace/backend/internal/product/domain"
	profiledomain "handicraft-marketplace/backend/internal/profile/domain"
	roledomain "handicraft-marketplace/backend/internal/role/domain"
	supportdomain "handicraft-marketplace/backend/internal/support/domain"
	"handicraft-marketplace/backend/internal/telemetry"
)

var tracer = otel.Tracer("marketplace/authz")

// RoleLedger lists the roles a user holds. An unknown user has an empty set.
type RoleLedger interface {
	ListRoles(ctx context.Context, userID string) (roledomain.RoleSet, error)
}

// PermissionCatalog unions the permissions granted by a set of roles.
type PermissionCatalog interface {
	PermissionsFor(ctx context.Context, roles roledomain.RoleSet) (roledomain.PermissionSet, error)
}

// ProductOwners resolves who owns a product. Returns nil when the product does not exist.
type ProductOwners interface {
	GetOwner(ctx context.Context, productID string) (*productdomain.Owner, error)
}

// Profiles reads artist and agent profiles. Lookups return nil when absent.
type Profiles interface {
	GetArtistByID(ctx context.Context, id string) (*profiledomain.ArtistProfile, error)
	GetArtistByUserID(ctx context.Context, userID string) (*profiledomain.ArtistProfile, error)
	GetAgentByUserID(ctx context.Context, userID string) (*profiledomain.AgentProfile, error)
}

// Relations answers whether an agent currently manages an artist.
type Relations interface {
	IsActive(ctx context.Context, agentID, artistID string) (bool, error)
}

// SupportParties resolves the supporter and artist of a pledge. Returns nil when it does not exist.
type SupportParties interface {
	GetParties(ctx context.Context, id string) (*supportdomain.Parties, error)
}

// Stores bundles the read models the resolver consults.
type Stores struct {
	Roles       RoleLedger
	Permissions PermissionCatalog
	Products    ProductOwners
	Profiles    Profiles
	Relations   Relations
	Support     SupportParties
}

// Resolver computes authorization decisions. It holds no cache: every call reads current state,
// so repeated calls against the same state return the same Decision.
type Resolver struct {
	stores    Stores
	evaluator engine.Evaluator
	timeout   time.Duration
	metrics   telemetry.DecisionRecorder
	log       logrus.FieldLogger
}

// NewResolver returns a resolver over stores. timeout bounds store reads when ctx has no deadline.
func NewResolver(stores Stores, evaluator engine.Evaluator, timeout time.Duration, log logrus.FieldLogger) *Resolver {
	return &Resolver{stores: stores, evaluator: evaluator, timeout: timeout, log: logging.OrDiscard(log)}
}

// WithMetrics records every ResolvePermissions outcome on m.
func (r *Resolver) WithMetrics(m telemetry.DecisionRecorder) *Resolver {
	r.metrics = m
	return r
}

// actorFacts are the facts about the caller, independent of the resource.
type actorFacts struct {
	roles roledomain.RoleSet
	perms roledomain.PermissionSet
	agent *profiledomain.AgentProfile
}

// resourceFacts are the facts about the target, independent of the caller.
type resourceFacts struct {
	artistID    string
	ownerUserID string
	supporterID string
}

// ResolvePermissions returns what actorID may do to ref. An empty actorID is an anonymous caller.
// A missing resource returns errs.ErrNotFound. Store failures are wrapped errs.ErrUnavailable.
func (r *Resolver) ResolvePermissions(ctx context.Context, actorID string, ref ResourceRef) (Decision, error) {
	ctx, span := tracer.Start(ctx, "authz.ResolvePermissions")
	defer span.End()
	span.SetAttributes(
		attribute.String("authz.resource.kind", string(ref.Kind)),
		attribute.String("authz.resource.id", ref.ID),
		attribute.Bool("authz.actor.authenticated", actorID != ""),
	)

	start := time.Now()
	d, err := r.resolve(ctx, actorID, ref)
	r.record(ctx, ref.Kind, d, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errs.IsClientError(err) {
			r.log.WithError(err).WithField("resource", ref.String()).Error("authz: resolve failed")
		}
		return Decision{}, err
	}
	span.SetAttributes(
		attribute.Bool("authz.can_view", d.CanView),
		attribute.Bool("authz.can_edit", d.CanEdit),
		attribute.Bool("authz.can_delete", d.CanDelete),
	)
	return d, nil
}

func (r *Resolver) record(ctx context.Context, kind ResourceKind, d Decision, err error, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}
	outcome := telemetry.OutcomeDenied
	switch {
	case err != nil:
		outcome = telemetry.OutcomeError
	case d.CanView || d.CanEdit || d.CanDelete:
		outcome = telemetry.OutcomeGranted
	}
	r.metrics.RecordDecision(ctx, string(kind), outcome, elapsed)
}

func (r *Resolver) resolve(ctx context.Context, actorID string, ref ResourceRef) (Decision, error) {
	if err := ref.validate(); err != nil {
		return Decision{}, err
	}
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		actor actorFacts
		res   resourceFacts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		actor, err = r.actorFacts(gctx, actorID)
		return err
	})
	g.Go(func() error {
		var err error
		res, err = r.resourceFacts(gctx, ref)
		return err
	})
	if err := g.Wait(); err != nil {
		return Decision{}, err
	}

	facts := engine.Facts{
		ActorID:      actorID,
		Roles:        actor.roles.Names(),
		Permissions:  actor.perms.Strings(),
		IsOwner:      actorID != "" && actorID == res.ownerUserID,
		IsSupporter:  actorID != "" && actorID == res.supporterID,
		ResourceKind: string(ref.Kind),
		ResourceID:   ref.ID,
	}
	if actor.agent != nil && res.artistID != "" && ref.Kind != KindSupportTransaction {
		active, err := r.stores.Relations.IsActive(ctx, actor.agent.ID, res.artistID)
		if err != nil {
			return Decision{}, fmt.Errorf("resolve agent relation: %w", err)
		}
		facts.IsActiveAgent = active
	}

	out, err := r.evaluator.Evaluate(ctx, facts)
	if err != nil {
		return Decision{}, err
	}
	return Decision{CanView: out.CanView, CanEdit: out.CanEdit, CanDelete: out.CanDelete}, nil
}

func (r *Resolver) actorFacts(ctx context.Context, actorID string) (actorFacts, error) {
	f := actorFacts{roles: roledomain.NewRoleSet(), perms: roledomain.NewPermissionSet()}
	if actorID == "" {
		return f, nil
	}
	roles, err := r.stores.Roles.ListRoles(ctx, actorID)
	if err != nil {
		return f, fmt.Errorf("resolve actor roles: %w", err)
	}
	f.roles = roles
	if f.perms, err = r.stores.Permissions.PermissionsFor(ctx, roles); err != nil {
		return f, fmt.Errorf("resolve actor permissions: %w", err)
	}
	if roles.Has(roledomain.RoleAgent) {
		if f.agent, err = r.stores.Profiles.GetAgentByUserID(ctx, actorID); err != nil {
			return f, fmt.Errorf("resolve actor agent profile: %w", err)
		}
	}
	return f, nil
}

func (r *Resolver) resourceFacts(ctx context.Context, ref ResourceRef) (resourceFacts, error) {
	switch ref.Kind {
	case KindProduct:
		o, err := r.stores.Products.GetOwner(ctx, ref.ID)
		if err != nil {
			return resourceFacts{}, err
		}
		if o == nil {
			return resourceFacts{}, fmt.Errorf("product %s: %w", ref.ID, errs.ErrNotFound)
		}
		return resourceFacts{artistID: o.ArtistID, ownerUserID: o.UserID}, nil
	case KindArtistProfile:
		p, err := r.stores.Profiles.GetArtistByID(ctx, ref.ID)
		if err != nil {
			return resourceFacts{}, err
		}
		if p == nil {
			return resourceFacts{}, fmt.Errorf("artist profile %s: %w", ref.ID, errs.ErrNotFound)
		}
		return resourceFacts{artistID: p.ID, ownerUserID: p.UserID}, nil
	case KindSupportTransaction:
		p, err := r.stores.Support.GetParties(ctx, ref.ID)
		if err != nil {
			return resourceFacts{}, err
		}
		if p == nil {
			return resourceFacts{}, fmt.Errorf("support transaction %s: %w", ref.ID, errs.ErrNotFound)
		}
		return resourceFacts{artistID: p.ArtistID, ownerUserID: p.ArtistUserID, supporterID: p.SupporterID}, nil
	default:
		return resourceFacts{}, fmt.Errorf("%w: unknown resource kind %q", errs.ErrInvalidArgument, ref.Kind)
	}
}

// Authorize returns nil when actorID may perform action on ref. A denied anonymous caller gets
// errs.ErrUnauthenticated; a denied authenticated caller gets errs.ErrForbidden.
func (r *Resolver) Authorize(ctx context.Context, actorID string, ref ResourceRef, action Action) error {
	if _, err := ParseAction(string(action)); err != nil {
		return err
	}
	d, err := r.ResolvePermissions(ctx, actorID, ref)
	if err != nil {
		return err
	}
	if d.Allows(action) {
		return nil
	}
	if actorID == "" {
		return errs.ErrUnauthenticated
	}
	return fmt.Errorf("%s %s: %w", action, ref, errs.ErrForbidden)
}

// RequireAuthenticated gates actions open to any signed-in user, such as pledging support.
func RequireAuthenticated(actorID string) error {
	if actorID == "" {
		return errs.ErrUnauthenticated
	}
	return nil
}

// ListRolesFor returns the roles of actorID. Anonymous callers and users without assignments get an empty set.
func (r *Resolver) ListRolesFor(ctx context.Context, actorID string) (roledomain.RoleSet, error) {
	if actorID == "" {
		return roledomain.NewRoleSet(), nil
	}
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.stores.Roles.ListRoles(ctx, actorID)
}

// HasPermission reports whether actorID holds p through any role.
func (r *Resolver) HasPermission(ctx context.Context, actorID string, p roledomain.Permission) (bool, error) {
	if actorID == "" {
		return false, nil
	}
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	roles, err := r.stores.Roles.ListRoles(ctx, actorID)
	if err != nil {
		return false, err
	}
	perms, err := r.stores.Permissions.PermissionsFor(ctx, roles)
	if err != nil {
		return false, err
	}
	return perms.Has(p), nil
}

// OnboardingStatus reports, for each role actorID holds, whether its profile still needs completing.
func (r *Resolver) OnboardingStatus(ctx context.Context, actorID string) (map[roledomain.Role]bool, error) {
	if actorID == "" {
		return nil, errs.ErrUnauthenticated
	}
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	roles, err := r.stores.Roles.ListRoles(ctx, actorID)
	if err != nil {
		return nil, err
	}
	var snap profiledomain.Snapshot
	if roles.Has(roledomain.RoleArtist) {
		if snap.Artist, err = r.stores.Profiles.GetArtistByUserID(ctx, actorID); err != nil {
			return nil, err
		}
	}
	if roles.Has(roledomain.RoleAgent) {
		if snap.Agent, err = r.stores.Profiles.GetAgentByUserID(ctx, actorID); err != nil {
			return nil, err
		}
	}
	out := make(map[roledomain.Role]bool, len(roles))
	for role := range roles {
		out[role] = NeedsOnboarding(role, snap)
	}
	return out, nil
}

// NeedsOnboarding is the profile completeness gate. Callers use it instead of checking profile fields themselves.
func NeedsOnboarding(role roledomain.Role, s profiledomain.Snapshot) bool {
	return profiledomain.NeedsOnboarding(role, s)
}


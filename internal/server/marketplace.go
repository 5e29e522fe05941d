package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	agencydomain "handicraft-marketplace/backend/internal/agency/domain"
	assignmentdomain "handicraft-marketplace/backend/internal/assignment/domain"
	"handicraft-marketplace/backend/internal/authz"
	"handicraft-marketplace/backend/internal/platform/errs"
	"handicraft-marketplace/backend/internal/platform/logging"
	"handicraft-marketplace/backend/internal/platform/rbac"
	productdomain "handicraft-marketplace/backend/internal/product/domain"
	profiledomain "handicraft-marketplace/backend/internal/profile/domain"
	roledomain "handicraft-marketplace/backend/internal/role/domain"
	"handicraft-marketplace/backend/internal/server/interceptors"
	supportdomain "handicraft-marketplace/backend/internal/support/domain"
)

// Resolver is the authorization surface used by the RPC layer.
type Resolver interface {
	ResolvePermissions(ctx context.Context, actorID string, ref authz.ResourceRef) (authz.Decision, error)
	Authorize(ctx context.Context, actorID string, ref authz.ResourceRef, action authz.Action) error
	ListRolesFor(ctx context.Context, actorID string) (roledomain.RoleSet, error)
	OnboardingStatus(ctx context.Context, actorID string) (map[roledomain.Role]bool, error)
	HasPermission(ctx context.Context, userID string, p roledomain.Permission) (bool, error)
}

// Ledger mutates role assignments.
type Ledger interface {
	AssignRole(ctx context.Context, userID string, role roledomain.Role, assignedBy string) (*assignmentdomain.Assignment, error)
	RevokeRole(ctx context.Context, userID string, role roledomain.Role, revokedBy string) error
}

// Registry mutates and reads agent-artist relations and agent requests.
type Registry interface {
	AssignAgent(ctx context.Context, agentID, artistID, assignedBy string) (*agencydomain.Relation, error)
	Deactivate(ctx context.Context, agentID, artistID, actorID string) error
	CurrentAgentOf(ctx context.Context, artistID string) (*profiledomain.AgentProfile, error)
	AgentProfileOf(ctx context.Context, userID string) (*profiledomain.AgentProfile, error)

	CreateRequest(ctx context.Context, artistID, location, actorID string) (*agencydomain.Request, error)
	GetRequest(ctx context.Context, id string) (*agencydomain.Request, error)
	ListRequestsByArtist(ctx context.Context, artistID string) ([]*agencydomain.Request, error)
	ListPendingRequests(ctx context.Context) ([]*agencydomain.Request, error)
	AcceptRequest(ctx context.Context, requestID, agentID, actorID string) (*agencydomain.Request, *agencydomain.Relation, error)
	RejectRequest(ctx context.Context, requestID, actorID string) (*agencydomain.Request, error)
	CompleteRequest(ctx context.Context, requestID, actorID string) (*agencydomain.Request, error)
}

// ProfileVerifier sets the verification badge.
type ProfileVerifier interface {
	SetVerified(ctx context.Context, actorID string, kind profiledomain.Kind, profileID string, verified bool) error
}

// SupportDesk records and reads pledges.
type SupportDesk interface {
	Create(ctx context.Context, supporterID string, in supportdomain.Input) (*supportdomain.Transaction, error)
	Get(ctx context.Context, id string) (*supportdomain.Transaction, error)
}

// Catalog manages product listings.
type Catalog interface {
	Create(ctx context.Context, actorID, artistID, name string, priceCents int64) (*productdomain.Product, error)
	Delete(ctx context.Context, actorID, productID string) error
}

// Marketplace implements MarketplaceServer on top of the engine services.
type Marketplace struct {
	resolver Resolver
	ledger   Ledger
	registry Registry
	profiles ProfileVerifier
	support  SupportDesk
	products Catalog
	log      logrus.FieldLogger
}

// MarketplaceDeps are the services behind the RPCs. All are required.
type MarketplaceDeps struct {
	Resolver Resolver
	Ledger   Ledger
	Registry Registry
	Profiles ProfileVerifier
	Support  SupportDesk
	Products Catalog
}

// NewMarketplace returns the RPC implementation.
func NewMarketplace(deps MarketplaceDeps, log logrus.FieldLogger) *Marketplace {
	return &Marketplace{
		resolver: deps.Resolver,
		ledger:   deps.Ledger,
		registry: deps.Registry,
		profiles: deps.Profiles,
		support:  deps.Support,
		products: deps.Products,
		log:      logging.OrDiscard(log),
	}
}

// ResolvePermissions answers {kind, id} with {can_view, can_edit, can_delete} for the caller. Anonymous callers are allowed.
func (m *Marketplace) ResolvePermissions(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ref, err := resourceRef(in)
	if err != nil {
		return nil, err
	}
	d, err := m.resolver.ResolvePermissions(ctx, interceptors.ActorID(ctx), ref)
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"can_view":   d.CanView,
		"can_edit":   d.CanEdit,
		"can_delete": d.CanDelete,
	})
}

// ListRoles returns {roles} for user_id, defaulting to the caller. Reading someone else's roles needs role:assign.
func (m *Marketplace) ListRoles(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	userID := stringField(in, "user_id")
	if userID == "" {
		userID = actorID
	}
	if userID != actorID {
		if _, err := rbac.RequirePermission(ctx, m.resolver, roledomain.PermRoleAssign); err != nil {
			return nil, err
		}
	}
	roles, err := m.resolver.ListRolesFor(ctx, userID)
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{"roles": toInterfaces(roles.Names())})
}

// AssignRole grants {user_id, role}. Requires role:assign.
func (m *Marketplace) AssignRole(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := rbac.RequirePermission(ctx, m.resolver, roledomain.PermRoleAssign)
	if err != nil {
		return nil, err
	}
	role, err := roleField(in)
	if err != nil {
		return nil, err
	}
	a, err := m.ledger.AssignRole(ctx, stringField(in, "user_id"), role, actorID)
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"user_id":     a.UserID,
		"role":        string(a.Role),
		"assigned_by": a.AssignedBy,
		"assigned_at": a.AssignedAt.Format(timeLayout),
	})
}

// RevokeRole removes {user_id, role}. Requires role:assign.
func (m *Marketplace) RevokeRole(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := rbac.RequirePermission(ctx, m.resolver, roledomain.PermRoleAssign)
	if err != nil {
		return nil, err
	}
	role, err := roleField(in)
	if err != nil {
		return nil, err
	}
	if err := m.ledger.RevokeRole(ctx, stringField(in, "user_id"), role, actorID); err != nil {
		return nil, rbac.ToStatus(err)
	}
	return &structpb.Struct{}, nil
}

// AssignAgent links {agent_id, artist_id} (profile ids). Requires agent:assign.
func (m *Marketplace) AssignAgent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := rbac.RequirePermission(ctx, m.resolver, roledomain.PermAgentAssign)
	if err != nil {
		return nil, err
	}
	rel, err := m.registry.AssignAgent(ctx, stringField(in, "agent_id"), stringField(in, "artist_id"), actorID)
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"id":          rel.ID,
		"agent_id":    rel.AgentID,
		"artist_id":   rel.ArtistID,
		"assigned_at": rel.AssignedAt.Format(timeLayout),
		"is_active":   rel.IsActive,
	})
}

// DeactivateAgent ends the active {agent_id, artist_id} relation. Requires agent:assign. Idempotent.
func (m *Marketplace) DeactivateAgent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := rbac.RequirePermission(ctx, m.resolver, roledomain.PermAgentAssign)
	if err != nil {
		return nil, err
	}
	if err := m.registry.Deactivate(ctx, stringField(in, "agent_id"), stringField(in, "artist_id"), actorID); err != nil {
		return nil, rbac.ToStatus(err)
	}
	return &structpb.Struct{}, nil
}

// CurrentAgent returns {agent_id, user_id, region} for {artist_id}, or an empty struct when the artist has no agent.
func (m *Marketplace) CurrentAgent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	agent, err := m.registry.CurrentAgentOf(ctx, stringField(in, "artist_id"))
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	if agent == nil {
		return &structpb.Struct{}, nil
	}
	return structpb.NewStruct(map[string]interface{}{
		"agent_id": agent.ID,
		"user_id":  agent.UserID,
		"region":   agent.Region,
	})
}

// OnboardingStatus returns {needs_onboarding: {role: bool}} for the caller.
func (m *Marketplace) OnboardingStatus(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	status, err := m.resolver.OnboardingStatus(ctx, actorID)
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	out := make(map[string]interface{}, len(status))
	for role, needs := range status {
		out[string(role)] = needs
	}
	return structpb.NewStruct(map[string]interface{}{"needs_onboarding": out})
}

// VerifyProfile sets {kind, profile_id, verified}. The profile service enforces profile:verify.
func (m *Marketplace) VerifyProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	kind := profiledomain.Kind(stringField(in, "kind"))
	if err := m.profiles.SetVerified(ctx, actorID, kind, stringField(in, "profile_id"), boolField(in, "verified")); err != nil {
		return nil, rbac.ToStatus(err)
	}
	return &structpb.Struct{}, nil
}

// CreateSupport records a pledge {artist_id, amount_cents, type, message, is_anonymous} from the caller.
func (m *Marketplace) CreateSupport(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID := interceptors.ActorID(ctx)
	if err := authz.RequireAuthenticated(actorID); err != nil {
		return nil, rbac.ToStatus(err)
	}
	amount, err := int64Field(in, "amount_cents")
	if err != nil {
		return nil, err
	}
	t, err := m.support.Create(ctx, actorID, supportdomain.Input{
		ArtistID:    stringField(in, "artist_id"),
		AmountCents: amount,
		Type:        supportdomain.Type(stringField(in, "type")),
		Message:     stringField(in, "message"),
		IsAnonymous: boolField(in, "is_anonymous"),
	})
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	return supportStruct(t)
}

// GetSupport returns pledge {id} to the supporter, the supported artist or an admin.
// Callers without support:view:any get PermissionDenied for unknown ids too.
func (m *Marketplace) GetSupport(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID := interceptors.ActorID(ctx)
	id := stringField(in, "id")
	err := m.resolver.Authorize(ctx, actorID, authz.SupportTransaction(id), authz.ActionView)
	if errors.Is(err, errs.ErrNotFound) {
		err = m.maskMissingSupport(ctx, actorID, err)
	}
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	t, err := m.support.Get(ctx, id)
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	return supportStruct(t)
}

func (m *Marketplace) maskMissingSupport(ctx context.Context, actorID string, notFound error) error {
	if actorID == "" {
		return errs.ErrUnauthenticated
	}
	admin, err := m.resolver.HasPermission(ctx, actorID, roledomain.PermSupportViewAny)
	if err != nil {
		return err
	}
	if admin {
		return notFound
	}
	return fmt.Errorf("view support transaction: %w", errs.ErrForbidden)
}

// RequestAgent opens a request {artist_id, location} for an agent. The caller must be able to edit the artist profile.
func (m *Marketplace) RequestAgent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID := interceptors.ActorID(ctx)
	artistID := stringField(in, "artist_id")
	if err := m.resolver.Authorize(ctx, actorID, authz.ArtistProfile(artistID), authz.ActionEdit); err != nil {
		return nil, rbac.ToStatus(err)
	}
	req, err := m.registry.CreateRequest(ctx, artistID, stringField(in, "location"), actorID)
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	return structpb.NewStruct(requestFields(req))
}

// ListAgentRequests returns {requests} for {artist_id}, readable by whoever may edit that profile.
// Without artist_id it returns the pending requests, visible to agents and to holders of agent:assign.
func (m *Marketplace) ListAgentRequests(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	var list []*agencydomain.Request
	if artistID := stringField(in, "artist_id"); artistID != "" {
		if err := m.resolver.Authorize(ctx, actorID, authz.ArtistProfile(artistID), authz.ActionEdit); err != nil {
			return nil, rbac.ToStatus(err)
		}
		list, err = m.registry.ListRequestsByArtist(ctx, artistID)
	} else {
		if _, err := m.actingAgent(ctx, actorID, ""); err != nil {
			return nil, err
		}
		list, err = m.registry.ListPendingRequests(ctx)
	}
	if err != nil {
		return nil, rbac.ToStatus(err)
	}

	out := make([]interface{}, len(list))
	for i, req := range list {
		out[i] = requestFields(req)
	}
	return structpb.NewStruct(map[string]interface{}{"requests": out})
}

// AcceptAgentRequest has an agent take pending request {id}. Agents accept as themselves;
// holders of agent:assign name the agent profile in agent_id.
func (m *Marketplace) AcceptAgentRequest(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	agentID, err := m.actingAgent(ctx, actorID, stringField(in, "agent_id"))
	if err != nil {
		return nil, err
	}
	req, rel, err := m.registry.AcceptRequest(ctx, stringField(in, "id"), agentID, actorID)
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	fields := requestFields(req)
	fields["relation_id"] = rel.ID
	return structpb.NewStruct(fields)
}

// RejectAgentRequest closes pending request {id}. The caller must be able to edit the requesting artist's profile.
func (m *Marketplace) RejectAgentRequest(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	req, err := m.registry.GetRequest(ctx, stringField(in, "id"))
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	if err := m.resolver.Authorize(ctx, actorID, authz.ArtistProfile(req.ArtistID), authz.ActionEdit); err != nil {
		return nil, rbac.ToStatus(err)
	}
	if req, err = m.registry.RejectRequest(ctx, req.ID, actorID); err != nil {
		return nil, rbac.ToStatus(err)
	}
	return structpb.NewStruct(requestFields(req))
}

// CompleteAgentRequest marks accepted request {id} fulfilled. Only its agent or a holder of agent:assign may.
func (m *Marketplace) CompleteAgentRequest(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	req, err := m.registry.GetRequest(ctx, stringField(in, "id"))
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	agentID, err := m.actingAgent(ctx, actorID, req.AgentID)
	if err != nil {
		return nil, err
	}
	if agentID != req.AgentID {
		return nil, status.Error(codes.PermissionDenied, "only the accepting agent may complete the request")
	}
	if req, err = m.registry.CompleteRequest(ctx, req.ID, actorID); err != nil {
		return nil, rbac.ToStatus(err)
	}
	return structpb.NewStruct(requestFields(req))
}

// actingAgent returns the agent profile id actorID acts as. Holders of agent:assign may act as any
// requested agent; everyone else must own an agent profile and may only act as it.
func (m *Marketplace) actingAgent(ctx context.Context, actorID, requested string) (string, error) {
	admin, err := m.resolver.HasPermission(ctx, actorID, roledomain.PermAgentAssign)
	if err != nil {
		return "", rbac.ToStatus(err)
	}
	if admin {
		return requested, nil
	}
	agent, err := m.registry.AgentProfileOf(ctx, actorID)
	if err != nil {
		return "", rbac.ToStatus(err)
	}
	if agent == nil {
		return "", status.Error(codes.PermissionDenied, "agent profile required")
	}
	if requested != "" && requested != agent.ID {
		return "", status.Error(codes.PermissionDenied, "agents may only act for their own profile")
	}
	return agent.ID, nil
}

// CreateProduct lists {artist_id, name, price_cents} on behalf of the artist.
func (m *Marketplace) CreateProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	price, err := int64Field(in, "price_cents")
	if err != nil {
		return nil, err
	}
	p, err := m.products.Create(ctx, interceptors.ActorID(ctx), stringField(in, "artist_id"), stringField(in, "name"), price)
	if err != nil {
		return nil, rbac.ToStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"id":          p.ID,
		"artist_id":   p.ArtistID,
		"name":        p.Name,
		"price_cents": float64(p.PriceCents),
	})
}

// DeleteProduct soft-deletes {id}.
func (m *Marketplace) DeleteProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := m.products.Delete(ctx, interceptors.ActorID(ctx), stringField(in, "id")); err != nil {
		return nil, rbac.ToStatus(err)
	}
	return &structpb.Struct{}, nil
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func supportStruct(t *supportdomain.Transaction) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"id":           t.ID,
		"artist_id":    t.ArtistID,
		"amount_cents": float64(t.AmountCents),
		"type":         string(t.Type),
		"message":      t.Message,
		"is_anonymous": t.IsAnonymous,
		"status":       t.Status,
		"created_at":   t.CreatedAt.Format(timeLayout),
	}
	if !t.IsAnonymous {
		fields["supporter_id"] = t.SupporterID
	}
	return structpb.NewStruct(fields)
}

func requestFields(req *agencydomain.Request) map[string]interface{} {
	fields := map[string]interface{}{
		"id":         req.ID,
		"artist_id":  req.ArtistID,
		"status":     string(req.Status),
		"location":   req.Location,
		"created_at": req.CreatedAt.Format(timeLayout),
		"updated_at": req.UpdatedAt.Format(timeLayout),
	}
	if req.AgentID != "" {
		fields["agent_id"] = req.AgentID
	}
	return fields
}

func resourceRef(in *structpb.Struct) (authz.ResourceRef, error) {
	kind, err := authz.ParseResourceKind(stringField(in, "kind"))
	if err != nil {
		return authz.ResourceRef{}, rbac.ToStatus(err)
	}
	return authz.ResourceRef{Kind: kind, ID: stringField(in, "id")}, nil
}

func roleField(in *structpb.Struct) (roledomain.Role, error) {
	role, err := roledomain.ParseRole(stringField(in, "role"))
	if err != nil {
		return "", rbac.ToStatus(err)
	}
	return role, nil
}

func stringField(in *structpb.Struct, key string) string {
	return strings.TrimSpace(in.GetFields()[key].GetStringValue())
}

func boolField(in *structpb.Struct, key string) bool {
	return in.GetFields()[key].GetBoolValue()
}

// int64Field reads a whole number. JSON numbers arrive as float64.
func int64Field(in *structpb.Struct, key string) (int64, error) {
	f := in.GetFields()[key].GetNumberValue()
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a whole number", key)
	}
	return int64(f), nil
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

package engine

import "context"

// Resource kinds understood by the policy.
const (
	KindProduct            = "product"
	KindArtistProfile      = "artist_profile"
	KindSupportTransaction = "support_transaction"
)

// Facts is everything the policy may look at for one (actor, resource) pair. The resolver gathers
// them from the stores; the evaluator never touches storage.
type Facts struct {
	ActorID       string
	Roles         []string
	Permissions   []string
	IsOwner       bool
	IsActiveAgent bool
	IsSupporter   bool
	ResourceKind  string
	ResourceID    string
}

// Result is the policy outcome per action.
type Result struct {
	CanView   bool
	CanEdit   bool
	CanDelete bool
}

// Evaluator decides a Result from Facts.
type Evaluator interface {
	Evaluate(ctx context.Context, f Facts) (Result, error)
}

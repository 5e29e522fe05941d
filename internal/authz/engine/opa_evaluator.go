package engine

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/rego"
)

// DecisionQuery is the rule every authorization policy must define. It evaluates to an object
// with boolean can_view, can_edit and can_delete fields.
const DecisionQuery = "data.marketplace.authz.decision"

//go:embed policy.rego
var defaultRegoPolicy string

// DefaultPolicy returns the built-in Rego policy.
func DefaultPolicy() string {
	return defaultRegoPolicy
}

// OPAEvaluator evaluates authorization decisions with OPA Rego. The query is compiled once;
// Evaluate is safe for concurrent use.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy (the built-in policy when empty) and prepares the decision query.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = defaultRegoPolicy
	}
	pq, err := rego.New(
		rego.Query(DecisionQuery),
		rego.Module("authz.rego", policy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile authorization policy: %w", err)
	}
	return &OPAEvaluator{query: pq}, nil
}

// NewOPAEvaluatorFromFile loads the policy at path. An empty path selects the built-in policy.
func NewOPAEvaluatorFromFile(ctx context.Context, path string) (*OPAEvaluator, error) {
	if path == "" {
		return NewOPAEvaluator(ctx, "")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read authorization policy: %w", err)
	}
	return NewOPAEvaluator(ctx, string(b))
}

// Evaluate runs the decision query against f. Any evaluation problem returns a zero Result and an
// error, so callers deny by default.
func (e *OPAEvaluator) Evaluate(ctx context.Context, f Facts) (Result, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(f)))
	if err != nil {
		return Result{}, fmt.Errorf("eval authorization policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Result{}, errors.New("authorization policy returned no decision")
	}
	obj, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Result{}, fmt.Errorf("authorization policy decision has type %T, want object", rs[0].Expressions[0].Value)
	}

	var out Result
	if out.CanView, err = boolField(obj, "can_view"); err != nil {
		return Result{}, err
	}
	if out.CanEdit, err = boolField(obj, "can_edit"); err != nil {
		return Result{}, err
	}
	if out.CanDelete, err = boolField(obj, "can_delete"); err != nil {
		return Result{}, err
	}
	return out, nil
}

// HealthCheck evaluates the prepared query for an anonymous product view. Does not touch the database.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	res, err := e.Evaluate(ctx, Facts{ResourceKind: KindProduct})
	if err != nil {
		return err
	}
	if !res.CanView || res.CanEdit || res.CanDelete {
		return fmt.Errorf("authorization policy health probe returned %+v", res)
	}
	return nil
}

func buildInput(f Facts) map[string]interface{} {
	return map[string]interface{}{
		"actor": map[string]interface{}{
			"id":              f.ActorID,
			"authenticated":   f.ActorID != "",
			"roles":           toInterfaces(f.Roles),
			"permissions":     toInterfaces(f.Permissions),
			"is_owner":        f.IsOwner,
			"is_active_agent": f.IsActiveAgent,
			"is_supporter":    f.IsSupporter,
		},
		"resource": map[string]interface{}{
			"kind": f.ResourceKind,
			"id":   f.ResourceID,
		},
	}
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func boolField(obj map[string]interface{}, key string) (bool, error) {
	v, ok := obj[key].(bool)
	if !ok {
		return false, fmt.Errorf("authorization policy decision field %q is %T, want bool", key, obj[key])
	}
	return v, nil
}

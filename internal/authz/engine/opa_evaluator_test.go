package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newEvaluator(t *testing.T) *OPAEvaluator {
	t.Helper()
	e, err := NewOPAEvaluator(context.Background(), "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	return e
}

func TestOPAEvaluator_HealthCheck(t *testing.T) {
	if err := newEvaluator(t).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOPAEvaluator_Product(t *testing.T) {
	e := newEvaluator(t)
	tests := []struct {
		name  string
		facts Facts
		want  Result
	}{
		{
			name:  "anonymous",
			facts: Facts{ResourceKind: KindProduct},
			want:  Result{CanView: true},
		},
		{
			name:  "no roles",
			facts: Facts{ActorID: "u9", ResourceKind: KindProduct},
			want:  Result{CanView: true},
		},
		{
			name:  "owner without roles",
			facts: Facts{ActorID: "u1", IsOwner: true, ResourceKind: KindProduct},
			want:  Result{CanView: true, CanEdit: true, CanDelete: true},
		},
		{
			name:  "admin role",
			facts: Facts{ActorID: "a1", Roles: []string{"admin"}, ResourceKind: KindProduct},
			want:  Result{CanView: true, CanEdit: true, CanDelete: true},
		},
		{
			name:  "managing agent",
			facts: Facts{ActorID: "u2", Roles: []string{"agent"}, Permissions: []string{"product:edit:managed"}, IsActiveAgent: true, ResourceKind: KindProduct},
			want:  Result{CanView: true, CanEdit: true},
		},
		{
			name:  "agent without relation",
			facts: Facts{ActorID: "u2", Roles: []string{"agent"}, ResourceKind: KindProduct},
			want:  Result{CanView: true},
		},
		{
			name:  "active relation without agent role",
			facts: Facts{ActorID: "u2", Roles: []string{"buyer"}, IsActiveAgent: true, ResourceKind: KindProduct},
			want:  Result{CanView: true},
		},
		{
			name:  "buyer",
			facts: Facts{ActorID: "u3", Roles: []string{"buyer"}, Permissions: []string{"product:view", "support:create"}, ResourceKind: KindProduct},
			want:  Result{CanView: true},
		},
		{
			name:  "anonymous claiming ownership",
			facts: Facts{IsOwner: true, ResourceKind: KindProduct},
			want:  Result{CanView: true},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Evaluate(context.Background(), tc.facts)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got != tc.want {
				t.Errorf("Evaluate = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestOPAEvaluator_ArtistProfile(t *testing.T) {
	e := newEvaluator(t)
	tests := []struct {
		name  string
		facts Facts
		want  Result
	}{
		{"owner edits but does not delete", Facts{ActorID: "u1", Roles: []string{"artist"}, IsOwner: true, ResourceKind: KindArtistProfile}, Result{CanView: true, CanEdit: true}},
		{"admin", Facts{ActorID: "a1", Roles: []string{"admin"}, ResourceKind: KindArtistProfile}, Result{CanView: true, CanEdit: true, CanDelete: true}},
		{"managing agent", Facts{ActorID: "u2", Roles: []string{"agent"}, IsActiveAgent: true, ResourceKind: KindArtistProfile}, Result{CanView: true, CanEdit: true}},
		{"stranger", Facts{ActorID: "u3", Roles: []string{"buyer"}, ResourceKind: KindArtistProfile}, Result{CanView: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Evaluate(context.Background(), tc.facts)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got != tc.want {
				t.Errorf("Evaluate = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestOPAEvaluator_SupportTransaction(t *testing.T) {
	e := newEvaluator(t)
	tests := []struct {
		name  string
		facts Facts
		want  Result
	}{
		{"supporter", Facts{ActorID: "u3", Roles: []string{"buyer"}, IsSupporter: true, ResourceKind: KindSupportTransaction}, Result{CanView: true}},
		{"supported artist", Facts{ActorID: "u1", Roles: []string{"artist"}, IsOwner: true, ResourceKind: KindSupportTransaction}, Result{CanView: true}},
		{"admin", Facts{ActorID: "a1", Roles: []string{"admin"}, ResourceKind: KindSupportTransaction}, Result{CanView: true, CanDelete: true}},
		{"agent of artist", Facts{ActorID: "u2", Roles: []string{"agent"}, IsActiveAgent: true, ResourceKind: KindSupportTransaction}, Result{}},
		{"anonymous", Facts{IsSupporter: true, ResourceKind: KindSupportTransaction}, Result{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Evaluate(context.Background(), tc.facts)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got != tc.want {
				t.Errorf("Evaluate = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestOPAEvaluator_UnknownKindDeniesAll(t *testing.T) {
	got, err := newEvaluator(t).Evaluate(context.Background(), Facts{ActorID: "a1", Roles: []string{"admin"}, ResourceKind: "order"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != (Result{}) {
		t.Errorf("Evaluate = %+v, want all false", got)
	}
}

func TestNewOPAEvaluator_InvalidPolicy(t *testing.T) {
	if _, err := NewOPAEvaluator(context.Background(), "package broken\n\nallow if {"); err == nil {
		t.Fatal("NewOPAEvaluator should reject a policy that does not parse")
	}
}

func TestOPAEvaluator_CustomPolicyMissingDecision(t *testing.T) {
	e, err := NewOPAEvaluator(context.Background(), "package marketplace.authz\n\nallow := true\n")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	got, err := e.Evaluate(context.Background(), Facts{ResourceKind: KindProduct})
	if err == nil {
		t.Fatal("Evaluate should fail when the policy defines no decision")
	}
	if got != (Result{}) {
		t.Errorf("failed evaluation must deny, got %+v", got)
	}
}

func TestNewOPAEvaluatorFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authz.rego")
	policy := `package marketplace.authz

decision := {"can_view": false, "can_edit": false, "can_delete": false}
`
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatal(err)
	}
	e, err := NewOPAEvaluatorFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("NewOPAEvaluatorFromFile: %v", err)
	}
	got, err := e.Evaluate(context.Background(), Facts{ResourceKind: KindProduct})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.CanView {
		t.Error("custom policy should replace the built-in one")
	}
	if err := e.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck should flag a policy that hides public products")
	}

	if _, err := NewOPAEvaluatorFromFile(context.Background(), filepath.Join(t.TempDir(), "missing.rego")); err == nil {
		t.Error("missing policy file should fail")
	}
}

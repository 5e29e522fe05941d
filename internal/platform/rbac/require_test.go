package rbac

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	agencydomain "handicraft-marketplace/backend/internal/agency/domain"
	"handicraft-marketplace/backend/internal/platform/errs"
	roledomain "handicraft-marketplace/backend/internal/role/domain"
	"handicraft-marketplace/backend/internal/server/interceptors"
)

// mockChecker implements PermissionChecker for tests.
type mockChecker struct {
	perms map[string]roledomain.PermissionSet
	err   error
}

func (m *mockChecker) HasPermission(ctx context.Context, userID string, p roledomain.Permission) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.perms[userID].Has(p), nil
}

func TestRequirePermission(t *testing.T) {
	checker := &mockChecker{perms: map[string]roledomain.PermissionSet{
		"admin-1": roledomain.NewPermissionSet(roledomain.PermRoleAssign),
		"buyer-1": roledomain.NewPermissionSet(roledomain.PermSupportCreate),
	}}

	userID, err := RequirePermission(interceptors.WithIdentity(context.Background(), "admin-1", ""), checker, roledomain.PermRoleAssign)
	if err != nil {
		t.Fatalf("RequirePermission: %v", err)
	}
	if userID != "admin-1" {
		t.Errorf("user_id = %q, want %q", userID, "admin-1")
	}

	_, err = RequirePermission(interceptors.WithIdentity(context.Background(), "buyer-1", ""), checker, roledomain.PermRoleAssign)
	if status.Code(err) != codes.PermissionDenied {
		t.Errorf("buyer: code = %v, want PermissionDenied", status.Code(err))
	}

	_, err = RequirePermission(context.Background(), checker, roledomain.PermRoleAssign)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("anonymous: code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestRequirePermission_StoreFailure(t *testing.T) {
	checker := &mockChecker{err: fmt.Errorf("list roles: %w", errs.ErrUnavailable)}
	_, err := RequirePermission(interceptors.WithIdentity(context.Background(), "admin-1", ""), checker, roledomain.PermRoleAssign)
	if status.Code(err) != codes.Unavailable {
		t.Errorf("code = %v, want Unavailable", status.Code(err))
	}
}

func TestRequireActor(t *testing.T) {
	if _, err := RequireActor(context.Background()); status.Code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", status.Code(err))
	}
	id, err := RequireActor(interceptors.WithIdentity(context.Background(), "u1", "s1"))
	if err != nil || id != "u1" {
		t.Errorf("RequireActor = %q, %v", id, err)
	}
}

func TestToStatus(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"unauthenticated", errs.ErrUnauthenticated, codes.Unauthenticated},
		{"forbidden", fmt.Errorf("edit product:p1: %w", errs.ErrForbidden), codes.PermissionDenied},
		{"not found", fmt.Errorf("user u1: %w", errs.ErrNotFound), codes.NotFound},
		{"invalid", errs.ErrInvalidArgument, codes.InvalidArgument},
		{"duplicate", errs.ErrDuplicateAssignment, codes.AlreadyExists},
		{"already assigned", errs.ErrAlreadyAssigned, codes.AlreadyExists},
		{"capacity", &agencydomain.CapacityExceededError{AgentID: "ag1", Active: 2, Max: 2}, codes.ResourceExhausted},
		{"last role", errs.ErrLastRole, codes.FailedPrecondition},
		{"request transition", fmt.Errorf("complete request r1: %w", errs.ErrInvalidTransition), codes.FailedPrecondition},
		{"unavailable", fmt.Errorf("get product: %w", errs.ErrUnavailable), codes.Unavailable},
		{"deadline", context.DeadlineExceeded, codes.Unavailable},
		{"canceled", context.Canceled, codes.Canceled},
		{"status passthrough", status.Error(codes.Aborted, "x"), codes.Aborted},
		{"unknown", errors.New("boom"), codes.Internal},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := status.Code(ToStatus(tc.err)); got != tc.want {
				t.Errorf("ToStatus code = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestToStatus_InternalHidesDetail(t *testing.T) {
	st, _ := status.FromError(ToStatus(errors.New("pq: password authentication failed")))
	if st.Message() != "internal error" {
		t.Errorf("message = %q, want %q", st.Message(), "internal error")
	}
}

// Package rbac guards RPC handlers: it resolves the caller from context, checks role permissions,
// and maps engine errors onto gRPC status codes.
package rbac

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"handicraft-marketplace/backend/internal/platform/errs"
	roledomain "handicraft-marketplace/backend/internal/role/domain"
	"handicraft-marketplace/backend/internal/server/interceptors"
)

// PermissionChecker reports whether a user holds a permission through any of their roles.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID string, p roledomain.Permission) (bool, error)
}

// RequireActor returns the authenticated caller, or an Unauthenticated status.
func RequireActor(ctx context.Context) (string, error) {
	userID := interceptors.ActorID(ctx)
	if userID == "" {
		return "", status.Error(codes.Unauthenticated, "user context required")
	}
	return userID, nil
}

// RequirePermission ensures the caller is authenticated and holds p.
// Returns the caller's user id; on failure a gRPC status error (Unauthenticated, PermissionDenied, or the mapped store error).
func RequirePermission(ctx context.Context, checker PermissionChecker, p roledomain.Permission) (string, error) {
	userID, err := RequireActor(ctx)
	if err != nil {
		return "", err
	}
	ok, err := checker.HasPermission(ctx, userID, p)
	if err != nil {
		return "", ToStatus(err)
	}
	if !ok {
		return "", status.Errorf(codes.PermissionDenied, "permission %s required", p)
	}
	return userID, nil
}

// ToStatus maps an engine error onto a gRPC status. Unauthenticated and Forbidden stay distinct.
// Errors that already carry a status pass through; unknown errors become Internal without leaking detail.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, errs.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, errs.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrDuplicateAssignment), errors.Is(err, errs.ErrAlreadyAssigned):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, errs.ErrCapacityExceeded):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, errs.ErrLastRole), errors.Is(err, errs.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, errs.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.Unavailable, "store unavailable")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

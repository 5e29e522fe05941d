// Package errs defines the error taxonomy shared by the authorization engine and its stores.
// Callers inspect errors with errors.Is; every package wraps with fmt.Errorf("...: %w", ...).
package errs

import "errors"

// Session and access errors. Unauthenticated and Forbidden are never collapsed:
// the first means "log in", the second "access denied".
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Lookup and store errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("store unavailable")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Domain-validation errors returned by the ledger and the relationship registry.
var (
	ErrDuplicateAssignment = errors.New("role already assigned")
	ErrAlreadyAssigned     = errors.New("artist already has an active agent")
	ErrCapacityExceeded    = errors.New("agent capacity exceeded")
	ErrLastRole            = errors.New("cannot revoke the last remaining role")
	ErrInvalidTransition   = errors.New("agent request is not in a state that allows this")
)

// IsDomainValidation reports whether err is a caller-facing validation outcome rather than a system failure.
// These are returned to the caller and are not logged as errors.
func IsDomainValidation(err error) bool {
	return errors.Is(err, ErrDuplicateAssignment) ||
		errors.Is(err, ErrAlreadyAssigned) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrLastRole) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidArgument)
}

// IsRetryable reports whether err is a transient store failure. Only read-only calls
// should be retried blindly; mutations need an idempotency key first.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsClientError reports whether err is an expected outcome for the caller (a domain-validation error,
// a missing resource, or a denied request) rather than a system failure. Callers log these at debug.
func IsClientError(err error) bool {
	return IsDomainValidation(err) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrUnauthenticated)
}

package shared

import "errors"

// Domain error kinds. Services return these (optionally wrapped with context
// via fmt.Errorf) and the HTTP layer maps them to status codes. Callers must
// check with errors.Is; no error is swallowed or retried on the way up.
var (
	// ErrUnauthenticated indicates a missing or invalid identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates an authenticated actor lacking the required role or permission.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the target record is absent or not in the expected state.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness invariant would be violated.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument indicates malformed or out-of-range input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Authorization sentinels. The policy engine returns these as deny reasons;
// services wrap them in ErrDenied so callers can match either the generic
// denial or the specific reason with errors.Is.
var (
	// ErrInsufficientRole indicates a write attempted by a role without upload rights.
	ErrInsufficientRole = errors.New("insufficient role")

	// ErrRoleNotPermitted indicates an operation outside the role's surface
	// (e.g. a listener calling the ratings dashboard).
	ErrRoleNotPermitted = errors.New("role not permitted")

	// ErrTenantRequired indicates the identity carries no tenant for a
	// tenant-scoped operation.
	ErrTenantRequired = errors.New("tenant required")

	// ErrDenied wraps any policy deny reason at the service boundary.
	ErrDenied = errors.New("denied")
)

// Validation sentinels.
var (
	// ErrEmptySearchTerm indicates a blank or whitespace-only search term.
	ErrEmptySearchTerm = errors.New("empty search term")

	// ErrRatingOutOfRange indicates a song rating outside [0.0, 5.0].
	ErrRatingOutOfRange = errors.New("rating out of range")

	// ErrMissingField indicates a required field was empty after trimming.
	ErrMissingField = errors.New("missing field")

	// ErrAlreadyPremium indicates an upgrade attempt by a listener who is
	// already on the premium tier.
	ErrAlreadyPremium = errors.New("already premium")
)

// Store sentinels.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g. username taken).
	ErrAlreadyExists = errors.New("already exists")
)

// internal/types/errors.go
package types

import "errors"

// Sentinel errors shared across stores, orchestrator, and the HTTP boundary.
// Call sites wrap these with fmt.Errorf("...: %w", err); the boundary maps
// them to status codes with errors.Is.
var (
	// ErrValidation marks malformed or empty input. No state is mutated.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a missing session, user, or document.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks a request whose resolved tier is below the
	// operation's minimum.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredential marks a non-empty credential that matches no
	// configured secret on an operation requiring elevated access.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrUpstream generalizes any failure of the external model call so
	// provider-specific error payloads never leak to callers.
	ErrUpstream = errors.New("upstream model error")

	// ErrRateLimited marks a request rejected before any store access.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist for the calling
// owner. A guessed id belonging to another owner is indistinguishable from a
// missing one.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates malformed or missing input. Recoverable within a
// chat turn; surfaces as HTTP 400 on the REST API.
var ErrValidation = errors.New("validation failed")

// ErrConflict indicates a uniqueness or concurrent-modification conflict.
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrUnauthorized indicates a missing, expired, or unverifiable credential.
// Surfaces as HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrProviderUnavailable indicates no reasoning backend is configured or the
// configured one is unreachable. Turns fail fast on this so operators can
// tell configuration problems from transient timeouts.
var ErrProviderUnavailable = errors.New("reasoning provider unavailable")

// ErrReasoningTimeout indicates the routing phase exceeded its time bound.
// Raised before any tool execution has started.
var ErrReasoningTimeout = errors.New("reasoning timed out")

// ErrStoreUnavailable indicates the backing store is unreachable.
var ErrStoreUnavailable = errors.New("store unavailable")

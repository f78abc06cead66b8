package domain

import "errors"

// Sentinel errors for the relay core. Handlers convert these to a single
// generic error event delivered to the originating session only; none of
// them leaks storage identifiers or stack detail to clients.
var (
	// ErrUnauthenticated means the connection credential was missing,
	// malformed or expired. Fatal to the connection attempt.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the identity is not a participant of the target
	// conversation. The connection stays open.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means a referenced conversation or message is absent.
	ErrNotFound = errors.New("not found")
)

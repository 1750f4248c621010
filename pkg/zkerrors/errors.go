// Package zkerrors defines the sentinel error taxonomy shared across every
// zkauth package. Producing packages wrap one of these sentinels with
// fmt.Errorf("...: %w", ...) so callers can errors.Is against a single,
// stable set of kinds instead of per-package error values.
package zkerrors

import "errors"

var (
	// ErrInvalidInput indicates an input violated a declared precondition
	// (Field, MasterKey.FromHex, Sharing.Split/Combine).
	ErrInvalidInput = errors.New("zkauth: invalid input")

	// ErrConfigError indicates AuthCore construction failed validation:
	// fewer enabled backends than threshold, threshold < 2, or total > 255.
	ErrConfigError = errors.New("zkauth: invalid configuration")

	// ErrAlreadyRegistered indicates Register was called for a user id that
	// IsRegistered already reports as registered.
	ErrAlreadyRegistered = errors.New("zkauth: already registered")

	// ErrNotRegistered indicates Login was called for a user id that
	// IsRegistered reports as not registered.
	ErrNotRegistered = errors.New("zkauth: not registered")

	// ErrInsufficientShares indicates fewer than the threshold number of
	// valid, distinct shares could be obtained during login or combine.
	ErrInsufficientShares = errors.New("zkauth: insufficient shares")

	// ErrAuthenticationFailure indicates an AEAD tag mismatch, a signature
	// mismatch, or a decoded shape that failed validation.
	ErrAuthenticationFailure = errors.New("zkauth: authentication failure")

	// ErrSessionExpired indicates a session or token operation was
	// attempted after its expiry time.
	ErrSessionExpired = errors.New("zkauth: session expired")

	// ErrBackendUnavailable indicates a transient failure talking to a
	// storage backend. AuthCore demotes this to a per-share failure during
	// login; it is fatal during registration.
	ErrBackendUnavailable = errors.New("zkauth: backend unavailable")
)

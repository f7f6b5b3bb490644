package auth

import "errors"

// Common errors for authentication operations.
//
// Provider-level failures (network, bind, protocol, timeout) are caught
// at the authenticator boundary and converted to ErrAuthenticationFailed
// before they reach a caller. The root cause is logged internally but
// never surfaced to the requester.
var (
	// ErrAuthenticationFailed is the uniform failure signal for any
	// rejected authentication attempt, regardless of backend or cause.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrUserNotKnown signals that an authenticator has no record of the
	// presented username and the next provider in the chain may be tried.
	// It never escapes the broker.
	ErrUserNotKnown = errors.New("user not known to provider")
)

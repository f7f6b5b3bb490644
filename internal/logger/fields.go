package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so that auth
// events can be aggregated and queried by provider, principal, and path.
const (
	// Request identification
	KeyRequestID = "request_id" // Router-assigned request ID
	KeyMethod    = "method"     // HTTP method
	KeyPath      = "path"       // Request path
	KeyClientIP  = "client_ip"  // Client IP address
	KeyStatus    = "status"     // HTTP status code

	// Authentication
	KeyPrincipal  = "principal"   // Principal id (username or subject id)
	KeyProvider   = "provider"    // Authentication provider: local, directory, external
	KeyAuthSource = "auth_source" // Auth source tag on the resolved principal
	KeyUsername   = "username"    // Username presented at login
	KeyRoles      = "roles"       // Granted roles

	// Authorization
	KeyDecision = "decision" // Access decision: public, allow, deny_unauthenticated, deny_forbidden
	KeyRule     = "rule"     // Matched access rule pattern

	// Operation metadata
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// Principal returns a slog.Attr for the resolved principal id
func Principal(id string) slog.Attr {
	return slog.String(KeyPrincipal, id)
}

// Provider returns a slog.Attr for the authentication provider name
func Provider(name string) slog.Attr {
	return slog.String(KeyProvider, name)
}

// Decision returns a slog.Attr for an access decision
func Decision(d string) slog.Attr {
	return slog.String(KeyDecision, d)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Package middleware provides HTTP middleware for the Gatewarden API.
package middleware

import (
	"context"
	"net/http"

	"github.com/gatewarden/gatewarden/internal/logger"
	"github.com/gatewarden/gatewarden/pkg/api/session"
	"github.com/gatewarden/gatewarden/pkg/auth"
	"github.com/gatewarden/gatewarden/pkg/authz"
	"github.com/gatewarden/gatewarden/pkg/metrics"
)

// Context key type for storing the principal
type contextKey string

const principalContextKey contextKey = "principal"

// PrincipalFromContext retrieves the resolved principal from the request
// context. Returns nil when the request is anonymous.
//
// This function should only be called in handler code that runs after
// the SessionAuth middleware.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	principal, ok := ctx.Value(principalContextKey).(*auth.Principal)
	if !ok {
		return nil
	}
	return principal
}

// ContextWithPrincipal returns a context carrying the principal.
// Exposed for handler tests.
func ContextWithPrincipal(ctx context.Context, principal *auth.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// SessionAuth resolves the session cookie into a principal and stores it
// in the request context. Requests without a session, or with an invalid
// or expired one, continue anonymously; access control decides what an
// anonymous request may reach.
func SessionAuth(sessions *session.Service, authMetrics metrics.AuthMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := sessions.FromRequest(r)
			if err != nil {
				if authMetrics != nil {
					authMetrics.RecordSession("invalid")
				}
				logger.DebugCtx(r.Context(), "session rejected", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if principal == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Enrich the log context so every downstream log line
			// carries the principal.
			ctx := ContextWithPrincipal(r.Context(), principal)
			if lc := logger.FromContext(ctx); lc != nil {
				lc.Principal = principal.ID
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessControl enforces the access rule table on every request.
//
// Decisions map to transport behavior:
//   - PUBLIC and ALLOW pass through
//   - DENY_UNAUTHENTICATED redirects browsers to the login entry point
//   - DENY_FORBIDDEN renders a 403 problem response
//
// Must be used after SessionAuth.
func AccessControl(matcher *authz.Matcher, authMetrics metrics.AuthMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			decision := matcher.Decide(r.URL.Path, principal)

			if authMetrics != nil {
				authMetrics.RecordDecision(string(decision), r.URL.Path)
			}

			switch decision {
			case authz.DecisionPublic, authz.DecisionAllow:
				next.ServeHTTP(w, r)

			case authz.DecisionDenyUnauthenticated:
				logger.DebugCtx(r.Context(), "access denied, authentication required",
					logger.Decision(string(decision)), "path", r.URL.Path)
				http.Redirect(w, r, "/login", http.StatusFound)

			case authz.DecisionDenyForbidden:
				logger.InfoCtx(r.Context(), "access denied, insufficient role",
					logger.Decision(string(decision)),
					logger.Principal(principal.ID),
					"path", r.URL.Path,
					"roles", principal.RoleNames())
				forbidden(w)

			default:
				forbidden(w)
			}
		})
	}
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"type":"about:blank","title":"Forbidden","status":403,"detail":"You do not have permission to access this resource"}` + "\n"))
}

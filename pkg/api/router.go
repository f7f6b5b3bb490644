package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gatewarden/gatewarden/internal/logger"
	"github.com/gatewarden/gatewarden/pkg/api/handlers"
	"github.com/gatewarden/gatewarden/pkg/api/middleware"
	"github.com/gatewarden/gatewarden/pkg/api/session"
	"github.com/gatewarden/gatewarden/pkg/auth"
	"github.com/gatewarden/gatewarden/pkg/authz"
	"github.com/gatewarden/gatewarden/pkg/metrics"
	"github.com/gatewarden/gatewarden/pkg/profile"
)

// RouterDeps carries the collaborators the router wires into handlers.
type RouterDeps struct {
	Broker      *auth.Broker
	Chain       []auth.Authenticator
	Sessions    *session.Service
	Matcher     *authz.Matcher
	Profiles    *profile.Store
	AuthMetrics metrics.AuthMetrics
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//   - Session resolution and access control on every route
//
// The access rule table, not per-route middleware, decides who reaches
// what: handlers below assume the decision has already been made.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SessionAuth(deps.Sessions, deps.AuthMetrics))
	r.Use(middleware.AccessControl(deps.Matcher, deps.AuthMetrics))

	authHandler := handlers.NewAuthHandler(deps.Broker, deps.Sessions, deps.AuthMetrics)
	pages := handlers.NewPagesHandler()
	profilesHandler := handlers.NewProfilesHandler(deps.Profiles)
	healthHandler := handlers.NewHealthHandler(deps.Chain, deps.Broker.ExternalEnabled())

	// Public entry points
	r.Get("/health", healthHandler.Liveness)
	r.Get("/login", authHandler.LoginPage)
	r.Post("/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)
	r.Post("/logout", authHandler.Logout)
	r.Get("/oauth2/authorize", authHandler.ExternalInitiate)
	r.Get("/oauth2/callback", authHandler.ExternalCallback)

	// Authenticated content
	r.Get("/", pages.Home)
	r.Get("/secure", pages.Secure)
	r.Get("/hello", pages.Hello)
	r.Get("/roles", pages.Roles)

	// Role-gated subtrees; the rule table enforces the role checks
	r.Get("/admin", pages.Admin)
	r.Get("/admin/api", pages.AdminAPI)
	r.Get("/moderator", pages.Moderator)
	r.Get("/moderator/api", pages.ModeratorAPI)
	r.Get("/viewer", pages.Viewer)
	r.Get("/viewer/api", pages.ViewerAPI)

	// Profile registry
	r.Route("/api", func(r chi.Router) {
		r.Get("/", pages.APIWelcome)
		r.Route("/users", func(r chi.Router) {
			r.Get("/", profilesHandler.List)
			r.Post("/", profilesHandler.Create)
			r.Get("/count", profilesHandler.Count)
			r.Get("/{id}", profilesHandler.Get)
			r.Put("/{id}", profilesHandler.Update)
			r.Delete("/{id}", profilesHandler.Delete)
		})
	})

	return r
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It seeds the log context so every downstream line carries the request
// id, method, path and client IP, then logs:
//   - Request start (DEBUG level)
//   - Request completion (INFO level): status, bytes, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimw.GetReqID(r.Context())

		lc := logger.NewLogContext(requestID, r.Method, r.URL.Path, r.RemoteAddr)
		ctx := logger.WithContext(r.Context(), lc)

		logger.DebugCtx(ctx, "request started")

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.InfoCtx(ctx, "request completed",
			logger.KeyStatus, ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.KeyDurationMs, time.Since(start).Milliseconds(),
		)
	})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gatewarden/gatewarden/internal/logger"
	"github.com/gatewarden/gatewarden/pkg/api/session"
	"github.com/gatewarden/gatewarden/pkg/auth"
	"github.com/gatewarden/gatewarden/pkg/metrics"
)

// stateCookieName carries the external handshake state between the
// initiation redirect and the provider callback.
const stateCookieName = "gatewarden_oauth_state"

// stateCookieTTL bounds how long a pending handshake stays valid.
const stateCookieTTL = 10 * time.Minute

// AuthHandler handles the login, logout and external handshake endpoints.
type AuthHandler struct {
	broker   *auth.Broker
	sessions *session.Service
	metrics  metrics.AuthMetrics
}

// NewAuthHandler creates a new AuthHandler. authMetrics may be nil.
func NewAuthHandler(broker *auth.Broker, sessions *session.Service, authMetrics metrics.AuthMetrics) *AuthHandler {
	return &AuthHandler{
		broker:   broker,
		sessions: sessions,
		metrics:  authMetrics,
	}
}

// LoginPage handles GET /login.
//
// The error and logout query parameters mirror the redirect indicators
// set by failed logins and logouts, so a client can render the right
// message.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"page":           "login",
		"external_login": h.broker.ExternalEnabled(),
	}
	if r.URL.Query().Has("error") {
		resp["error"] = "Invalid username or password"
	}
	if r.URL.Query().Has("logout") {
		resp["message"] = "You have been logged out"
	}
	WriteJSONOK(w, resp)
}

// Login handles POST /login.
//
// Accepts form-encoded username and password. On success a session
// cookie is set and the client is redirected to the landing route; on
// failure the client is redirected back to /login with an error
// indicator. The redirect never distinguishes unknown users from bad
// passwords.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error", http.StatusFound)
		return
	}

	creds := auth.Credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	principal, err := h.broker.Login(r.Context(), creds)
	if err != nil {
		http.Redirect(w, r, "/login?error", http.StatusFound)
		return
	}

	if !h.issueSession(w, r, principal) {
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles GET and POST /logout. Clears the session cookie and
// redirects to the login route with a logout indicator.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	if h.metrics != nil {
		h.metrics.RecordSession("cleared")
	}
	logger.InfoCtx(r.Context(), "session cleared")
	http.Redirect(w, r, "/login?logout", http.StatusFound)
}

// ExternalInitiate handles GET /oauth2/authorize.
//
// Generates a fresh state token, stores it in a short-lived cookie and
// redirects the client to the provider's consent page.
func (h *AuthHandler) ExternalInitiate(w http.ResponseWriter, r *http.Request) {
	if !h.broker.ExternalEnabled() {
		NotFound(w, "External login is not configured")
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/oauth2",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.broker.ExternalHandshakeURL(state), http.StatusFound)
}

// ExternalCallback handles GET /oauth2/callback.
//
// Verifies the state token against the cookie set at initiation, then
// completes the handshake. Any mismatch or provider failure sends the
// client back to /login with an error indicator.
func (h *AuthHandler) ExternalCallback(w http.ResponseWriter, r *http.Request) {
	if !h.broker.ExternalEnabled() {
		NotFound(w, "External login is not configured")
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		logger.WarnCtx(r.Context(), "external callback state mismatch")
		http.Redirect(w, r, "/login?error", http.StatusFound)
		return
	}

	// The state token is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/oauth2",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/login?error", http.StatusFound)
		return
	}

	principal, err := h.broker.CompleteExternal(r.Context(), code)
	if err != nil {
		http.Redirect(w, r, "/login?error", http.StatusFound)
		return
	}

	if !h.issueSession(w, r, principal) {
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// issueSession signs a session for the principal and sets the cookie.
// Returns false after writing an error response when signing fails.
func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, principal *auth.Principal) bool {
	token, err := h.sessions.Issue(principal)
	if err != nil {
		logger.ErrorCtx(r.Context(), "failed to issue session", logger.Err(err))
		InternalServerError(w, "Failed to establish session")
		return false
	}

	h.sessions.SetCookie(w, token)
	if h.metrics != nil {
		h.metrics.RecordSession("issued")
	}
	return true
}

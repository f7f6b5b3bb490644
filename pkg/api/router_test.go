package api

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/pkg/api/session"
	"github.com/gatewarden/gatewarden/pkg/auth"
	"github.com/gatewarden/gatewarden/pkg/authz"
	"github.com/gatewarden/gatewarden/pkg/profile"
)

// fakeExternalProvider fakes the OAuth2 provider endpoints the adapter
// talks to during the handshake.
func fakeExternalProvider(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fake-token",
			"token_type":   "Bearer",
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub":   "123",
			"email": "j@x.com",
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type testEnv struct {
	server *httptest.Server
	client *http.Client
}

// newTestEnv stands up the full router over a local credential store and
// a fake external provider. The client carries a cookie jar and does not
// follow redirects, so tests can assert on Location headers.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	adminHash, err := auth.HashPassword("admin-secret")
	require.NoError(t, err)
	moderatorHash, err := auth.HashPassword("moderator-secret")
	require.NoError(t, err)
	viewerHash, err := auth.HashPassword("viewer-secret")
	require.NoError(t, err)

	store, err := auth.NewCredentialStore(adminHash, moderatorHash, viewerHash)
	require.NoError(t, err)

	provider := fakeExternalProvider(t)
	external := auth.NewExternalIdentityAdapter(auth.ExternalConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost/oauth2/callback",
		AuthURL:      provider.URL + "/auth",
		TokenURL:     provider.URL + "/token",
		UserInfoURL:  provider.URL + "/userinfo",
	}, []auth.Role{auth.RoleViewer})

	chain := []auth.Authenticator{auth.NewLocalAuthenticator(store)}
	broker := auth.NewBroker(chain, external, nil)

	sessions := session.NewService(session.Config{
		Secret:     "0123456789abcdef0123456789abcdef",
		TTL:        time.Hour,
		CookieName: "gatewarden_session",
	})

	router := NewRouter(RouterDeps{
		Broker:   broker,
		Chain:    chain,
		Sessions: sessions,
		Matcher:  authz.NewMatcher(authz.DefaultRules()),
		Profiles: profile.NewStore(profile.DefaultSeed()...),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{server: server, client: client}
}

// login posts the credential form and asserts the redirect target.
func (e *testEnv) login(t *testing.T, username, password, wantLocation string) {
	t.Helper()

	resp, err := e.client.PostForm(e.server.URL+"/login", url.Values{
		"username": {username},
		"password": {password},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, wantLocation, resp.Header.Get("Location"))
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthIsPublic(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/health")
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gatewarden", body["service"])
}

func TestAnonymousIsRedirectedToLogin(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/", "/secure", "/admin", "/api/users/"} {
		resp := env.get(t, path)
		resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}
}

func TestLocalLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	env.login(t, "admin", "admin-secret", "/")

	resp := env.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	user := body["user"].(map[string]any)
	assert.Equal(t, "admin", user["username"])
	assert.Equal(t, "local", user["auth_source"])
	assert.Equal(t, []any{"admin"}, user["roles"])
}

func TestLocalLoginFailureRedirects(t *testing.T) {
	env := newTestEnv(t)

	env.login(t, "admin", "wrong-password", "/login?error")

	// Still anonymous afterwards.
	resp := env.get(t, "/secure")
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestRoleGatedRoutes(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		password   string
		path       string
		wantStatus int
	}{
		{"admin reaches admin api", "admin", "admin-secret", "/admin/api", http.StatusOK},
		{"admin reaches viewer area", "admin", "admin-secret", "/viewer", http.StatusOK},
		{"moderator reaches moderator panel", "moderator", "moderator-secret", "/moderator", http.StatusOK},
		{"moderator blocked from admin", "moderator", "moderator-secret", "/admin", http.StatusForbidden},
		{"viewer reaches viewer api", "viewer", "viewer-secret", "/viewer/api", http.StatusOK},
		{"viewer blocked from moderator", "viewer", "viewer-secret", "/moderator", http.StatusForbidden},
		{"viewer blocked from admin api", "viewer", "viewer-secret", "/admin/api", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.login(t, tt.username, tt.password, "/")

			resp := env.get(t, tt.path)
			resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
			}
		})
	}
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "viewer", "viewer-secret", "/")

	resp := env.get(t, "/logout")
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?logout", resp.Header.Get("Location"))

	resp = env.get(t, "/secure")
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLoginPageIndicators(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/login?error")
	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid username or password", body["error"])

	resp = env.get(t, "/login?logout")
	body = decodeBody(t, resp)
	assert.Equal(t, "You have been logged out", body["message"])
}

func TestExternalHandshakeFlow(t *testing.T) {
	env := newTestEnv(t)

	// Initiation redirects to the provider and plants the state cookie.
	resp := env.get(t, "/oauth2/authorize")
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	// Callback with the matching state completes the handshake.
	resp = env.get(t, "/oauth2/callback?state="+state+"&code=good-code")
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	// The external principal uses the email fallback for its display
	// name and lands in the viewer area only.
	resp = env.get(t, "/secure")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	user := body["user"].(map[string]any)
	assert.Equal(t, "j@x.com", user["username"])
	assert.Equal(t, "external", user["auth_source"])

	resp = env.get(t, "/admin")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestExternalCallbackStateMismatch(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/oauth2/authorize")
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp = env.get(t, "/oauth2/callback?state=forged&code=good-code")
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?error", resp.Header.Get("Location"))
}

func TestProfileRegistryCRUD(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin", "admin-secret", "/")

	// Seeded registry.
	resp := env.get(t, "/api/users/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []profile.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	resp.Body.Close()
	require.Len(t, listed, 2)
	assert.Equal(t, "John Doe", listed[0].Name)

	// Create.
	resp, err := env.client.Post(env.server.URL+"/api/users/", "application/json",
		strings.NewReader(`{"name":"Ada Lovelace","email":"ada@example.com"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created profile.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, int64(3), created.ID)

	// Duplicate email conflicts.
	resp, err = env.client.Post(env.server.URL+"/api/users/", "application/json",
		strings.NewReader(`{"name":"Dup","email":"ada@example.com"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Invalid body is rejected.
	resp, err = env.client.Post(env.server.URL+"/api/users/", "application/json",
		strings.NewReader(`{"name":"","email":"not-an-email"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Count.
	resp = env.get(t, "/api/users/count")
	body := decodeBody(t, resp)
	assert.Equal(t, float64(3), body["count"])

	// Update.
	req, err := http.NewRequest(http.MethodPut, env.server.URL+"/api/users/3",
		strings.NewReader(`{"name":"Ada King","email":"ada@example.com"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = env.client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated profile.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	resp.Body.Close()
	assert.Equal(t, "Ada King", updated.Name)

	// Delete, then 404.
	req, err = http.NewRequest(http.MethodDelete, env.server.URL+"/api/users/3", nil)
	require.NoError(t, err)
	resp, err = env.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.get(t, "/api/users/3")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHelloAndRoles(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "moderator", "moderator-secret", "/")

	resp := env.get(t, "/hello?name=Gophers")
	body := decodeBody(t, resp)
	assert.Equal(t, "Hello, Gophers!", body["message"])

	resp = env.get(t, "/hello")
	body = decodeBody(t, resp)
	assert.Equal(t, "Hello, World!", body["message"])

	resp = env.get(t, "/roles")
	body = decodeBody(t, resp)
	assert.Equal(t, "moderator", body["username"])
	assert.Equal(t, []any{"moderator"}, body["roles"])
}

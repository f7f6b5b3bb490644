package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/pkg/api/middleware"
	"github.com/gatewarden/gatewarden/pkg/auth"
)

func pageRequest(t *testing.T, path string, p *auth.Principal) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if p != nil {
		req = req.WithContext(middleware.ContextWithPrincipal(req.Context(), p))
	}
	return req
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHomeAnonymous(t *testing.T) {
	// Reachable without a session when an operator lists "/" in
	// public_paths; rendering must not assume a principal.
	h := NewPagesHandler()
	rec := httptest.NewRecorder()

	h.Home(rec, pageRequest(t, "/", nil))

	body := decodePage(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "anonymous", user["username"])
	assert.Equal(t, "anonymous", user["auth_source"])
	assert.Empty(t, user["roles"])
}

func TestHomeAuthenticated(t *testing.T) {
	h := NewPagesHandler()
	rec := httptest.NewRecorder()

	h.Home(rec, pageRequest(t, "/", auth.FromLocal("admin", auth.RoleAdmin)))

	body := decodePage(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "admin", user["username"])
	assert.Equal(t, string(auth.SourceLocal), user["auth_source"])
}

func TestRolesAnonymous(t *testing.T) {
	h := NewPagesHandler()
	rec := httptest.NewRecorder()

	h.Roles(rec, pageRequest(t, "/roles", nil))

	body := decodePage(t, rec)
	assert.Equal(t, "anonymous", body["username"])
	assert.Empty(t, body["roles"])
}

func TestRolePagesAnonymous(t *testing.T) {
	h := NewPagesHandler()

	pages := map[string]http.HandlerFunc{
		"/secure":        h.Secure,
		"/admin":         h.Admin,
		"/admin/api":     h.AdminAPI,
		"/moderator":     h.Moderator,
		"/moderator/api": h.ModeratorAPI,
		"/viewer":        h.Viewer,
		"/viewer/api":    h.ViewerAPI,
	}

	for path, handler := range pages {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			assert.NotPanics(t, func() {
				handler(rec, pageRequest(t, path, nil))
			})
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

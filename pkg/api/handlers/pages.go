package handlers

import (
	"fmt"
	"net/http"

	"github.com/gatewarden/gatewarden/pkg/api/middleware"
	"github.com/gatewarden/gatewarden/pkg/auth"
)

// PagesHandler serves the content endpoints behind the access rules.
// These render the per-request identity the authorization layer
// resolved; all interesting logic happens before the request gets here.
type PagesHandler struct{}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

// identityView is the principal projection pages render.
type identityView struct {
	Username   string   `json:"username"`
	AuthSource string   `json:"auth_source"`
	Roles      []string `json:"roles"`
	Email      string   `json:"email,omitempty"`
	Picture    string   `json:"picture,omitempty"`
}

// anonymousName marks requests that carry no principal. Page paths are
// normally behind authenticated-only rules, but an operator can open
// them up via public_paths, so rendering must not assume a principal.
const anonymousName = "anonymous"

func viewOf(p *auth.Principal) identityView {
	if p == nil {
		return identityView{
			Username:   anonymousName,
			AuthSource: anonymousName,
			Roles:      []string{},
		}
	}
	return identityView{
		Username:   p.DisplayName,
		AuthSource: string(p.Source),
		Roles:      p.RoleNames(),
		Email:      p.Email,
		Picture:    p.Picture,
	}
}

// Home handles GET /.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	WriteJSONOK(w, map[string]any{
		"page": "home",
		"user": viewOf(p),
	})
}

// Secure handles GET /secure.
func (h *PagesHandler) Secure(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	WriteJSONOK(w, map[string]any{
		"page": "secure",
		"user": viewOf(p),
	})
}

// Hello handles GET /hello?name=World.
func (h *PagesHandler) Hello(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "World"
	}
	WriteJSONOK(w, map[string]string{
		"message": fmt.Sprintf("Hello, %s!", name),
	})
}

// APIWelcome handles GET /api/.
func (h *PagesHandler) APIWelcome(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, map[string]string{
		"message": "Welcome to Gatewarden!",
	})
}

// principalID names the principal in API payloads.
func principalID(p *auth.Principal) string {
	if p == nil {
		return anonymousName
	}
	return p.ID
}

// Roles handles GET /roles: the current user and their granted roles.
func (h *PagesHandler) Roles(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	roles := []string{}
	if p != nil {
		roles = p.RoleNames()
	}
	WriteJSONOK(w, map[string]any{
		"username": principalID(p),
		"roles":    roles,
	})
}

// rolePage renders one of the role-gated areas.
func (h *PagesHandler) rolePage(w http.ResponseWriter, r *http.Request, role, message string) {
	p := middleware.PrincipalFromContext(r.Context())
	WriteJSONOK(w, map[string]any{
		"page":    role,
		"message": message,
		"user":    viewOf(p),
	})
}

// Admin handles GET /admin.
func (h *PagesHandler) Admin(w http.ResponseWriter, r *http.Request) {
	h.rolePage(w, r, "admin", "Welcome to the Admin Dashboard! You have full administrative access.")
}

// AdminAPI handles GET /admin/api.
func (h *PagesHandler) AdminAPI(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	WriteJSONOK(w, map[string]string{
		"message": fmt.Sprintf("Admin API - Full access granted for user: %s", principalID(p)),
	})
}

// Moderator handles GET /moderator.
func (h *PagesHandler) Moderator(w http.ResponseWriter, r *http.Request) {
	h.rolePage(w, r, "moderator", "Welcome to the Moderator Panel! You can manage content and users.")
}

// ModeratorAPI handles GET /moderator/api.
func (h *PagesHandler) ModeratorAPI(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	WriteJSONOK(w, map[string]string{
		"message": fmt.Sprintf("Moderator API - Content management access for user: %s", principalID(p)),
	})
}

// Viewer handles GET /viewer.
func (h *PagesHandler) Viewer(w http.ResponseWriter, r *http.Request) {
	h.rolePage(w, r, "viewer", "Welcome to the Viewer Area! You have read-only access to content.")
}

// ViewerAPI handles GET /viewer/api.
func (h *PagesHandler) ViewerAPI(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	WriteJSONOK(w, map[string]string{
		"message": fmt.Sprintf("Viewer API - Read-only access for user: %s", principalID(p)),
	})
}

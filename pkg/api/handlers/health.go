package handlers

import (
	"net/http"

	"github.com/gatewarden/gatewarden/pkg/auth"
)

// HealthHandler handles the health check endpoint.
type HealthHandler struct {
	providers []string
}

// NewHealthHandler creates a health handler reporting the configured
// identity providers.
func NewHealthHandler(chain []auth.Authenticator, externalEnabled bool) *HealthHandler {
	providers := make([]string, 0, len(chain)+1)
	for _, p := range chain {
		providers = append(providers, p.Name())
	}
	if externalEnabled {
		providers = append(providers, "external")
	}
	return &HealthHandler{providers: providers}
}

// Liveness handles GET /health.
//
// Returns 200 OK if the server process is running. Designed for
// Kubernetes liveness probes; succeeds as long as the HTTP server is
// responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, map[string]any{
		"status":    "healthy",
		"service":   "gatewarden",
		"providers": h.providers,
	})
}

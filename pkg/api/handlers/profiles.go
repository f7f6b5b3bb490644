package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gatewarden/gatewarden/pkg/profile"
)

// ProfilesHandler handles the /api/users CRUD endpoints backed by the
// in-memory profile registry.
type ProfilesHandler struct {
	store    *profile.Store
	validate *validator.Validate
}

// NewProfilesHandler creates a new ProfilesHandler.
func NewProfilesHandler(store *profile.Store) *ProfilesHandler {
	return &ProfilesHandler{
		store:    store,
		validate: validator.New(),
	}
}

// profileRequest is the request body for create and update.
type profileRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=128"`
	Email string `json:"email" validate:"required,email"`
}

// List handles GET /api/users.
func (h *ProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, h.store.List())
}

// Count handles GET /api/users/count.
func (h *ProfilesHandler) Count(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, map[string]int{"count": h.store.Len()})
}

// Get handles GET /api/users/{id}.
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.profileID(w, r)
	if !ok {
		return
	}

	p, err := h.store.Get(id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	WriteJSONOK(w, p)
}

// Create handles POST /api/users. A duplicate email is a conflict.
func (h *ProfilesHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	if _, exists := h.store.GetByEmail(req.Email); exists {
		Conflict(w, "A user with this email already exists")
		return
	}

	WriteJSONCreated(w, h.store.Create(req.Name, req.Email))
}

// Update handles PUT /api/users/{id}.
func (h *ProfilesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.profileID(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	p, err := h.store.Update(id, req.Name, req.Email)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	WriteJSONOK(w, p)
}

// Delete handles DELETE /api/users/{id}.
func (h *ProfilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.profileID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.writeStoreError(w, err)
		return
	}
	WriteNoContent(w)
}

// profileID parses the {id} URL parameter.
func (h *ProfilesHandler) profileID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		BadRequest(w, "Invalid user id")
		return 0, false
	}
	return id, true
}

// decodeAndValidate decodes the request body and runs field validation.
func (h *ProfilesHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request) (profileRequest, bool) {
	var req profileRequest
	if !decodeJSONBody(w, r, &req) {
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		UnprocessableEntity(w, "Name and a valid email are required")
		return req, false
	}
	return req, true
}

func (h *ProfilesHandler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, profile.ErrProfileNotFound) {
		NotFound(w, "User not found")
		return
	}
	InternalServerError(w, "Profile store error")
}

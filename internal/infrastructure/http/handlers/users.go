package handlers

import (
	"net/http"

	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"go.uber.org/zap"
)

// UserHandlers handles user requests
type UserHandlers struct {
	base
	users     inbound.UserService
	maxUpload int64
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(users inbound.UserService, validator Validator, maxUpload int64, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{
		base:      base{validator: validator, logger: logger},
		users:     users,
		maxUpload: maxUpload,
	}
}

// ListUsers handles GET /api/v1/users?search=&limit=&offset=
func (h *UserHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	users, err := h.users.ListUsers(r.Context(), actor(r), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// CountUsers handles GET /api/v1/users/count
func (h *UserHandlers) CountUsers(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	count, err := h.users.CountUsers(r.Context(), actor(r), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCount(w, count)
}

// GetUser handles GET /api/v1/users/{id}
func (h *UserHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.GetUser(r.Context(), actor(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// CreateUser handles POST /api/v1/users
func (h *UserHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.UserCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), actor(r), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// UpdateUser handles PUT /api/v1/users/{id}
func (h *UserHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.UserCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.UpdateUser(r.Context(), actor(r), id, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/v1/users/{id}
func (h *UserHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.users.DeleteUser(r.Context(), actor(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadAvatar handles PUT /api/v1/users/{id}/avatar with a multipart
// "avatar" file
func (h *UserHandlers) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	file, filename, err := upload(w, r, "avatar", h.maxUpload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer file.Close()

	user, err := h.users.AttachAvatar(r.Context(), actor(r), id, filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

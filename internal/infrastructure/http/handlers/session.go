package handlers

import (
	"net/http"

	"github.com/alchemorsel/recipes/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"go.uber.org/zap"
)

// SessionHandlers handles login, refresh and logout
type SessionHandlers struct {
	base
	sessions inbound.SessionService
	auth     *middleware.Authenticator
}

// NewSessionHandlers creates a new session handlers instance
func NewSessionHandlers(sessions inbound.SessionService, auth *middleware.Authenticator, validator Validator, logger *zap.Logger) *SessionHandlers {
	return &SessionHandlers{
		base:     base{validator: validator, logger: logger},
		sessions: sessions,
		auth:     auth,
	}
}

// Login handles POST /api/v1/session/login
func (h *SessionHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.LoginCommand
	if err := h.decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	session, err := h.sessions.Login(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.auth.SetCookie(w, session.Token, session.ExpiresAt)
	h.writeJSON(w, http.StatusOK, session)
}

// Refresh handles POST /api/v1/session/refresh
func (h *SessionHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Refresh(r.Context(), actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.auth.SetCookie(w, session.Token, session.ExpiresAt)
	h.writeJSON(w, http.StatusOK, session)
}

// Logout handles DELETE /api/v1/session. The token in use is revoked and
// the cookie expired.
func (h *SessionHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.CurrentSession(r.Context())
	if claims == nil {
		h.writeError(w, r, errors.NewUnauthorizedError(""))
		return
	}

	if err := h.sessions.Logout(r.Context(), claims.TokenID, claims.ExpiresAt); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.auth.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

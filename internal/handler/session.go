package handler

import (
	"net/http"

	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/handler/dto"
	"github.com/tasktrack/tasktrack/internal/service"
)

// SessionHandler signs users in and out.
type SessionHandler struct {
	svc    *service.SessionService
	errors errorMapper
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// SignIn handles POST /sessions.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	creds := req.Fields()
	token, err := h.svc.SignIn(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.TokenResponse{Token: token})
}

// SignOut handles DELETE /sessions.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context(), auth.IdentityFromContext(r.Context())); err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: MsgLoggedOut})
}

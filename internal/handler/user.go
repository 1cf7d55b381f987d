package handler

import (
	"net/http"

	"github.com/tasktrack/tasktrack/internal/handler/dto"
	"github.com/tasktrack/tasktrack/internal/service"
)

// UserHandler handles account registration.
type UserHandler struct {
	svc    *service.UserService
	errors errorMapper
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register handles POST /users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	f := req.Fields()
	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:                f.Email,
		Password:             f.Password,
		PasswordConfirmation: f.PasswordConfirmation,
	})
	if err != nil {
		h.errors.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RegisterResponse{
		Message: MsgUserCreated,
		User:    dto.ToUserResponse(user),
	})
}

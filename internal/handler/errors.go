package handler

import (
	"errors"
	"log/slog"
	"net/http"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/tasktrack/tasktrack/internal/handler/dto"
	"github.com/tasktrack/tasktrack/internal/service"
)

// Response messages.
const (
	MsgUnauthorized       = "Unauthorized"
	MsgProjectNotFound    = "Project not found"
	MsgTaskNotFound       = "Task not found"
	MsgInvalidBody        = "Invalid request body"
	MsgInternal           = "Internal server error"
	MsgInvalidCredentials = "Invalid credentials"
	MsgProjectForbidden   = "You are not authorized to access this project"
	MsgTaskForbidden      = "You are not authorized to modify tasks for this project"
	MsgLoggedOut          = "Logged out successfully"
	MsgUserCreated        = "User created successfully"
)

// errorMapper turns service errors into HTTP responses. The forbidden message
// depends on the resource family the handler serves.
type errorMapper struct {
	forbidden string
}

// write maps err to its response. Unknown errors are logged with the request
// logger and reported as 500 without details.
func (m errorMapper) write(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Errors: verr.Messages})
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, MsgUnauthorized)
	case errors.Is(err, service.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, MsgProjectNotFound)
	case errors.Is(err, service.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, MsgTaskNotFound)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, m.forbidden)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, dto.CredentialsErrorResponse{Errors: MsgInvalidCredentials})
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, MsgUnauthorized)
	default:
		slogcontext.FromCtx(r.Context()).Error("internal_error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, MsgInternal)
	}
}

// writeError writes an {"error": message} response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}

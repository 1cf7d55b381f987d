package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/handler/dto"
	"github.com/tasktrack/tasktrack/internal/service"
)

// TaskHandler handles HTTP requests for the tasks of a project.
type TaskHandler struct {
	svc    *service.TaskService
	errors errorMapper
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{
		svc:    svc,
		errors: errorMapper{forbidden: MsgTaskForbidden},
	}
}

// List handles GET /projects/{projectId}/tasks.
// An optional ?status= narrows the result; unknown values are ignored.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.List(r.Context(), auth.IdentityFromContext(r.Context()),
		chi.URLParam(r, paramProjectID), r.URL.Query().Get("status"))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToTaskList(tasks))
}

// Get handles GET /projects/{projectId}/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Get(r.Context(), auth.IdentityFromContext(r.Context()),
		chi.URLParam(r, paramProjectID), chi.URLParam(r, paramTaskID))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// Create handles POST /projects/{projectId}/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	task, err := h.svc.Create(r.Context(), auth.IdentityFromContext(r.Context()),
		chi.URLParam(r, paramProjectID), taskInput(req.Fields()))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ToTaskResponse(task))
}

// Update handles PATCH and PUT /projects/{projectId}/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.TaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	task, err := h.svc.Update(r.Context(), auth.IdentityFromContext(r.Context()),
		chi.URLParam(r, paramProjectID), chi.URLParam(r, paramTaskID), taskInput(req.Fields()))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// Delete handles DELETE /projects/{projectId}/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Delete(r.Context(), auth.IdentityFromContext(r.Context()),
		chi.URLParam(r, paramProjectID), chi.URLParam(r, paramTaskID))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func taskInput(f dto.TaskFields) service.TaskInput {
	return service.TaskInput{
		Title:       f.Title,
		Description: f.Description,
		Status:      f.Status,
	}
}

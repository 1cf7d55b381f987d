package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/handler/dto"
	"github.com/tasktrack/tasktrack/internal/service"
)

// ProjectHandler handles HTTP requests for project operations.
type ProjectHandler struct {
	svc    *service.ProjectService
	errors errorMapper
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		svc:    svc,
		errors: errorMapper{forbidden: MsgProjectForbidden},
	}
}

// List handles GET /projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.List(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToProjectList(projects))
}

// Get handles GET /projects/{projectId}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.svc.Get(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, paramProjectID))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToProjectResponse(project))
}

// Create handles POST /projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	project, err := h.svc.Create(r.Context(), auth.IdentityFromContext(r.Context()), projectInput(req.Fields()))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ToProjectResponse(project))
}

// Update handles PATCH and PUT /projects/{projectId}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.ProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	project, err := h.svc.Update(r.Context(), auth.IdentityFromContext(r.Context()),
		chi.URLParam(r, paramProjectID), projectInput(req.Fields()))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToProjectResponse(project))
}

// Delete handles DELETE /projects/{projectId}.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, paramProjectID)); err != nil {
		h.errors.write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func projectInput(f dto.ProjectFields) service.ProjectInput {
	return service.ProjectInput{
		Title:       f.Title,
		Description: f.Description,
	}
}

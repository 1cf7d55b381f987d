package dto

import (
	"time"

	"github.com/tasktrack/tasktrack/internal/model"
)

// TaskSummaryResponse is a task as nested under its project.
type TaskSummaryResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// ProjectResponse represents a project in API responses.
type ProjectResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	OwnerID     string                `json:"owner_id"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Tasks       []TaskSummaryResponse `json:"tasks"`
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterResponse is returned by POST /users.
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// TokenResponse is returned by a successful sign-in.
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents a single API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse lists field-level validation failures.
type ValidationErrorResponse struct {
	Errors []string `json:"errors"`
}

// CredentialsErrorResponse is returned on a failed sign-in.
type CredentialsErrorResponse struct {
	Errors string `json:"errors"`
}

// ToProjectResponse converts a Project model to ProjectResponse DTO.
func ToProjectResponse(project *model.Project) ProjectResponse {
	tasks := make([]TaskSummaryResponse, 0, len(project.Tasks))
	for _, t := range project.Tasks {
		tasks = append(tasks, TaskSummaryResponse{
			ID:     t.ID,
			Title:  t.Title,
			Status: string(t.Status),
		})
	}
	return ProjectResponse{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
		Tasks:       tasks,
	}
}

// ToProjectList converts projects, keeping their order. An empty input
// yields an empty JSON array.
func ToProjectList(projects []*model.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, ToProjectResponse(p))
	}
	return out
}

// ToTaskResponse converts a Task model to TaskResponse DTO.
func ToTaskResponse(task *model.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		ProjectID:   task.ProjectID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskList converts tasks, keeping their order.
func ToTaskList(tasks []*model.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ToTaskResponse(t))
	}
	return out
}

// ToUserResponse converts a User model to its public view.
func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

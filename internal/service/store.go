package service

import (
	"context"

	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/model"
)

// UserStore persists users and their current token.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SetUserToken(ctx context.Context, userID, prefix, hash string) error
	ClearUserToken(ctx context.Context, userID string) error
}

// ProjectStore persists projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, project *model.Project) error
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	GetProjectForOwner(ctx context.Context, ownerID, id string) (*model.Project, error)
	ListProjectsByOwner(ctx context.Context, ownerID string) ([]*model.Project, error)
	UpdateProject(ctx context.Context, project *model.Project) error
	DeleteProject(ctx context.Context, id string) ([]string, error)
	ListTaskSummaries(ctx context.Context, projectIDs []string) (map[string][]model.TaskSummary, error)
}

// TaskStore persists tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, projectID, id string) (*model.Task, error)
	ListTasksByProject(ctx context.Context, projectID string, status model.TaskStatus) ([]*model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, projectID, id string) error
}

// Store is everything the services and the token resolver need from a
// storage backend. Both the PostgreSQL repository and the in-memory store
// implement it.
type Store interface {
	UserStore
	ProjectStore
	TaskStore
	auth.TokenUserFinder
	Ping(ctx context.Context) error
}

// Package memory is an in-process storage backend with the same semantics as
// the PostgreSQL repository. It backs the memory storage mode and unit tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tasktrack/tasktrack/internal/model"
	"github.com/tasktrack/tasktrack/internal/repository"
)

// Store keeps users, projects and tasks in maps guarded by one RWMutex.
// Values are copied on the way in and out so callers never share memory
// with the store.
type Store struct {
	mu       sync.RWMutex
	users    map[string]model.User
	projects map[string]model.Project
	tasks    map[string]model.Task
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[string]model.User),
		projects: make(map[string]model.Project),
		tasks:    make(map[string]model.Task),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// CreateUser stores a new user. Emails are unique case-insensitively.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrEmailExists
		}
	}
	s.users[user.ID] = *user
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// GetUsersByTokenPrefix returns the users whose current token has prefix.
func (s *Store) GetUsersByTokenPrefix(_ context.Context, prefix string) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []*model.User
	for _, user := range s.users {
		if prefix != "" && user.TokenPrefix == prefix {
			user := user
			users = append(users, &user)
		}
	}
	return users, nil
}

// SetUserToken replaces the user's current token.
func (s *Store) SetUserToken(_ context.Context, userID, prefix, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.TokenPrefix = prefix
	user.TokenHash = hash
	s.users[userID] = user
	return nil
}

// ClearUserToken removes the user's current token.
func (s *Store) ClearUserToken(ctx context.Context, userID string) error {
	return s.SetUserToken(ctx, userID, "", "")
}

// CreateProject stores a new project.
func (s *Store) CreateProject(_ context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *project
	stored.Tasks = nil
	s.projects[project.ID] = stored
	return nil
}

// GetProjectByID retrieves a project regardless of its owner.
func (s *Store) GetProjectByID(_ context.Context, id string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	return &project, nil
}

// GetProjectForOwner retrieves a project only if ownerID owns it.
func (s *Store) GetProjectForOwner(_ context.Context, ownerID, id string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[id]
	if !ok || project.OwnerID != ownerID {
		return nil, repository.ErrProjectNotFound
	}
	return &project, nil
}

// ListProjectsByOwner retrieves the owner's projects in creation order.
func (s *Store) ListProjectsByOwner(_ context.Context, ownerID string) ([]*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]*model.Project, 0)
	for _, project := range s.projects {
		if project.OwnerID == ownerID {
			project := project
			projects = append(projects, &project)
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return createdBefore(projects[i].CreatedAt, projects[i].ID, projects[j].CreatedAt, projects[j].ID)
	})
	return projects, nil
}

// UpdateProject updates a project's title and description.
func (s *Store) UpdateProject(_ context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.projects[project.ID]
	if !ok || stored.OwnerID != project.OwnerID {
		return repository.ErrProjectNotFound
	}
	stored.Title = project.Title
	stored.Description = project.Description
	stored.UpdatedAt = project.UpdatedAt
	s.projects[project.ID] = stored
	return nil
}

// DeleteProject deletes a project and its tasks atomically and returns the
// IDs of the deleted tasks.
func (s *Store) DeleteProject(_ context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return nil, repository.ErrProjectNotFound
	}

	var taskIDs []string
	for taskID, task := range s.tasks {
		if task.ProjectID == id {
			taskIDs = append(taskIDs, taskID)
			delete(s.tasks, taskID)
		}
	}
	delete(s.projects, id)
	sort.Strings(taskIDs)
	return taskIDs, nil
}

// CreateTask stores a new task. The parent project must exist.
func (s *Store) CreateTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[task.ProjectID]; !ok {
		return repository.ErrProjectNotFound
	}
	s.tasks[task.ID] = *task
	return nil
}

// GetTask retrieves a task inside a project.
func (s *Store) GetTask(_ context.Context, projectID, id string) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok || task.ProjectID != projectID {
		return nil, repository.ErrTaskNotFound
	}
	return &task, nil
}

// ListTasksByProject retrieves a project's tasks in creation order.
// An empty status returns every task.
func (s *Store) ListTasksByProject(_ context.Context, projectID string, status model.TaskStatus) ([]*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tasksOf(projectID, status), nil
}

// ListTaskSummaries returns the task summaries of several projects keyed by
// project ID.
func (s *Store) ListTaskSummaries(_ context.Context, projectIDs []string) (map[string][]model.TaskSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make(map[string][]model.TaskSummary, len(projectIDs))
	for _, projectID := range projectIDs {
		for _, task := range s.tasksOf(projectID, "") {
			summaries[projectID] = append(summaries[projectID], task.Summary())
		}
	}
	return summaries, nil
}

// UpdateTask updates a task's mutable fields.
func (s *Store) UpdateTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.tasks[task.ID]
	if !ok || stored.ProjectID != task.ProjectID {
		return repository.ErrTaskNotFound
	}
	stored.Title = task.Title
	stored.Description = task.Description
	stored.Status = task.Status
	stored.UpdatedAt = task.UpdatedAt
	s.tasks[task.ID] = stored
	return nil
}

// DeleteTask deletes a task inside a project.
func (s *Store) DeleteTask(_ context.Context, projectID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.ProjectID != projectID {
		return repository.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

// tasksOf must be called with s.mu held.
func (s *Store) tasksOf(projectID string, status model.TaskStatus) []*model.Task {
	tasks := make([]*model.Task, 0)
	for _, task := range s.tasks {
		if task.ProjectID != projectID || (status != "" && task.Status != status) {
			continue
		}
		task := task
		tasks = append(tasks, &task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return createdBefore(tasks[i].CreatedAt, tasks[i].ID, tasks[j].CreatedAt, tasks[j].ID)
	})
	return tasks
}

// createdBefore orders by creation time, then ID, like the SQL queries.
func createdBefore(at time.Time, id string, otherAt time.Time, otherID string) bool {
	if !at.Equal(otherAt) {
		return at.Before(otherAt)
	}
	return id < otherID
}

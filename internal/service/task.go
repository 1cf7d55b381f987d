package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/tasktrack/tasktrack/internal/cache"
	"github.com/tasktrack/tasktrack/internal/metrics"
	"github.com/tasktrack/tasktrack/internal/model"
	"github.com/tasktrack/tasktrack/internal/policy"
	"github.com/tasktrack/tasktrack/internal/repository"
)

// TaskInput holds the writable task fields. A nil field is left unchanged on
// update. On create a nil status defaults to not_started; an empty one is
// invalid like any other value outside the enum.
type TaskInput struct {
	Title       *string
	Description *string
	Status      *string
}

// TaskService handles task business logic. Every operation first loads the
// parent project through the ownership policy.
type TaskService struct {
	tasks   TaskStore
	cache   *cache.Layer
	loader  *projectLoader
	metrics metrics.Recorder
	now     func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(tasks TaskStore, projects ProjectStore, layer *cache.Layer, pol *policy.Policy, recorder metrics.Recorder) *TaskService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if layer == nil {
		layer = cache.NewLayer(nil, 0, recorder)
	}
	if pol == nil {
		pol = policy.New(policy.VisibilityScoped)
	}
	return &TaskService{
		tasks:   tasks,
		cache:   layer,
		loader:  &projectLoader{store: projects, policy: pol},
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ParseStatusFilter returns the status to filter on, or "" when raw is not
// one of the enumerated statuses.
func ParseStatusFilter(raw string) model.TaskStatus {
	status, ok := model.ParseTaskStatus(raw)
	if !ok {
		return ""
	}
	return status
}

// List returns the project's tasks in creation order.
// An unknown status filter is ignored.
func (s *TaskService) List(ctx context.Context, identity *model.Identity, projectID, statusFilter string) ([]*model.Task, error) {
	project, err := s.loader.load(ctx, identity, projectID, policy.ActionView)
	if err != nil {
		return nil, err
	}

	status := ParseStatusFilter(statusFilter)
	return cache.Fetch(ctx, s.cache, cache.TasksKey(project.ID, status), func(ctx context.Context) ([]*model.Task, error) {
		tasks, err := s.tasks.ListTasksByProject(ctx, project.ID, status)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		return tasks, nil
	})
}

// Get returns a task of the project.
func (s *TaskService) Get(ctx context.Context, identity *model.Identity, projectID, taskID string) (*model.Task, error) {
	project, err := s.loader.load(ctx, identity, projectID, policy.ActionView)
	if err != nil {
		return nil, err
	}

	return cache.Fetch(ctx, s.cache, cache.TaskKey(project.ID, taskID), func(ctx context.Context) (*model.Task, error) {
		return s.getTask(ctx, project.ID, taskID)
	})
}

// Create adds a task to the project.
func (s *TaskService) Create(ctx context.Context, identity *model.Identity, projectID string, input TaskInput) (*model.Task, error) {
	project, err := s.loader.load(ctx, identity, projectID, policy.ActionCreate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &model.Task{
		ID:        newID(),
		ProjectID: project.ID,
		Status:    model.TaskStatusNotStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyTaskInput(task, input)

	if err := validationError(task.Validate()); err != nil {
		return nil, err
	}

	if err := s.tasks.CreateTask(ctx, task); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.metrics.IncTaskCreated()

	if err := s.invalidate(ctx, project, task.ID); err != nil {
		return nil, err
	}

	slogcontext.FromCtx(ctx).Info("task created",
		slog.String("project_id", project.ID),
		slog.String("task_id", task.ID),
	)
	return task, nil
}

// Update changes a task of the project. The parent project is immutable.
func (s *TaskService) Update(ctx context.Context, identity *model.Identity, projectID, taskID string, input TaskInput) (*model.Task, error) {
	project, err := s.loader.load(ctx, identity, projectID, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	task, err := s.getTask(ctx, project.ID, taskID)
	if err != nil {
		return nil, err
	}

	applyTaskInput(task, input)
	if err := validationError(task.Validate()); err != nil {
		return nil, err
	}
	task.UpdatedAt = s.now()

	if err := s.tasks.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	s.metrics.IncTaskUpdated()

	if err := s.invalidate(ctx, project, task.ID); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task of the project.
func (s *TaskService) Delete(ctx context.Context, identity *model.Identity, projectID, taskID string) error {
	project, err := s.loader.load(ctx, identity, projectID, policy.ActionDelete)
	if err != nil {
		return err
	}

	if err := s.tasks.DeleteTask(ctx, project.ID, taskID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}
	s.metrics.IncTaskDeleted()

	return s.invalidate(ctx, project, taskID)
}

func (s *TaskService) getTask(ctx context.Context, projectID, taskID string) (*model.Task, error) {
	task, err := s.tasks.GetTask(ctx, projectID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// invalidate drops the task item, every filter variant of the task
// collection and the project projections that embed task summaries.
func (s *TaskService) invalidate(ctx context.Context, project *model.Project, taskID string) error {
	keys := []string{cache.TaskKey(project.ID, taskID)}
	keys = append(keys, cache.TaskCollectionKeys(project.ID)...)
	keys = append(keys, projectKeys(project.OwnerID, project.ID)...)
	return s.cache.Invalidate(ctx, keys...)
}

func applyTaskInput(task *model.Task, input TaskInput) {
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = model.TaskStatus(*input.Status)
	}
}

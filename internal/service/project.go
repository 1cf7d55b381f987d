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

// ProjectInput holds the writable project fields. A nil field is left unchanged
// on update and treated as empty on create.
type ProjectInput struct {
	Title       *string
	Description *string
}

// ProjectService handles project business logic.
type ProjectService struct {
	store   ProjectStore
	cache   *cache.Layer
	loader  *projectLoader
	metrics metrics.Recorder
	now     func() time.Time
}

// NewProjectService creates a new ProjectService.
func NewProjectService(store ProjectStore, layer *cache.Layer, pol *policy.Policy, recorder metrics.Recorder) *ProjectService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if layer == nil {
		layer = cache.NewLayer(nil, 0, recorder)
	}
	if pol == nil {
		pol = policy.New(policy.VisibilityScoped)
	}
	return &ProjectService{
		store:   store,
		cache:   layer,
		loader:  &projectLoader{store: store, policy: pol},
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns the caller's projects in creation order, each with its task summaries.
func (s *ProjectService) List(ctx context.Context, identity *model.Identity) ([]*model.Project, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	return cache.Fetch(ctx, s.cache, cache.ProjectsKey(identity.UserID), func(ctx context.Context) ([]*model.Project, error) {
		projects, err := s.store.ListProjectsByOwner(ctx, identity.UserID)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		if err := s.attachSummaries(ctx, projects...); err != nil {
			return nil, err
		}
		return projects, nil
	})
}

// Get returns one of the caller's projects with its task summaries.
// The cache is keyed by caller and only filled after the policy allowed the read.
func (s *ProjectService) Get(ctx context.Context, identity *model.Identity, id string) (*model.Project, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	return cache.Fetch(ctx, s.cache, cache.ProjectKey(identity.UserID, id), func(ctx context.Context) (*model.Project, error) {
		project, err := s.loader.load(ctx, identity, id, policy.ActionView)
		if err != nil {
			return nil, err
		}
		if err := s.attachSummaries(ctx, project); err != nil {
			return nil, err
		}
		return project, nil
	})
}

// Create creates a project owned by the caller.
func (s *ProjectService) Create(ctx context.Context, identity *model.Identity, input ProjectInput) (*model.Project, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	now := s.now()
	project := &model.Project{
		ID:        newID(),
		OwnerID:   identity.UserID,
		Tasks:     []model.TaskSummary{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyProjectInput(project, input)

	if err := validationError(project.Validate()); err != nil {
		return nil, err
	}

	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.metrics.IncProjectCreated()

	if err := s.cache.Invalidate(ctx, cache.ProjectsKey(identity.UserID)); err != nil {
		return nil, err
	}

	slogcontext.FromCtx(ctx).Info("project created", slog.String("project_id", project.ID))
	return project, nil
}

// Update changes the title and description of one of the caller's projects.
func (s *ProjectService) Update(ctx context.Context, identity *model.Identity, id string, input ProjectInput) (*model.Project, error) {
	project, err := s.loader.load(ctx, identity, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	applyProjectInput(project, input)
	if err := validationError(project.Validate()); err != nil {
		return nil, err
	}
	project.UpdatedAt = s.now()

	if err := s.store.UpdateProject(ctx, project); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("update project: %w", err)
	}
	s.metrics.IncProjectUpdated()

	if err := s.cache.Invalidate(ctx, projectKeys(project.OwnerID, project.ID)...); err != nil {
		return nil, err
	}

	if err := s.attachSummaries(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes one of the caller's projects together with its tasks.
// Every cached projection of the project and its tasks is dropped.
func (s *ProjectService) Delete(ctx context.Context, identity *model.Identity, id string) error {
	project, err := s.loader.load(ctx, identity, id, policy.ActionDelete)
	if err != nil {
		return err
	}

	taskIDs, err := s.store.DeleteProject(ctx, project.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("delete project: %w", err)
	}
	s.metrics.IncProjectDeleted()

	keys := projectKeys(project.OwnerID, project.ID)
	keys = append(keys, cache.TaskCollectionKeys(project.ID)...)
	for _, taskID := range taskIDs {
		keys = append(keys, cache.TaskKey(project.ID, taskID))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		return err
	}

	slogcontext.FromCtx(ctx).Info("project deleted",
		slog.String("project_id", project.ID),
		slog.Int("tasks_deleted", len(taskIDs)),
	)
	return nil
}

// attachSummaries fills the Tasks field of each project with one query.
func (s *ProjectService) attachSummaries(ctx context.Context, projects ...*model.Project) error {
	if len(projects) == 0 {
		return nil
	}

	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	summaries, err := s.store.ListTaskSummaries(ctx, ids)
	if err != nil {
		return fmt.Errorf("list task summaries: %w", err)
	}

	for _, p := range projects {
		p.Tasks = summaries[p.ID]
		if p.Tasks == nil {
			p.Tasks = []model.TaskSummary{}
		}
	}
	return nil
}

func applyProjectInput(project *model.Project, input ProjectInput) {
	if input.Title != nil {
		project.Title = *input.Title
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
}

// projectKeys are the cached projections that embed a project.
func projectKeys(ownerID, projectID string) []string {
	return []string{
		cache.ProjectKey(ownerID, projectID),
		cache.ProjectsKey(ownerID),
	}
}

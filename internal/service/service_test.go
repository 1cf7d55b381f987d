package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/cache"
	"github.com/tasktrack/tasktrack/internal/metrics"
	"github.com/tasktrack/tasktrack/internal/model"
	"github.com/tasktrack/tasktrack/internal/policy"
	"github.com/tasktrack/tasktrack/internal/repository/memory"
)

var testParams = auth.Params{Time: 1, Memory: 1024, Threads: 1}

type fixture struct {
	store    *memory.Store
	cache    *cache.MemoryStore
	layer    *cache.Layer
	recorder *metrics.InMemoryRecorder
	hasher   *auth.Hasher
	projects *ProjectService
	tasks    *TaskService
	sessions *SessionService
	users    *UserService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	visibility policy.Visibility
	cacheStore cache.Store
}

func withVisibility(v policy.Visibility) fixtureOption {
	return func(c *fixtureConfig) { c.visibility = v }
}

func withCacheStore(s cache.Store) fixtureOption {
	return func(c *fixtureConfig) { c.cacheStore = s }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	mem := cache.NewMemory(1000, cache.DefaultTTL)
	cfg := fixtureConfig{visibility: policy.VisibilityScoped, cacheStore: mem}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := memory.New()
	recorder := metrics.NewInMemory()
	layer := cache.NewLayer(cfg.cacheStore, cache.DefaultTTL, recorder)
	pol := policy.New(cfg.visibility)
	hasher := auth.NewHasher(testParams)

	sessions, err := NewSessionService(store, layer, hasher)
	if err != nil {
		t.Fatalf("NewSessionService failed: %v", err)
	}

	return &fixture{
		store:    store,
		cache:    mem,
		layer:    layer,
		recorder: recorder,
		hasher:   hasher,
		projects: NewProjectService(store, layer, pol, recorder),
		tasks:    NewTaskService(store, store, layer, pol, recorder),
		sessions: sessions,
		users:    NewUserService(store, hasher),
	}
}

func (f *fixture) register(t *testing.T, email string) *model.Identity {
	t.Helper()
	user, err := f.users.Register(context.Background(), RegisterInput{
		Email:                email,
		Password:             "password",
		PasswordConfirmation: "password",
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return model.IdentityFor(user)
}

func (f *fixture) createProject(t *testing.T, identity *model.Identity, title string) *model.Project {
	t.Helper()
	project, err := f.projects.Create(context.Background(), identity, ProjectInput{Title: ptr(title)})
	if err != nil {
		t.Fatalf("Create project failed: %v", err)
	}
	return project
}

func (f *fixture) createTask(t *testing.T, identity *model.Identity, projectID, title string) *model.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), identity, projectID, TaskInput{Title: ptr(title)})
	if err != nil {
		t.Fatalf("Create task failed: %v", err)
	}
	return task
}

func ptr(s string) *string { return &s }

func assertValidation(t *testing.T, err error, want ...string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if len(verr.Messages) != len(want) {
		t.Fatalf("Messages = %v, want %v", verr.Messages, want)
	}
	for i := range want {
		if verr.Messages[i] != want[i] {
			t.Errorf("Messages[%d] = %q, want %q", i, verr.Messages[i], want[i])
		}
	}
}

// failingDeleteStore wraps a Store and fails deletions on demand.
type failingDeleteStore struct {
	cache.Store
	fail bool
}

func (s *failingDeleteStore) Delete(ctx context.Context, keys ...string) error {
	if s.fail {
		return errors.New("cache unavailable")
	}
	return s.Store.Delete(ctx, keys...)
}

// hookedProjectStore runs afterGet once, right after a project row was read
// and before the caller acts on it.
type hookedProjectStore struct {
	ProjectStore
	afterGet func()
}

func (s *hookedProjectStore) GetProjectForOwner(ctx context.Context, ownerID, id string) (*model.Project, error) {
	project, err := s.ProjectStore.GetProjectForOwner(ctx, ownerID, id)
	if hook := s.afterGet; hook != nil {
		s.afterGet = nil
		hook()
	}
	return project, err
}

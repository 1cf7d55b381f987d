package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tasktrack/tasktrack/internal/cache"
	"github.com/tasktrack/tasktrack/internal/model"
	"github.com/tasktrack/tasktrack/internal/policy"
)

func TestProjectService_ListIsolatedPerUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")

	first := f.createProject(t, alice, "Alpha")
	second := f.createProject(t, alice, "Beta")
	f.createProject(t, bob, "Gamma")

	list, err := f.projects.List(ctx, alice)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("List(alice) = %+v, want [Alpha Beta] in creation order", list)
	}

	list, err = f.projects.List(ctx, bob)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, p := range list {
		if p.ID == first.ID || p.ID == second.ID {
			t.Errorf("List(bob) leaked alice's project %s", p.ID)
		}
	}
}

func TestProjectService_CrossUserAccess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		visibility policy.Visibility
		wantErr    error
	}{
		{"scoped hides existence", policy.VisibilityScoped, ErrProjectNotFound},
		{"global reports forbidden", policy.VisibilityGlobal, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, withVisibility(tt.visibility))
			ctx := context.Background()
			alice := f.register(t, "alice@example.com")
			bob := f.register(t, "bob@example.com")
			project := f.createProject(t, alice, "Private")

			// Warm alice's item cache; bob must not be served from it.
			if _, err := f.projects.Get(ctx, alice, project.ID); err != nil {
				t.Fatalf("Get(alice) failed: %v", err)
			}

			if _, err := f.projects.Get(ctx, bob, project.ID); !errors.Is(err, tt.wantErr) {
				t.Errorf("Get(bob) error = %v, want %v", err, tt.wantErr)
			}
			if _, err := f.projects.Update(ctx, bob, project.ID, ProjectInput{Title: ptr("Hijacked")}); !errors.Is(err, tt.wantErr) {
				t.Errorf("Update(bob) error = %v, want %v", err, tt.wantErr)
			}
			if err := f.projects.Delete(ctx, bob, project.ID); !errors.Is(err, tt.wantErr) {
				t.Errorf("Delete(bob) error = %v, want %v", err, tt.wantErr)
			}

			got, err := f.projects.Get(ctx, alice, project.ID)
			if err != nil {
				t.Fatalf("Get(alice) failed: %v", err)
			}
			if got.Title != "Private" {
				t.Errorf("Title = %q, want unchanged", got.Title)
			}
		})
	}
}

func TestProjectService_MissingProject(t *testing.T) {
	t.Parallel()

	for _, v := range []policy.Visibility{policy.VisibilityScoped, policy.VisibilityGlobal} {
		f := newFixture(t, withVisibility(v))
		alice := f.register(t, "alice@example.com")

		if _, err := f.projects.Get(context.Background(), alice, "does-not-exist"); !errors.Is(err, ErrProjectNotFound) {
			t.Errorf("%s: Get error = %v, want ErrProjectNotFound", v, err)
		}
	}
}

func TestProjectService_DeleteTwice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")
	project := f.createProject(t, alice, "Doomed")

	if err := f.projects.Delete(ctx, alice, project.ID); err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := f.projects.Delete(ctx, alice, project.ID); !errors.Is(err, ErrProjectNotFound) {
			t.Errorf("Delete #%d error = %v, want ErrProjectNotFound", i+2, err)
		}
	}
}

func TestProjectService_UpdateVisibleThroughWarmCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")
	project := f.createProject(t, alice, "Old")

	// Warm both projections.
	if _, err := f.projects.Get(ctx, alice, project.ID); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := f.projects.List(ctx, alice); err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if _, err := f.projects.Update(ctx, alice, project.ID, ProjectInput{Title: ptr("New")}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := f.projects.Get(ctx, alice, project.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "New" {
		t.Errorf("Get Title = %q, want New", got.Title)
	}

	list, err := f.projects.List(ctx, alice)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if list[0].Title != "New" {
		t.Errorf("List Title = %q, want New", list[0].Title)
	}
}

func TestProjectService_UpdateDuringCacheFill(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")
	project := f.createProject(t, alice, "Old")

	hooked := &hookedProjectStore{ProjectStore: f.store}
	reader := NewProjectService(hooked, f.layer, policy.New(policy.VisibilityScoped), nil)
	hooked.afterGet = func() {
		if _, err := f.projects.Update(ctx, alice, project.ID, ProjectInput{Title: ptr("New")}); err != nil {
			t.Errorf("Update failed: %v", err)
		}
	}

	if _, err := reader.Get(ctx, alice, project.ID); err != nil {
		t.Fatalf("Get racing update failed: %v", err)
	}

	got, err := f.projects.Get(ctx, alice, project.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "New" {
		t.Errorf("Title = %q after an acknowledged update, want %q", got.Title, "New")
	}
}

func TestProjectService_PartialUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")
	project, err := f.projects.Create(ctx, alice, ProjectInput{Title: ptr("Keep"), Description: ptr("first")})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := f.projects.Update(ctx, alice, project.ID, ProjectInput{Description: ptr("second")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "Keep" || updated.Description != "second" {
		t.Errorf("Update = %+v", updated)
	}
	if updated.OwnerID != alice.UserID {
		t.Errorf("OwnerID = %q, want %q", updated.OwnerID, alice.UserID)
	}
}

func TestProjectService_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")

	for _, title := range []*string{nil, ptr(""), ptr("   ")} {
		_, err := f.projects.Create(ctx, alice, ProjectInput{Title: title})
		assertValidation(t, err, model.MsgTitleBlank)
	}

	project := f.createProject(t, alice, "Valid")
	_, err := f.projects.Update(ctx, alice, project.ID, ProjectInput{Title: ptr("")})
	assertValidation(t, err, model.MsgTitleBlank)

	list, _ := f.projects.List(ctx, alice)
	if len(list) != 1 || list[0].Title != "Valid" {
		t.Errorf("List = %+v, want only the valid project, unchanged", list)
	}
}

func TestProjectService_EmbedsTaskSummaries(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")
	project := f.createProject(t, alice, "With tasks")

	got, err := f.projects.Get(ctx, alice, project.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Tasks == nil || len(got.Tasks) != 0 {
		t.Fatalf("Tasks = %#v, want empty non-nil slice", got.Tasks)
	}

	task := f.createTask(t, alice, project.ID, "Write")

	// The task mutation must drop the warm project projections.
	got, err = f.projects.Get(ctx, alice, project.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want := model.TaskSummary{ID: task.ID, Title: "Write", Status: model.TaskStatusNotStarted}
	if len(got.Tasks) != 1 || got.Tasks[0] != want {
		t.Errorf("Tasks = %+v, want [%+v]", got.Tasks, want)
	}
}

func TestProjectService_DeleteDropsTaskCaches(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")
	project := f.createProject(t, alice, "Doomed")
	task := f.createTask(t, alice, project.ID, "Orphan")

	// Warm every task projection.
	if _, err := f.tasks.Get(ctx, alice, project.ID, task.ID); err != nil {
		t.Fatalf("Get task failed: %v", err)
	}
	for _, status := range []string{"", "not_started", "in_progress", "done"} {
		if _, err := f.tasks.List(ctx, alice, project.ID, status); err != nil {
			t.Fatalf("List tasks failed: %v", err)
		}
	}

	if err := f.projects.Delete(ctx, alice, project.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	keys := append(cache.TaskCollectionKeys(project.ID), cache.TaskKey(project.ID, task.ID))
	for _, key := range keys {
		if _, err := f.cache.Get(ctx, key); !errors.Is(err, cache.ErrCacheMiss) {
			t.Errorf("key %s survived project deletion (err = %v)", key, err)
		}
	}
	if _, err := f.store.GetTask(ctx, project.ID, task.ID); err == nil {
		t.Error("task should be cascade-deleted")
	}
}

func TestProjectService_CacheServesRepeatedReads(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")
	f.createProject(t, alice, "Hot")

	for i := 0; i < 3; i++ {
		if _, err := f.projects.List(ctx, alice); err != nil {
			t.Fatalf("List failed: %v", err)
		}
	}

	snap := f.recorder.Snapshot()
	if snap.CacheMisses["projects"] != 1 || snap.CacheHits["projects"] != 2 {
		t.Errorf("projects hits/misses = %d/%d, want 2/1", snap.CacheHits["projects"], snap.CacheMisses["projects"])
	}
}

func TestProjectService_InvalidationFailureFailsMutation(t *testing.T) {
	t.Parallel()

	store := &failingDeleteStore{Store: cache.NewMemory(100, cache.DefaultTTL)}
	f := newFixture(t, withCacheStore(store))
	ctx := context.Background()
	alice := f.register(t, "alice@example.com")
	project := f.createProject(t, alice, "Fragile")

	store.fail = true
	if _, err := f.projects.Update(ctx, alice, project.ID, ProjectInput{Title: ptr("Changed")}); err == nil {
		t.Error("Update should fail when the cache cannot be invalidated")
	}
}

func TestProjectService_RequiresIdentity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.projects.List(ctx, nil); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("List error = %v, want ErrUnauthenticated", err)
	}
	if _, err := f.projects.Create(ctx, nil, ProjectInput{Title: ptr("x")}); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Create error = %v, want ErrUnauthenticated", err)
	}
	if err := f.projects.Delete(ctx, nil, "p"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Delete error = %v, want ErrUnauthenticated", err)
	}
}

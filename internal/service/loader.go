package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/tasktrack/tasktrack/internal/model"
	"github.com/tasktrack/tasktrack/internal/policy"
	"github.com/tasktrack/tasktrack/internal/repository"
)

// projectLoader fetches a project and applies the ownership policy.
// In scoped mode the query itself is restricted to the caller's projects.
// In global mode the project is fetched by ID and the policy decides.
type projectLoader struct {
	store  ProjectStore
	policy *policy.Policy
}

func (l *projectLoader) load(ctx context.Context, identity *model.Identity, projectID string, action policy.Action) (*model.Project, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	var (
		project *model.Project
		err     error
	)
	if l.policy.Scoped() {
		project, err = l.store.GetProjectForOwner(ctx, identity.UserID, projectID)
	} else {
		project, err = l.store.GetProjectByID(ctx, projectID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("load project: %w", err)
	}

	if err := l.policy.Authorize(identity, project.OwnerID, action); err != nil {
		if errors.Is(err, policy.ErrForbidden) {
			return nil, ErrForbidden
		}
		return nil, ErrProjectNotFound
	}

	return project, nil
}

// newID returns a new time-ordered identifier.
func newID() string {
	return ulid.Make().String()
}

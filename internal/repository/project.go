package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tasktrack/tasktrack/internal/model"
)

const projectColumns = `id, title, description, owner_id, created_at, updated_at`

// CreateProject inserts a new project into the database.
func (r *Repository) CreateProject(ctx context.Context, project *model.Project) error {
	query := `
		INSERT INTO projects (id, title, description, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		project.ID,
		project.Title,
		project.Description,
		project.OwnerID,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetProjectByID retrieves a project regardless of its owner.
func (r *Repository) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project by ID: %w", err)
	}

	return project, nil
}

// GetProjectForOwner retrieves a project only if ownerID owns it.
// A project owned by someone else is reported as ErrProjectNotFound.
func (r *Repository) GetProjectForOwner(ctx context.Context, ownerID, id string) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND owner_id = $2`

	project, err := scanProject(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project for owner: %w", err)
	}

	return project, nil
}

// ListProjectsByOwner retrieves the owner's projects in creation order.
func (r *Repository) ListProjectsByOwner(ctx context.Context, ownerID string) ([]*model.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*model.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// UpdateProject updates a project's title and description.
// The owner is immutable and is part of the match.
func (r *Repository) UpdateProject(ctx context.Context, project *model.Project) error {
	query := `
		UPDATE projects
		SET title = $3, description = $4, updated_at = $5
		WHERE id = $1 AND owner_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		project.ID,
		project.OwnerID,
		project.Title,
		project.Description,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrProjectNotFound
	}

	return nil
}

// DeleteProject deletes a project and its tasks in one transaction.
// It returns the IDs of the deleted tasks.
func (r *Repository) DeleteProject(ctx context.Context, id string) ([]string, error) {
	var taskIDs []string

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id FROM tasks WHERE project_id = $1 FOR UPDATE`, id)
		if err != nil {
			return fmt.Errorf("failed to select project tasks: %w", err)
		}
		taskIDs, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("failed to scan task id: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete project tasks: %w", err)
		}

		result, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrProjectNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return taskIDs, nil
}

// scanProject scans a single row into a Project model.
func scanProject(row pgx.Row) (*model.Project, error) {
	var project model.Project
	err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Description,
		&project.OwnerID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	return &project, err
}

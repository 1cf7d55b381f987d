package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/tasktrack/tasktrack/internal/model"
)

const taskColumns = `id, project_id, title, description, status, created_at, updated_at`

// CreateTask inserts a new task into the database.
func (r *Repository) CreateTask(ctx context.Context, task *model.Task) error {
	query := `
		INSERT INTO tasks (id, project_id, title, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.ProjectID,
		task.Title,
		task.Description,
		string(task.Status),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTask retrieves a task inside a project.
// A task belonging to another project is reported as ErrTaskNotFound.
func (r *Repository) GetTask(ctx context.Context, projectID, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND project_id = $2`

	task, err := scanTask(r.pool.QueryRow(ctx, query, id, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// ListTasksByProject retrieves a project's tasks in creation order.
// An empty status returns every task.
func (r *Repository) ListTasksByProject(ctx context.Context, projectID string, status model.TaskStatus) ([]*model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE project_id = $1
	`
	args := []any{projectID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}

	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*model.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// ListTaskSummaries returns the task summaries of several projects in one
// query, keyed by project ID and in creation order.
func (r *Repository) ListTaskSummaries(ctx context.Context, projectIDs []string) (map[string][]model.TaskSummary, error) {
	summaries := make(map[string][]model.TaskSummary, len(projectIDs))
	if len(projectIDs) == 0 {
		return summaries, nil
	}

	query := `
		SELECT project_id, id, title, status
		FROM tasks
		WHERE project_id = ANY($1::text[])
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(projectIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list task summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			projectID string
			summary   model.TaskSummary
			status    string
		)
		if err := rows.Scan(&projectID, &summary.ID, &summary.Title, &status); err != nil {
			return nil, fmt.Errorf("failed to scan task summary: %w", err)
		}
		summary.Status = model.TaskStatus(status)
		summaries[projectID] = append(summaries[projectID], summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task summaries: %w", err)
	}

	return summaries, nil
}

// UpdateTask updates a task's mutable fields.
func (r *Repository) UpdateTask(ctx context.Context, task *model.Task) error {
	query := `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, updated_at = $6
		WHERE id = $1 AND project_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		task.ID,
		task.ProjectID,
		task.Title,
		task.Description,
		string(task.Status),
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// DeleteTask deletes a task inside a project.
func (r *Repository) DeleteTask(ctx context.Context, projectID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// scanTask scans a single row into a Task model.
func scanTask(row pgx.Row) (*model.Task, error) {
	var (
		task   model.Task
		status string
	)
	err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&status,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	task.Status = model.TaskStatus(status)
	return &task, err
}

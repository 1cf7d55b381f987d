package model

import (
	"strings"
	"time"
)

// TaskStatus is the progress state of a task.
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// MsgStatusInvalid is reported when a task status is outside the enum.
const MsgStatusInvalid = "Status is not included in the list"

// TaskStatuses lists every valid status in declaration order.
var TaskStatuses = []TaskStatus{TaskStatusNotStarted, TaskStatusInProgress, TaskStatusDone}

// IsValid checks if the status is one of the enumerated values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// ParseTaskStatus converts a raw value into a TaskStatus.
// The second return value is false for unknown values.
func ParseTaskStatus(raw string) (TaskStatus, bool) {
	s := TaskStatus(raw)
	if !s.IsValid() {
		return "", false
	}
	return s, true
}

// Task is a unit of work inside a project.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate returns field-level messages for an invalid task.
func (t *Task) Validate() []string {
	var msgs []string
	if strings.TrimSpace(t.Title) == "" {
		msgs = append(msgs, MsgTitleBlank)
	}
	if !t.Status.IsValid() {
		msgs = append(msgs, MsgStatusInvalid)
	}
	return msgs
}

// Summary projects the task to the reduced field set nested under projects.
func (t *Task) Summary() TaskSummary {
	return TaskSummary{
		ID:     t.ID,
		Title:  t.Title,
		Status: t.Status,
	}
}

// TaskSummary is the reduced task projection embedded in project responses.
type TaskSummary struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Status TaskStatus `json:"status"`
}

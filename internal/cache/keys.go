package cache

import (
	"time"

	"github.com/tasktrack/tasktrack/internal/model"
)

// Key prefixes. The formats are shared with other deployments reading the
// same cache and must not change.
const (
	projectsKeyPrefix = "projects:"
	projectKeyPrefix  = "project:"
	tasksKeyPrefix    = "tasks:"
	taskKeyPrefix     = "task:"
	generationPrefix  = "gen:"
)

// generationTTL bounds how long an invalidation counter outlives its last
// bump. A fill slower than this can miss an invalidation.
const generationTTL = time.Hour

// ProjectsKey is the key of a user's project collection.
func ProjectsKey(userID string) string {
	return projectsKeyPrefix + userID
}

// ProjectKey is the key of a single project as seen by its owner.
func ProjectKey(userID, projectID string) string {
	return projectKeyPrefix + userID + ":" + projectID
}

// TasksKey is the key of a project's task collection read with a status filter.
// An empty filter means "all tasks".
func TasksKey(projectID string, status model.TaskStatus) string {
	return tasksKeyPrefix + projectID + ":" + string(status)
}

// TaskKey is the key of a single task.
func TaskKey(projectID, taskID string) string {
	return taskKeyPrefix + projectID + ":" + taskID
}

// TaskCollectionKeys returns every filter variant of a project's task
// collection key: the unfiltered one plus one per status.
func TaskCollectionKeys(projectID string) []string {
	keys := make([]string, 0, len(model.TaskStatuses)+1)
	keys = append(keys, TasksKey(projectID, ""))
	for _, status := range model.TaskStatuses {
		keys = append(keys, TasksKey(projectID, status))
	}
	return keys
}

// generationKey holds the invalidation counter of key.
func generationKey(key string) string {
	return generationPrefix + key
}

// Package metrics provides a lightweight metrics abstraction.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Cache metrics, labelled by key family (projects, project, tasks, task, auth).
	IncCacheHit(family string)
	IncCacheMiss(family string)
	IncCacheError(op string) // op: "get", "set", "delete"

	// Authentication metrics
	IncAuthSuccess(cacheHit bool)
	IncAuthFailure(reason string)

	// Resource mutation metrics
	IncProjectCreated()
	IncProjectUpdated()
	IncProjectDeleted()
	IncTaskCreated()
	IncTaskUpdated()
	IncTaskDeleted()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

package handler

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/tasktrack/tasktrack/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeLabeled(w, "tasktrack_cache_hits_total", "family", snap.CacheHits)
	writeLabeled(w, "tasktrack_cache_misses_total", "family", snap.CacheMisses)
	writeLabeled(w, "tasktrack_cache_errors_total", "op", snap.CacheErrors)

	writeMetric(w, "tasktrack_auth_success_total{cache=\"hit\"} %d\n", snap.AuthCacheHits)
	writeMetric(w, "tasktrack_auth_success_total{cache=\"miss\"} %d\n", snap.AuthCacheMisses)
	writeLabeled(w, "tasktrack_auth_failures_total", "reason", snap.AuthFailures)

	writeMetric(w, "tasktrack_projects_created_total %d\n", snap.ProjectsCreated)
	writeMetric(w, "tasktrack_projects_updated_total %d\n", snap.ProjectsUpdated)
	writeMetric(w, "tasktrack_projects_deleted_total %d\n", snap.ProjectsDeleted)

	writeMetric(w, "tasktrack_tasks_created_total %d\n", snap.TasksCreated)
	writeMetric(w, "tasktrack_tasks_updated_total %d\n", snap.TasksUpdated)
	writeMetric(w, "tasktrack_tasks_deleted_total %d\n", snap.TasksDeleted)
}

// writeLabeled writes one sample per label value, sorted for stable output.
func writeLabeled(w http.ResponseWriter, name, label string, values map[string]uint64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

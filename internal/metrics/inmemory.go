package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CacheHits       map[string]uint64
	CacheMisses     map[string]uint64
	CacheErrors     map[string]uint64
	AuthCacheHits   uint64
	AuthCacheMisses uint64
	AuthFailures    map[string]uint64
	ProjectsCreated uint64
	ProjectsUpdated uint64
	ProjectsDeleted uint64
	TasksCreated    uint64
	TasksUpdated    uint64
	TasksDeleted    uint64
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint
// and lets tests assert on cache behavior.
type InMemoryRecorder struct {
	mu           sync.Mutex
	cacheHits    map[string]uint64
	cacheMisses  map[string]uint64
	cacheErrors  map[string]uint64
	authFailures map[string]uint64

	authCacheHits   uint64
	authCacheMisses uint64
	projectsCreated uint64
	projectsUpdated uint64
	projectsDeleted uint64
	tasksCreated    uint64
	tasksUpdated    uint64
	tasksDeleted    uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		cacheHits:    make(map[string]uint64),
		cacheMisses:  make(map[string]uint64),
		cacheErrors:  make(map[string]uint64),
		authFailures: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	hits := maps.Clone(m.cacheHits)
	misses := maps.Clone(m.cacheMisses)
	errs := maps.Clone(m.cacheErrors)
	failures := maps.Clone(m.authFailures)
	m.mu.Unlock()

	return Snapshot{
		CacheHits:       hits,
		CacheMisses:     misses,
		CacheErrors:     errs,
		AuthCacheHits:   atomic.LoadUint64(&m.authCacheHits),
		AuthCacheMisses: atomic.LoadUint64(&m.authCacheMisses),
		AuthFailures:    failures,
		ProjectsCreated: atomic.LoadUint64(&m.projectsCreated),
		ProjectsUpdated: atomic.LoadUint64(&m.projectsUpdated),
		ProjectsDeleted: atomic.LoadUint64(&m.projectsDeleted),
		TasksCreated:    atomic.LoadUint64(&m.tasksCreated),
		TasksUpdated:    atomic.LoadUint64(&m.tasksUpdated),
		TasksDeleted:    atomic.LoadUint64(&m.tasksDeleted),
	}
}

func (m *InMemoryRecorder) inc(counters map[string]uint64, label string) {
	m.mu.Lock()
	counters[label]++
	m.mu.Unlock()
}

// IncCacheHit increments the cache hit counter for a key family.
func (m *InMemoryRecorder) IncCacheHit(family string) { m.inc(m.cacheHits, family) }

// IncCacheMiss increments the cache miss counter for a key family.
func (m *InMemoryRecorder) IncCacheMiss(family string) { m.inc(m.cacheMisses, family) }

// IncCacheError increments the cache error counter for an operation.
func (m *InMemoryRecorder) IncCacheError(op string) { m.inc(m.cacheErrors, op) }

// IncAuthSuccess counts a successful authentication.
func (m *InMemoryRecorder) IncAuthSuccess(cacheHit bool) {
	if cacheHit {
		atomic.AddUint64(&m.authCacheHits, 1)
		return
	}
	atomic.AddUint64(&m.authCacheMisses, 1)
}

// IncAuthFailure counts a rejected credential by reason.
func (m *InMemoryRecorder) IncAuthFailure(reason string) { m.inc(m.authFailures, reason) }

func (m *InMemoryRecorder) IncProjectCreated() { atomic.AddUint64(&m.projectsCreated, 1) }
func (m *InMemoryRecorder) IncProjectUpdated() { atomic.AddUint64(&m.projectsUpdated, 1) }
func (m *InMemoryRecorder) IncProjectDeleted() { atomic.AddUint64(&m.projectsDeleted, 1) }
func (m *InMemoryRecorder) IncTaskCreated()    { atomic.AddUint64(&m.tasksCreated, 1) }
func (m *InMemoryRecorder) IncTaskUpdated()    { atomic.AddUint64(&m.tasksUpdated, 1) }
func (m *InMemoryRecorder) IncTaskDeleted()    { atomic.AddUint64(&m.tasksDeleted, 1) }

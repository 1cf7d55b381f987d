package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncCacheHit(family string)    {}
func (n *NoopRecorder) IncCacheMiss(family string)   {}
func (n *NoopRecorder) IncCacheError(op string)      {}
func (n *NoopRecorder) IncAuthSuccess(cacheHit bool) {}
func (n *NoopRecorder) IncAuthFailure(reason string) {}
func (n *NoopRecorder) IncProjectCreated()           {}
func (n *NoopRecorder) IncProjectUpdated()           {}
func (n *NoopRecorder) IncProjectDeleted()           {}
func (n *NoopRecorder) IncTaskCreated()              {}
func (n *NoopRecorder) IncTaskUpdated()              {}
func (n *NoopRecorder) IncTaskDeleted()              {}

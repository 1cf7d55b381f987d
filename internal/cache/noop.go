package cache

import (
	"context"
	"time"
)

// NoopStore disables caching: every read misses and writes are discarded.
type NoopStore struct{}

// NewNoop returns a Store that never holds anything.
func NewNoop() *NoopStore {
	return &NoopStore{}
}

func (NoopStore) Get(context.Context, string) ([]byte, error)              { return nil, ErrCacheMiss }
func (NoopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoopStore) Generation(context.Context, string) (uint64, error)       { return 0, nil }
func (NoopStore) Delete(context.Context, ...string) error                  { return nil }
func (NoopStore) Ping(context.Context) error                               { return nil }
func (NoopStore) Close() error                                             { return nil }

func (NoopStore) SetIfGeneration(context.Context, string, []byte, time.Duration, uint64) (bool, error) {
	return false, nil
}

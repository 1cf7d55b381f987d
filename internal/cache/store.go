package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/tasktrack/tasktrack/internal/metrics"
)

// DefaultTTL is the lifetime of every cached projection.
const DefaultTTL = 5 * time.Minute

// ErrCacheMiss is returned by Store.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Store is a byte-oriented key/value store with per-entry TTL.
//
// Every key has an invalidation generation that Delete advances, so a fill
// computed before an invalidation can be refused by SetIfGeneration.
// Deleting a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Generation(ctx context.Context, key string) (uint64, error)
	SetIfGeneration(ctx context.Context, key string, value []byte, ttl time.Duration, gen uint64) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// Layer is the read-through and invalidation layer services talk to.
// Entries are advisory: a miss always means "load from the source of truth".
type Layer struct {
	store    Store
	ttl      time.Duration
	recorder metrics.Recorder
}

// NewLayer wraps a Store. A nil store disables caching.
func NewLayer(store Store, ttl time.Duration, recorder metrics.Recorder) *Layer {
	if store == nil {
		store = NewNoop()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Layer{store: store, ttl: ttl, recorder: recorder}
}

// TTL returns the lifetime applied to entries written through the layer.
func (l *Layer) TTL() time.Duration {
	return l.ttl
}

// Store returns the underlying store.
func (l *Layer) Store() Store {
	return l.store
}

// Fetch returns the cached value for key if present, otherwise it calls
// loader, stores the result for the layer's TTL and returns it.
// The result is not stored when key was invalidated while loader ran.
// Loader errors are returned as-is and never cached.
func Fetch[T any](ctx context.Context, l *Layer, key string, loader func(context.Context) (T, error)) (T, error) {
	family := keyFamily(key)

	if data, err := l.store.Get(ctx, key); err == nil {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			l.recorder.IncCacheHit(family)
			return cached, nil
		}
		// Corrupted entry - treat as miss
		slogcontext.FromCtx(ctx).Warn("discarding undecodable cache entry", slog.String("key", key))
	} else if !errors.Is(err, ErrCacheMiss) {
		l.recorder.IncCacheError("get")
		slogcontext.FromCtx(ctx).Warn("cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	l.recorder.IncCacheMiss(family)

	gen, fillable := l.generation(ctx, key)

	value, err := loader(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if !fillable {
		return value, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		slogcontext.FromCtx(ctx).Warn("cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return value, nil
	}
	l.fill(ctx, key, data, gen)

	return value, nil
}

// generation reads the invalidation generation of key before it is loaded.
// fillable is false when the generation is unknown; the value must then not
// be cached.
func (l *Layer) generation(ctx context.Context, key string) (gen uint64, fillable bool) {
	gen, err := l.store.Generation(ctx, key)
	if err != nil {
		l.recorder.IncCacheError("generation")
		slogcontext.FromCtx(ctx).Warn("cache generation read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return 0, false
	}
	return gen, true
}

// fill stores data at key unless key was invalidated after gen was read.
func (l *Layer) fill(ctx context.Context, key string, data []byte, gen uint64) {
	written, err := l.store.SetIfGeneration(ctx, key, data, l.ttl, gen)
	if err != nil {
		l.recorder.IncCacheError("set")
		slogcontext.FromCtx(ctx).Warn("cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	if !written {
		slogcontext.FromCtx(ctx).Debug("cache fill skipped after invalidation", slog.String("key", key))
	}
}

// Invalidate removes the given keys immediately.
// It must complete before a mutation is acknowledged, so errors are returned.
func (l *Layer) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := l.store.Delete(ctx, keys...); err != nil {
		l.recorder.IncCacheError("delete")
		return fmt.Errorf("invalidate %d cache keys: %w", len(keys), err)
	}
	return nil
}

// keyFamily returns the portion of the key before the first colon.
func keyFamily(key string) string {
	family, _, found := strings.Cut(key, ":")
	if !found {
		return "other"
	}
	return family
}

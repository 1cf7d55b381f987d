package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// memoryEntry keeps its own deadline so per-call TTLs shorter than the
// LRU-wide TTL are honored.
type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store backed by a size-bounded expiring LRU.
// It is safe for concurrent use.
type MemoryStore struct {
	// mu orders conditional fills against invalidations.
	mu   sync.Mutex
	lru  *expirable.LRU[string, memoryEntry]
	gens *expirable.LRU[string, uint64]
	now  func() time.Time
}

// NewMemory creates a MemoryStore holding at most size entries (0 = unbounded),
// none of which outlive maxTTL.
func NewMemory(size int, maxTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		lru:  expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		gens: expirable.NewLRU[string, uint64](0, nil, generationTTL),
		now:  time.Now,
	}
}

// Get returns the value stored at key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := s.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.lru.Remove(key)
		return nil, ErrCacheMiss
	}
	return entry.data, nil
}

// Set stores a copy of value at key.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.add(key, value, ttl)
	return nil
}

// Generation returns the invalidation counter of key.
func (s *MemoryStore) Generation(_ context.Context, key string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen, _ := s.gens.Peek(key)
	return gen, nil
}

// SetIfGeneration stores value only if key was not invalidated since gen was read.
func (s *MemoryStore) SetIfGeneration(_ context.Context, key string, value []byte, ttl time.Duration, gen uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, _ := s.gens.Peek(key); current != gen {
		return false, nil
	}
	s.add(key, value, ttl)
	return true, nil
}

// Delete removes keys and advances their generations.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		s.lru.Remove(key)
		gen, _ := s.gens.Peek(key)
		s.gens.Add(key, gen+1)
	}
	return nil
}

func (s *MemoryStore) add(key string, value []byte, ttl time.Duration) {
	entry := memoryEntry{data: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.lru.Add(key, entry)
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close drops all entries.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lru.Purge()
	s.gens.Purge()
	return nil
}

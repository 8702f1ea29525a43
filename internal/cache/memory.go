package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultMaxEntries = 1024

// MemoryStore is a process-local store bounded by least-recently-used
// eviction.
type MemoryStore[V any] struct {
	entries *lru.Cache[string, Entry[V]]
}

// NewMemoryStore creates a MemoryStore holding at most maxEntries entries.
func NewMemoryStore[V any](maxEntries int) (*MemoryStore[V], error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[string, Entry[V]](maxEntries)
	if err != nil {
		return nil, err
	}
	return &MemoryStore[V]{entries: entries}, nil
}

func (s *MemoryStore[V]) Get(_ context.Context, key string) (Entry[V], bool, error) {
	entry, ok := s.entries.Get(key)
	return entry, ok, nil
}

func (s *MemoryStore[V]) Set(_ context.Context, key string, entry Entry[V], _ time.Duration) error {
	s.entries.Add(key, entry)
	return nil
}

// Len reports the number of cached entries.
func (s *MemoryStore[V]) Len() int {
	return s.entries.Len()
}

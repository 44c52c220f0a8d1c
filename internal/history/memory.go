package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore is a bounded in-process store. The least recently used request
// key is evicted once the capacity is reached.
type MemoryStore struct {
	mu    sync.Mutex
	cache *lru.Cache[string, Record]
	byID  map[uuid.UUID]string
}

// NewMemoryStore returns a store holding at most size records.
func NewMemoryStore(size int) (*MemoryStore, error) {
	s := &MemoryStore{byID: make(map[uuid.UUID]string, size)}
	// onEvict runs inside cache calls, which are only made with s.mu held.
	cache, err := lru.NewWithEvict(size, func(_ string, rec Record) {
		delete(s.byID, rec.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("create history cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

// Put stores rec, dropping any earlier record for the same key.
func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.cache.Peek(rec.Key); ok {
		delete(s.byID, old.ID)
	}
	s.cache.Add(rec.Key, rec)
	s.byID[rec.ID] = rec.Key
	return nil
}

// Lookup returns the record for key and marks it recently used.
func (s *MemoryStore) Lookup(_ context.Context, key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.cache.Get(key)
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Get returns the record with the given id without touching recency.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec, ok := s.cache.Peek(key)
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Recent returns up to limit records, most recently used first. For records
// that were never looked up again that is insertion order.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.cache.Keys()
	out := make([]Record, 0, min(limit, len(keys)))
	for i := len(keys) - 1; i >= 0 && len(out) < limit; i-- {
		if rec, ok := s.cache.Peek(keys[i]); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// Close empties the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
	return nil
}

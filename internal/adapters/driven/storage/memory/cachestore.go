package memory

import (
	"context"
	"sync"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Ensure CacheStore implements the interface.
var _ driven.CacheStore = (*CacheStore)(nil)

// CacheStore is an in-memory implementation of driven.CacheStore.
// Entries live for the life of the process.
type CacheStore struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
	writes  int
}

// NewCacheStore creates a new in-memory cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		entries: make(map[string]domain.CacheEntry),
	}
}

// Get returns the entry for a hash.
func (s *CacheStore) Get(_ context.Context, hash string) (*domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// Put stores an entry if none exists for the hash.
func (s *CacheStore) Put(_ context.Context, hash string, entry *domain.CacheEntry) error {
	if entry == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[hash]; exists {
		return nil
	}
	s.entries[hash] = *entry
	s.writes++
	return nil
}

// Len returns the number of cached hashes.
func (s *CacheStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Writes returns how many entries have been written.
func (s *CacheStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

package driven

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

// CacheStore maps a content hash to a previously computed extraction.
// Implementations only look up and store; they never compute.
type CacheStore interface {
	// Get returns the entry for a hash, or domain.ErrNotFound.
	Get(ctx context.Context, hash string) (*domain.CacheEntry, error)

	// Put stores an entry if none exists for the hash.
	// An existing entry is left untouched.
	Put(ctx context.Context, hash string, entry *domain.CacheEntry) error
}

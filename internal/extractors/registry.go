package extractors

import (
	"fmt"
	"slices"
	"sync"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file kinds to extractors.
// Registering a second extractor for a kind replaces the first.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.FileKind]driven.Extractor
}

// NewRegistry creates a registry holding the given extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{
		extractors: make(map[domain.FileKind]driven.Extractor),
	}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor for every kind it reports.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, kind := range extractor.Kinds() {
		r.extractors[kind] = extractor
	}
}

// For returns the extractor registered for kind.
func (r *Registry) For(kind domain.FileKind) (driven.Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.extractors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no extractor for %s", domain.ErrUnsupportedType, kind)
	}
	return e, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []domain.FileKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.FileKind, 0, len(r.extractors))
	for k := range r.extractors {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

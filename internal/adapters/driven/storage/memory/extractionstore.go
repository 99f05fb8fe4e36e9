package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Ensure ExtractionStore implements the interface.
var _ driven.ExtractionStore = (*ExtractionStore)(nil)

// ExtractionStore is an in-memory implementation of driven.ExtractionStore.
type ExtractionStore struct {
	mu      sync.RWMutex
	results map[string]domain.ExtractionResult
	order   map[string]int
	next    int
}

// NewExtractionStore creates a new in-memory extraction store.
func NewExtractionStore() *ExtractionStore {
	return &ExtractionStore{
		results: make(map[string]domain.ExtractionResult),
		order:   make(map[string]int),
	}
}

// Save stores or replaces a result.
func (s *ExtractionStore) Save(_ context.Context, result *domain.ExtractionResult) error {
	if result == nil || result.FileID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.order[result.FileID]; !exists {
		s.order[result.FileID] = s.next
		s.next++
	}
	s.results[result.FileID] = *result
	return nil
}

// Get retrieves a result by file ID.
func (s *ExtractionStore) Get(_ context.Context, fileID string) (*domain.ExtractionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[fileID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &result, nil
}

// ListByLesson returns all results for a lesson in the order they were first saved.
func (s *ExtractionStore) ListByLesson(_ context.Context, lessonID string) ([]domain.ExtractionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []domain.ExtractionResult
	for _, r := range s.results {
		if r.LessonID == lessonID {
			results = append(results, r)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return s.order[results[i].FileID] < s.order[results[j].FileID]
	})
	return results, nil
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

func TestExtractionStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	store := NewExtractionStore()

	result := domain.NewExtractionResult("f1", "lesson-1")
	require.NoError(t, store.Save(ctx, result))

	got, err := store.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "lesson-1", got.LessonID)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestExtractionStore_GetMissing(t *testing.T) {
	_, err := NewExtractionStore().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExtractionStore_SaveInvalid(t *testing.T) {
	store := NewExtractionStore()
	assert.ErrorIs(t, store.Save(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(context.Background(), &domain.ExtractionResult{}), domain.ErrInvalidInput)
}

func TestExtractionStore_ListByLesson(t *testing.T) {
	ctx := context.Background()
	store := NewExtractionStore()

	require.NoError(t, store.Save(ctx, domain.NewExtractionResult("b", "lesson-1")))
	require.NoError(t, store.Save(ctx, domain.NewExtractionResult("a", "lesson-1")))
	require.NoError(t, store.Save(ctx, domain.NewExtractionResult("c", "lesson-2")))

	// Re-saving keeps the original position.
	updated := domain.NewExtractionResult("b", "lesson-1")
	updated.Status = domain.StatusComplete
	require.NoError(t, store.Save(ctx, updated))

	results, err := store.ListByLesson(ctx, "lesson-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].FileID)
	assert.Equal(t, domain.StatusComplete, results[0].Status)
	assert.Equal(t, "a", results[1].FileID)

	empty, err := store.ListByLesson(ctx, "lesson-3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/adapters/driven/vector/vectortest"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

func TestVectorStore_Contract(t *testing.T) {
	vectortest.Run(t, func(t *testing.T) driven.VectorStore {
		return setupTestStore(t).VectorStore()
	})
}

func TestVectorStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.VectorStore().Upsert(ctx, driven.CollectionContent, []driven.VectorRecord{{
		ID:       "Intro#0",
		Vector:   []float32{0.6, 0.8},
		Document: "Course Intro Lesson 1 content: hello",
		Metadata: map[string]any{
			driven.MetaCourseTitle:  "Intro",
			driven.MetaLessonNumber: 1,
			driven.MetaChunkIndex:   0,
		},
	}}))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	hits, err := second.VectorStore().Query(ctx, driven.CollectionContent, []float32{0.6, 0.8}, 5,
		driven.Filter{driven.MetaLessonNumber: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Intro#0", hits[0].ID)
	assert.Equal(t, "Course Intro Lesson 1 content: hello", hits[0].Document)
	assert.Equal(t, 1, hits[0].Metadata[driven.MetaLessonNumber])
	assert.Equal(t, 0, hits[0].Metadata[driven.MetaChunkIndex])
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestVectorStore_DeleteWithoutFilterClearsCollection(t *testing.T) {
	store := setupTestStore(t)
	vectors := store.VectorStore()
	ctx := context.Background()

	require.NoError(t, vectors.Upsert(ctx, driven.CollectionCatalog, []driven.VectorRecord{{ID: "a", Vector: []float32{1}}}))
	require.NoError(t, vectors.Upsert(ctx, driven.CollectionContent, []driven.VectorRecord{{ID: "b", Vector: []float32{1}}}))

	require.NoError(t, vectors.Delete(ctx, driven.CollectionCatalog, nil))

	n, err := vectors.Count(ctx, driven.CollectionCatalog)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = vectors.Count(ctx, driven.CollectionContent)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVectorStore_ReplaceKeepsPosition(t *testing.T) {
	store := setupTestStore(t)
	vectors := store.VectorStore()
	ctx := context.Background()

	require.NoError(t, vectors.Upsert(ctx, driven.CollectionContent, []driven.VectorRecord{
		{ID: "first", Vector: []float32{1, 0}},
		{ID: "second", Vector: []float32{1, 0}},
	}))
	require.NoError(t, vectors.Upsert(ctx, driven.CollectionContent, []driven.VectorRecord{
		{ID: "first", Vector: []float32{1, 0}, Document: "updated"},
	}))

	// Equal scores rank in insertion order.
	hits, err := vectors.Query(ctx, driven.CollectionContent, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first", hits[0].ID)
	assert.Equal(t, "updated", hits[0].Document)
	assert.Equal(t, "second", hits[1].ID)
}

func TestVectorStore_NonPositiveK(t *testing.T) {
	store := setupTestStore(t)

	hits, err := store.VectorStore().Query(context.Background(), driven.CollectionContent, []float32{1}, 0, nil)
	require.NoError(t, err)
	assert.Nil(t, hits)
}

func TestDecodeMetadata(t *testing.T) {
	meta, err := decodeMetadata(`{"course_title":"A","lesson_number":3,"score":0.5}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"course_title": "A", "lesson_number": 3, "score": 0.5}, meta)

	meta, err = decodeMetadata("")
	require.NoError(t, err)
	assert.Nil(t, meta)

	_, err = decodeMetadata("{")
	assert.Error(t, err)
}

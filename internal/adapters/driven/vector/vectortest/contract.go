// Package vectortest holds behaviour checks every VectorStore must pass.
package vectortest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) driven.VectorStore

func rec(id, course string, lesson int, v ...float32) driven.VectorRecord {
	meta := map[string]any{driven.MetaCourseTitle: course}
	if lesson >= 0 {
		meta[driven.MetaLessonNumber] = lesson
	}
	return driven.VectorRecord{ID: id, Vector: v, Document: id + " text", Metadata: meta}
}

// Run exercises the VectorStore contract.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("empty collection", func(t *testing.T) {
		s := newStore(t)
		n, err := s.Count(ctx, driven.CollectionContent)
		require.NoError(t, err)
		assert.Zero(t, n)

		hits, err := s.Query(ctx, driven.CollectionContent, []float32{1, 0, 0}, 5, nil)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("ranked by similarity", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, driven.CollectionContent, []driven.VectorRecord{
			rec("far", "A", 1, 0, 1, 0),
			rec("near", "A", 1, 1, 0.1, 0),
			rec("mid", "A", 2, 1, 1, 0),
		}))

		hits, err := s.Query(ctx, driven.CollectionContent, []float32{1, 0, 0}, 3, nil)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, "near", hits[0].ID)
		assert.Equal(t, "mid", hits[1].ID)
		assert.Equal(t, "far", hits[2].ID)
		assert.Equal(t, "near text", hits[0].Document)
		assert.GreaterOrEqual(t, hits[0].Similarity, hits[1].Similarity)
		assert.GreaterOrEqual(t, hits[1].Similarity, hits[2].Similarity)
		assert.Equal(t, "A", hits[0].Metadata[driven.MetaCourseTitle])

		top1, err := s.Query(ctx, driven.CollectionContent, []float32{1, 0, 0}, 1, nil)
		require.NoError(t, err)
		assert.Len(t, top1, 1)
	})

	t.Run("filters are exact conjunctions", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, driven.CollectionContent, []driven.VectorRecord{
			rec("a1", "A", 1, 1, 0),
			rec("a2", "A", 2, 1, 0),
			rec("b1", "B", 1, 1, 0),
			rec("a-pre", "A", -1, 1, 0),
		}))

		hits, err := s.Query(ctx, driven.CollectionContent, []float32{1, 0}, 10,
			driven.Filter{driven.MetaCourseTitle: "A", driven.MetaLessonNumber: 1})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "a1", hits[0].ID)

		hits, err = s.Query(ctx, driven.CollectionContent, []float32{1, 0}, 10,
			driven.Filter{driven.MetaCourseTitle: "A"})
		require.NoError(t, err)
		assert.Len(t, hits, 3)

		hits, err = s.Query(ctx, driven.CollectionContent, []float32{1, 0}, 10,
			driven.Filter{driven.MetaLessonNumber: 1})
		require.NoError(t, err)
		assert.Len(t, hits, 2)

		hits, err = s.Query(ctx, driven.CollectionContent, []float32{1, 0}, 10,
			driven.Filter{driven.MetaCourseTitle: "Z"})
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("upsert replaces by id", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, driven.CollectionCatalog, []driven.VectorRecord{rec("c", "Old", -1, 1, 0)}))
		require.NoError(t, s.Upsert(ctx, driven.CollectionCatalog, []driven.VectorRecord{rec("c", "New", -1, 0, 1)}))

		n, err := s.Count(ctx, driven.CollectionCatalog)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		hits, err := s.Query(ctx, driven.CollectionCatalog, []float32{0, 1}, 1, nil)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "New", hits[0].Metadata[driven.MetaCourseTitle])
	})

	t.Run("collections are isolated", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, driven.CollectionCatalog, []driven.VectorRecord{rec("x", "A", -1, 1)}))

		n, err := s.Count(ctx, driven.CollectionContent)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("delete by filter", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, driven.CollectionContent, []driven.VectorRecord{
			rec("a1", "A", 1, 1, 0),
			rec("a2", "A", 2, 1, 0),
			rec("b1", "B", 1, 1, 0),
		}))

		require.NoError(t, s.Delete(ctx, driven.CollectionContent, driven.Filter{driven.MetaCourseTitle: "A"}))

		n, err := s.Count(ctx, driven.CollectionContent)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		// Deleting from an unknown collection is a no-op.
		require.NoError(t, s.Delete(ctx, "missing", driven.Filter{driven.MetaCourseTitle: "A"}))
	})

	t.Run("concurrent readers", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, driven.CollectionContent, []driven.VectorRecord{
			rec("a1", "A", 1, 1, 0),
			rec("a2", "A", 2, 0, 1),
		}))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				hits, err := s.Query(ctx, driven.CollectionContent, []float32{1, 0}, 1, nil)
				assert.NoError(t, err)
				if assert.Len(t, hits, 1) {
					assert.Equal(t, "a1", hits[0].ID)
				}
			}()
		}
		wg.Wait()
	})
}

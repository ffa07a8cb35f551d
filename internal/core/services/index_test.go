package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

func TestCatalogID_Deterministic(t *testing.T) {
	assert.Equal(t, CatalogID("Intro to Testing"), CatalogID("Intro to Testing"))
	assert.NotEqual(t, CatalogID("Intro to Testing"), CatalogID("Advanced Go Concurrency"))
}

func TestSemanticIndex_ResolveCourse_EmptyCatalog(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.index.ResolveCourse(context.Background(), "testing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCatalogEmpty))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, domain.ClassNoData, domain.Classify(err))
}

func TestSemanticIndex_ResolveCourse_PicksClosest(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, introToTesting, advancedGo)

	title, sim, err := env.index.ResolveCourse(context.Background(), "testing")
	require.NoError(t, err)
	assert.Equal(t, "Intro to Testing", title)
	assert.Greater(t, sim, 0.0)

	title, _, err = env.index.ResolveCourse(context.Background(), "goroutines and channels")
	require.NoError(t, err)
	assert.Equal(t, "Advanced Go Concurrency", title)
}

func TestSemanticIndex_ResolveCourse_AcceptsTopMatchWithoutThreshold(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, introToTesting)

	title, _, err := env.index.ResolveCourse(context.Background(), "Quantum Macrame")

	require.NoError(t, err)
	assert.Equal(t, "Intro to Testing", title)
}

func TestSemanticIndex_ResolveCourse_BelowThreshold(t *testing.T) {
	env := newTestEnv(t, func(c *envConfig) { c.minSimilarity = 0.5 })
	env.load(t, introToTesting)

	_, sim, err := env.index.ResolveCourse(context.Background(), "Quantum Macrame")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoMatchingCourse))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, domain.ClassNoMatch, domain.Classify(err))
	assert.Less(t, sim, 0.5)
}

func TestSemanticIndex_SearchContent_EmptyIndex(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.index.SearchContent(context.Background(), "anything", ContentFilter{}, 5)

	assert.True(t, errors.Is(err, domain.ErrIndexEmpty))
	assert.Equal(t, 0, env.store.count(driven.CollectionContent))
}

func TestSemanticIndex_SearchContent_Filters(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, introToTesting, advancedGo)
	ctx := context.Background()

	passages, err := env.index.SearchContent(ctx, "unit test assertions", ContentFilter{
		CourseTitle:  "Intro to Testing",
		LessonNumber: domain.LessonRef(1),
	}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, passages)
	for _, p := range passages {
		assert.Equal(t, "Intro to Testing", p.CourseTitle)
		require.NotNil(t, p.LessonNumber)
		assert.Equal(t, 1, *p.LessonNumber)
	}

	// Lesson 1 exists in both courses
	passages, err = env.index.SearchContent(ctx, "lesson content", ContentFilter{LessonNumber: domain.LessonRef(1)}, 50)
	require.NoError(t, err)
	courses := map[string]bool{}
	for _, p := range passages {
		courses[p.CourseTitle] = true
	}
	assert.Len(t, courses, 2)

	passages, err = env.index.SearchContent(ctx, "select", ContentFilter{CourseTitle: "Nope"}, 5)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestSemanticIndex_SearchContent_RankedDescending(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, introToTesting, advancedGo)

	passages, err := env.index.SearchContent(context.Background(), "channels and goroutines", ContentFilter{}, 20)
	require.NoError(t, err)
	require.NotEmpty(t, passages)

	assert.Equal(t, "Advanced Go Concurrency", passages[0].CourseTitle)
	for i := 1; i < len(passages); i++ {
		assert.GreaterOrEqual(t, passages[i-1].Similarity, passages[i].Similarity)
	}
}

func TestSemanticIndex_PurgeCourse(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, introToTesting, advancedGo)
	ctx := context.Background()

	before, err := env.index.ContentCount(ctx)
	require.NoError(t, err)

	require.NoError(t, env.index.PurgeCourse(ctx, "Intro to Testing"))

	after, err := env.index.ContentCount(ctx)
	require.NoError(t, err)
	assert.Less(t, after, before)

	n, err := env.store.Count(ctx, driven.CollectionCatalog)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	passages, err := env.index.SearchContent(ctx, "unit tests", ContentFilter{}, 50)
	require.NoError(t, err)
	for _, p := range passages {
		assert.Equal(t, "Advanced Go Concurrency", p.CourseTitle)
	}
}

func TestSemanticIndex_BackendFailureIsUpstream(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, introToTesting)
	env.store.queryErr = errors.New("disk on fire")

	_, err := env.index.SearchContent(context.Background(), "unit", ContentFilter{}, 5)

	assert.True(t, errors.Is(err, domain.ErrIndex))
	assert.Equal(t, domain.ClassUpstream, domain.Classify(err))
}

func TestSemanticIndex_AddChunks_Batches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	chunks := make([]domain.Chunk, embedBatchSize+3)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:          CatalogID("chunk" + string(rune('A'+i%26)) + string(rune('a'+i/26))),
			CourseTitle: "Bulk",
			Index:       i,
			Content:     "bulk content",
		}
	}
	require.NoError(t, env.index.AddChunks(ctx, chunks))

	n, err := env.index.ContentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(chunks), n)
}

func TestMetaInt(t *testing.T) {
	for _, v := range []any{3, int64(3), float64(3)} {
		n, ok := metaInt(v)
		assert.True(t, ok)
		assert.Equal(t, 3, n)
	}
	_, ok := metaInt("3")
	assert.False(t, ok)
}

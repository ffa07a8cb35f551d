package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/logger"
)

// embedBatchSize bounds how many texts go to the embedder per call.
const embedBatchSize = 64

var catalogNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lectern/catalog"))

// CatalogID returns the catalog record ID for a course title.
func CatalogID(title string) string {
	return uuid.NewSHA1(catalogNamespace, []byte(title)).String()
}

// ContentFilter restricts a content search. Zero values mean no restriction.
type ContentFilter struct {
	CourseTitle  string
	LessonNumber *int
}

func (f ContentFilter) toFilter() driven.Filter {
	out := driven.Filter{}
	if f.CourseTitle != "" {
		out[driven.MetaCourseTitle] = f.CourseTitle
	}
	if f.LessonNumber != nil {
		out[driven.MetaLessonNumber] = *f.LessonNumber
	}
	return out
}

// IndexOption configures a SemanticIndex.
type IndexOption func(*SemanticIndex)

// WithMinCourseSimilarity rejects catalog matches below min. Zero accepts
// the top match unconditionally.
func WithMinCourseSimilarity(min float64) IndexOption {
	return func(x *SemanticIndex) {
		x.minCourseSimilarity = min
	}
}

// SemanticIndex maintains the catalog and content collections on top of a
// VectorStore. Reads are safe to run concurrently; writers are expected to
// be serialised by the caller.
type SemanticIndex struct {
	store               driven.VectorStore
	embedder            driven.EmbeddingService
	minCourseSimilarity float64
}

// NewSemanticIndex creates an index over store using embedder.
func NewSemanticIndex(store driven.VectorStore, embedder driven.EmbeddingService, opts ...IndexOption) *SemanticIndex {
	x := &SemanticIndex{store: store, embedder: embedder}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// AddCourse inserts or replaces the catalog record for a course.
func (x *SemanticIndex) AddCourse(ctx context.Context, course *domain.Course) error {
	vec, err := x.embedder.Embed(ctx, course.CatalogText())
	if err != nil {
		return fmt.Errorf("%w: embed catalog entry: %v", domain.ErrIndex, err)
	}
	rec := driven.VectorRecord{
		ID:       CatalogID(course.Title),
		Vector:   vec,
		Document: course.Title,
		Metadata: map[string]any{driven.MetaCourseTitle: course.Title},
	}
	if err := x.store.Upsert(ctx, driven.CollectionCatalog, []driven.VectorRecord{rec}); err != nil {
		return wrapIndex("upsert catalog", err)
	}
	return nil
}

// AddChunks embeds and stores chunks in the content collection.
func (x *SemanticIndex) AddChunks(ctx context.Context, chunks []domain.Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vecs, err := x.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: embed chunks: %v", domain.ErrIndex, err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("%w: embedder returned %d vectors for %d chunks", domain.ErrIndex, len(vecs), len(batch))
		}

		records := make([]driven.VectorRecord, len(batch))
		for i, c := range batch {
			meta := map[string]any{
				driven.MetaCourseTitle: c.CourseTitle,
				driven.MetaChunkIndex:  c.Index,
			}
			if c.LessonNumber != nil {
				meta[driven.MetaLessonNumber] = *c.LessonNumber
			}
			records[i] = driven.VectorRecord{ID: c.ID, Vector: vecs[i], Document: c.Content, Metadata: meta}
		}
		if err := x.store.Upsert(ctx, driven.CollectionContent, records); err != nil {
			return wrapIndex("upsert content", err)
		}
		logger.Debug("Indexed chunks %d-%d", start, end-1)
	}
	return nil
}

// ResolveCourse maps a fuzzy course reference to an exact title.
// It returns ErrCatalogEmpty when no course is indexed and
// ErrNoMatchingCourse when the best match is below the threshold.
func (x *SemanticIndex) ResolveCourse(ctx context.Context, hint string) (string, float64, error) {
	n, err := x.store.Count(ctx, driven.CollectionCatalog)
	if err != nil {
		return "", 0, wrapIndex("count catalog", err)
	}
	if n == 0 {
		return "", 0, domain.ErrCatalogEmpty
	}

	vec, err := x.embedder.Embed(ctx, hint)
	if err != nil {
		return "", 0, fmt.Errorf("%w: embed course hint: %v", domain.ErrIndex, err)
	}
	hits, err := x.store.Query(ctx, driven.CollectionCatalog, vec, 1, nil)
	if err != nil {
		return "", 0, wrapIndex("query catalog", err)
	}
	if len(hits) == 0 {
		return "", 0, domain.ErrCatalogEmpty
	}

	best := hits[0]
	title, _ := best.Metadata[driven.MetaCourseTitle].(string)
	if title == "" {
		title = best.Document
	}
	logger.Debugw("resolved course", "hint", hint, "title", title, "similarity", best.Similarity)

	if x.minCourseSimilarity > 0 && best.Similarity < x.minCourseSimilarity {
		return "", best.Similarity, fmt.Errorf("%w: %q (best %q at %.3f, need %.3f)",
			domain.ErrNoMatchingCourse, hint, title, best.Similarity, x.minCourseSimilarity)
	}
	return title, best.Similarity, nil
}

// SearchContent returns up to k passages most similar to query.
// It returns ErrIndexEmpty when no content is indexed at all.
func (x *SemanticIndex) SearchContent(ctx context.Context, query string, filter ContentFilter, k int) ([]domain.Passage, error) {
	n, err := x.store.Count(ctx, driven.CollectionContent)
	if err != nil {
		return nil, wrapIndex("count content", err)
	}
	if n == 0 {
		return nil, domain.ErrIndexEmpty
	}

	vec, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrIndex, err)
	}
	hits, err := x.store.Query(ctx, driven.CollectionContent, vec, k, filter.toFilter())
	if err != nil {
		return nil, wrapIndex("query content", err)
	}

	passages := make([]domain.Passage, 0, len(hits))
	for _, h := range hits {
		p := domain.Passage{Text: h.Document, Similarity: h.Similarity}
		p.CourseTitle, _ = h.Metadata[driven.MetaCourseTitle].(string)
		if n, ok := metaInt(h.Metadata[driven.MetaLessonNumber]); ok {
			p.LessonNumber = domain.LessonRef(n)
		}
		if n, ok := metaInt(h.Metadata[driven.MetaChunkIndex]); ok {
			p.ChunkIndex = n
		}
		passages = append(passages, p)
	}
	return passages, nil
}

// PurgeCourse removes a course's catalog record and all of its chunks.
func (x *SemanticIndex) PurgeCourse(ctx context.Context, title string) error {
	f := driven.Filter{driven.MetaCourseTitle: title}
	if err := x.store.Delete(ctx, driven.CollectionContent, f); err != nil {
		return wrapIndex("purge content", err)
	}
	if err := x.store.Delete(ctx, driven.CollectionCatalog, f); err != nil {
		return wrapIndex("purge catalog", err)
	}
	return nil
}

// ContentCount returns the number of indexed chunks.
func (x *SemanticIndex) ContentCount(ctx context.Context) (int, error) {
	n, err := x.store.Count(ctx, driven.CollectionContent)
	if err != nil {
		return 0, wrapIndex("count content", err)
	}
	return n, nil
}

// wrapIndex tags backend failures with ErrIndex unless they already carry
// a domain classification.
func wrapIndex(op string, err error) error {
	if errors.Is(err, domain.ErrIndex) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrIndex, op, err)
}

func metaInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

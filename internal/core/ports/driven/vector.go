package driven

import "context"

// Collection names used by the semantic index.
const (
	// CollectionCatalog holds one record per course.
	CollectionCatalog = "catalog"

	// CollectionContent holds one record per chunk.
	CollectionContent = "content"
)

// Metadata keys stored alongside vectors.
const (
	MetaCourseTitle  = "course_title"
	MetaLessonNumber = "lesson_number"
	MetaChunkIndex   = "chunk_index"
)

// VectorRecord is a stored vector with its document text and metadata.
// Metadata values are strings, ints or float64s.
type VectorRecord struct {
	ID       string
	Vector   []float32
	Document string
	Metadata map[string]any
}

// VectorHit is a query result.
type VectorHit struct {
	ID         string
	Document   string
	Metadata   map[string]any
	Similarity float64
}

// Filter is an exact-match conjunction over metadata keys.
// A nil or empty Filter matches every record.
type Filter map[string]any

// Matches reports whether metadata satisfies every clause of f.
// Integer-valued clauses match regardless of the numeric type stored.
func (f Filter) Matches(metadata map[string]any) bool {
	for k, want := range f {
		got, ok := metadata[k]
		if !ok || !valuesEqual(want, got) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if an, ok := asFloat(a); ok {
		bn, ok := asFloat(b)
		return ok && an == bn
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

// VectorStore stores vectors in named collections and answers cosine
// similarity queries. Concurrent reads must be safe.
type VectorStore interface {
	// Upsert inserts or replaces records by ID.
	Upsert(ctx context.Context, collection string, records []VectorRecord) error

	// Query returns up to k records matching filter, most similar first.
	Query(ctx context.Context, collection string, vector []float32, k int, filter Filter) ([]VectorHit, error)

	// Delete removes every record matching filter.
	Delete(ctx context.Context, collection string, filter Filter) error

	// Count returns the number of records in a collection.
	Count(ctx context.Context, collection string) (int, error)

	// Close releases resources.
	Close() error
}

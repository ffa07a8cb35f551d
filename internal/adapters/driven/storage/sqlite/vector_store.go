package sqlite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/lectern/internal/adapters/driven/vector/similarity"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore over the vectors table.
// Queries scan the collection and rank in Go.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert inserts or replaces records by ID. New records are appended to the
// collection's insertion order; replaced records keep their position.
func (s *vectorStore) Upsert(ctx context.Context, collection string, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", domain.ErrIndex, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (collection, id, seq, course_title, dimensions, vector, document, metadata)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM vectors WHERE collection = ?), ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			course_title = excluded.course_title,
			dimensions = excluded.dimensions,
			vector = excluded.vector,
			document = excluded.document,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing upsert: %v", domain.ErrIndex, err)
	}
	defer stmt.Close()

	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record without id", domain.ErrInvalidInput)
		}
		meta := r.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		metadataJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("%w: marshalling metadata for %q: %v", domain.ErrInvalidInput, r.ID, err)
		}
		courseTitle, _ := meta[driven.MetaCourseTitle].(string)

		if _, err := stmt.ExecContext(ctx, collection, r.ID, collection, courseTitle, len(r.Vector),
			float32SliceToBytes(r.Vector), r.Document, string(metadataJSON)); err != nil {
			return fmt.Errorf("%w: saving vector %q: %v", domain.ErrIndex, r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing vectors: %v", domain.ErrIndex, err)
	}
	return nil
}

// Query ranks the records matching filter by cosine similarity.
func (s *vectorStore) Query(ctx context.Context, collection string, vector []float32, k int, filter driven.Filter) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	candidates, err := s.scan(ctx, collection, filter, true)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = similarity.Cosine(vector, c.Vector)
	}

	top := similarity.TopK(scores, k)
	hits := make([]driven.VectorHit, len(top))
	for i, sc := range top {
		c := candidates[sc.Index]
		hits[i] = driven.VectorHit{
			ID:         c.ID,
			Document:   c.Document,
			Metadata:   c.Metadata,
			Similarity: sc.Score,
		}
	}
	return hits, nil
}

// Delete removes records matching filter. An empty filter clears the collection.
func (s *vectorStore) Delete(ctx context.Context, collection string, filter driven.Filter) error {
	if len(filter) == 0 {
		if _, err := s.store.db.ExecContext(ctx, "DELETE FROM vectors WHERE collection = ?", collection); err != nil {
			return fmt.Errorf("%w: clearing collection: %v", domain.ErrIndex, err)
		}
		return nil
	}

	matches, err := s.scan(ctx, collection, filter, false)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", domain.ErrIndex, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, m := range matches {
		if _, err := tx.ExecContext(ctx, "DELETE FROM vectors WHERE collection = ? AND id = ?", collection, m.ID); err != nil {
			return fmt.Errorf("%w: deleting vector %q: %v", domain.ErrIndex, m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing delete: %v", domain.ErrIndex, err)
	}
	return nil
}

// Count returns the number of records in a collection.
func (s *vectorStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors WHERE collection = ?", collection)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting vectors: %v", domain.ErrIndex, err)
	}
	return n, nil
}

// Close is a no-op; the database belongs to Store.
func (s *vectorStore) Close() error {
	return nil
}

// scan loads the records of a collection that satisfy filter, in insertion
// order. A string course title clause is pushed down to the index.
func (s *vectorStore) scan(ctx context.Context, collection string, filter driven.Filter, withVectors bool) ([]driven.VectorRecord, error) {
	var query strings.Builder
	query.WriteString("SELECT id, document, metadata")
	if withVectors {
		query.WriteString(", vector")
	}
	query.WriteString(" FROM vectors WHERE collection = ?")
	args := []any{collection}
	if title, ok := filter[driven.MetaCourseTitle].(string); ok {
		query.WriteString(" AND course_title = ?")
		args = append(args, title)
	}
	query.WriteString(" ORDER BY seq")

	rows, err := s.store.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying vectors: %v", domain.ErrIndex, err)
	}
	defer rows.Close()

	var out []driven.VectorRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r driven.VectorRecord
		var metadataJSON string
		var blob []byte
		dest := []any{&r.ID, &r.Document, &metadataJSON}
		if withVectors {
			dest = append(dest, &blob)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scanning vector: %v", domain.ErrIndex, err)
		}

		r.Metadata, err = decodeMetadata(metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding metadata of %q: %v", domain.ErrIndex, r.ID, err)
		}
		if !filter.Matches(r.Metadata) {
			continue
		}
		r.Vector = bytesToFloat32Slice(blob)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating vectors: %v", domain.ErrIndex, err)
	}
	return out, nil
}

// decodeMetadata restores integral numbers as int so metadata reads back
// the way it was written.
func decodeMetadata(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var meta map[string]any
	if err := dec.Decode(&meta); err != nil {
		return nil, err
	}
	for k, v := range meta {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			meta[k] = int(i)
		} else if f, err := n.Float64(); err == nil {
			meta[k] = f
		}
	}
	return meta, nil
}

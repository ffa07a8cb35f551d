// Package memory provides an in-process VectorStore using brute-force
// cosine similarity. Contents are lost on exit.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/lectern/internal/adapters/driven/vector/similarity"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

type collection struct {
	ids     []string
	records map[string]driven.VectorRecord
}

// Store keeps every collection in memory.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	closed      bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) get(name string, create bool) *collection {
	c, ok := s.collections[name]
	if !ok && create {
		c = &collection{records: make(map[string]driven.VectorRecord)}
		s.collections[name] = c
	}
	return c
}

// Upsert inserts or replaces records by ID. Insertion order is kept for
// records that are new.
func (s *Store) Upsert(_ context.Context, name string, records []driven.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: store closed", domain.ErrIndex)
	}
	c := s.get(name, true)
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record without id", domain.ErrInvalidInput)
		}
		if _, exists := c.records[r.ID]; !exists {
			c.ids = append(c.ids, r.ID)
		}
		c.records[r.ID] = copyRecord(r)
	}
	return nil
}

// Query ranks records matching filter by cosine similarity.
func (s *Store) Query(_ context.Context, name string, vector []float32, k int, filter driven.Filter) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("%w: store closed", domain.ErrIndex)
	}
	c := s.get(name, false)
	if c == nil || k <= 0 {
		return nil, nil
	}

	candidates := make([]driven.VectorRecord, 0, len(c.ids))
	scores := make([]float64, 0, len(c.ids))
	for _, id := range c.ids {
		r := c.records[id]
		if !filter.Matches(r.Metadata) {
			continue
		}
		candidates = append(candidates, r)
		scores = append(scores, similarity.Cosine(vector, r.Vector))
	}

	top := similarity.TopK(scores, k)
	hits := make([]driven.VectorHit, len(top))
	for i, sc := range top {
		r := candidates[sc.Index]
		hits[i] = driven.VectorHit{
			ID:         r.ID,
			Document:   r.Document,
			Metadata:   copyMeta(r.Metadata),
			Similarity: sc.Score,
		}
	}
	return hits, nil
}

// Delete removes records matching filter.
func (s *Store) Delete(_ context.Context, name string, filter driven.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.get(name, false)
	if c == nil {
		return nil
	}
	kept := c.ids[:0]
	for _, id := range c.ids {
		if filter.Matches(c.records[id].Metadata) {
			delete(c.records, id)
			continue
		}
		kept = append(kept, id)
	}
	c.ids = kept
	return nil
}

// Count returns the number of records in a collection.
func (s *Store) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.get(name, false)
	if c == nil {
		return 0, nil
	}
	return len(c.ids), nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func copyRecord(r driven.VectorRecord) driven.VectorRecord {
	v := make([]float32, len(r.Vector))
	copy(v, r.Vector)
	r.Vector = v
	r.Metadata = copyMeta(r.Metadata)
	return r
}

func copyMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Package memory keeps conversation history in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// Store is a mutex-guarded map of session id to exchanges.
type Store struct {
	mu       sync.Mutex
	sessions map[string][]domain.Exchange
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string][]domain.Exchange)}
}

// Load returns a copy of the session's exchanges.
func (s *Store) Load(_ context.Context, sessionID string) ([]domain.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Exchange(nil), s.sessions[sessionID]...), nil
}

// Append adds an exchange and evicts the oldest beyond max.
// A max of zero keeps no history.
func (s *Store) Append(_ context.Context, sessionID string, exchange domain.Exchange, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if max <= 0 {
		delete(s.sessions, sessionID)
		return nil
	}
	h := append(s.sessions[sessionID], exchange)
	if len(h) > max {
		h = append([]domain.Exchange(nil), h[len(h)-max:]...)
	}
	s.sessions[sessionID] = h
	return nil
}

// Clear forgets a session.
func (s *Store) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

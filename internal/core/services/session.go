package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// DefaultMaxHistory is the number of exchanges kept per session.
const DefaultMaxHistory = 2

// SessionService keeps a rolling window of exchanges per session.
type SessionService struct {
	store      driven.SessionStore
	maxHistory int
}

// NewSessionService creates a session service. A negative maxHistory
// disables history.
func NewSessionService(store driven.SessionStore, maxHistory int) *SessionService {
	return &SessionService{store: store, maxHistory: maxHistory}
}

// History returns "User: ...\nAssistant: ..." lines, oldest first.
func (s *SessionService) History(ctx context.Context, sessionID string) (string, error) {
	exchanges, err := s.Exchanges(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return FormatHistory(exchanges), nil
}

// Exchanges returns the stored exchanges of a session.
func (s *SessionService) Exchanges(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	if sessionID == "" {
		return nil, nil
	}
	return s.store.Load(ctx, sessionID)
}

// Append records one exchange.
func (s *SessionService) Append(ctx context.Context, sessionID, user, assistant string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.Append(ctx, sessionID, domain.Exchange{User: user, Assistant: assistant}, s.maxHistory)
}

// Clear forgets a session.
func (s *SessionService) Clear(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID)
}

// FormatHistory renders exchanges for the system prompt.
func FormatHistory(exchanges []domain.Exchange) string {
	if len(exchanges) == 0 {
		return ""
	}
	lines := make([]string, 0, 2*len(exchanges))
	for _, e := range exchanges {
		lines = append(lines, "User: "+e.User, "Assistant: "+e.Assistant)
	}
	return strings.Join(lines, "\n")
}

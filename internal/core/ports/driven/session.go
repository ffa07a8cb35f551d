package driven

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// SessionStore keeps bounded conversation history per session.
type SessionStore interface {
	// Load returns the exchanges of a session, oldest first.
	// An unknown session has no history and is not an error.
	Load(ctx context.Context, sessionID string) ([]domain.Exchange, error)

	// Append adds an exchange and drops the oldest until at most max remain.
	Append(ctx context.Context, sessionID string, exchange domain.Exchange, max int) error

	// Clear removes a session.
	Clear(ctx context.Context, sessionID string) error

	// Close releases resources.
	Close() error
}

package driving

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// SessionService manages bounded conversation history.
type SessionService interface {
	// History returns the formatted history of a session, or "" when empty.
	History(ctx context.Context, sessionID string) (string, error)

	// Exchanges returns the raw exchanges of a session, oldest first.
	Exchanges(ctx context.Context, sessionID string) ([]domain.Exchange, error)

	// Append records an exchange, evicting the oldest beyond the window.
	Append(ctx context.Context, sessionID, user, assistant string) error

	// Clear forgets a session.
	Clear(ctx context.Context, sessionID string) error
}

package driving

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// AnswerService answers questions about the indexed courses.
type AnswerService interface {
	// Answer runs one question through the model, allowing at most one tool
	// call. An empty sessionID starts a new session.
	Answer(ctx context.Context, query, sessionID string) (*domain.Answer, error)
}

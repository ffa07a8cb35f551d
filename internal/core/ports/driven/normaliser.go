package driven

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// Normaliser parses raw documents into transcripts.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	Priority() int

	// Normalise parses a raw document. Malformed input yields an error
	// wrapping domain.ErrFormat.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Transcript, error)
}

package driven

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// NormaliserRegistry picks a Normaliser for each raw document. Types with
// no registered normaliser fail with domain.ErrUnsupportedType.
type NormaliserRegistry interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Transcript, error)
	Register(normaliser Normaliser)
	SupportedMIMETypes() []string
}

package driven

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// PostProcessor turns a transcript into chunks or rewrites existing chunks.
// PostProcessors are chained in a pipeline (chunking, then context prefixing).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a transcript and returns chunks.
	// A processor that creates chunks receives nil; one that modifies
	// chunks receives and returns them.
	Process(ctx context.Context, t *domain.Transcript, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the transcript through all processors in order.
	Process(ctx context.Context, t *domain.Transcript) ([]domain.Chunk, error)
}

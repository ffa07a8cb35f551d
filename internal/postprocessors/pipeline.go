// Package postprocessors turns normalised transcripts into index-ready chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/logger"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs processors in order. The first stage receives nil and must
// create the chunks; later stages rewrite them.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline returns a pipeline running processors in the given order.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process chunks t. The result is checked before it is returned: every chunk
// belongs to t's course, carries an ID and content, and indices run 0..n-1.
func (p *Pipeline) Process(ctx context.Context, t *domain.Transcript) ([]domain.Chunk, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: transcript is nil", domain.ErrInvalidInput)
	}
	if len(p.processors) == 0 {
		return nil, fmt.Errorf("%w: pipeline has no processors", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, proc := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		chunks, err = proc.Process(ctx, t, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", proc.Name(), err)
		}
		logger.Debugw("postprocess", "course", t.Course.Title, "stage", proc.Name(), "chunks", len(chunks))
	}

	if err := checkChunks(t.Course.Title, chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

func checkChunks(course string, chunks []domain.Chunk) error {
	for i, c := range chunks {
		switch {
		case c.CourseTitle != course:
			return fmt.Errorf("chunk %d belongs to %q, expected %q", i, c.CourseTitle, course)
		case c.Index != i:
			return fmt.Errorf("chunk %d has index %d", i, c.Index)
		case c.ID == "":
			return fmt.Errorf("chunk %d has no id", i)
		case c.Content == "":
			return fmt.Errorf("chunk %d has no content", i)
		}
	}
	return nil
}

// Add appends a processor.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

package driving

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// IngestOutcome describes what happened to one document.
type IngestOutcome string

// Ingest outcomes.
const (
	IngestAdded    IngestOutcome = "added"
	IngestReplaced IngestOutcome = "replaced"
	IngestSkipped  IngestOutcome = "skipped"
	IngestFailed   IngestOutcome = "failed"
)

// IngestReport summarises the ingestion of one document.
type IngestReport struct {
	URI         string
	CourseTitle string
	Outcome     IngestOutcome
	Lessons     int
	Chunks      int
	Err         error
}

// IngestService turns transcripts into index entries.
type IngestService interface {
	// Ingest parses, chunks and indexes one document. Re-ingesting an
	// identical document is a no-op; a changed one replaces the old entries.
	Ingest(ctx context.Context, raw *domain.RawDocument) (*IngestReport, error)

	// IngestFile reads and ingests one file.
	IngestFile(ctx context.Context, path string) (*IngestReport, error)

	// IngestDir ingests every transcript file in a directory. A malformed
	// document is reported and does not stop the others.
	IngestDir(ctx context.Context, dir string) ([]IngestReport, error)

	// Remove deletes a course and all of its chunks.
	Remove(ctx context.Context, title string) error
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
	"github.com/custodia-labs/lectern/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// readConcurrency bounds parallel file reads in IngestDir.
const readConcurrency = 8

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithMIMETypes sets the function mapping a file extension to a MIME type.
// Files whose extension maps to "" are ignored by IngestDir.
func WithMIMETypes(fn func(ext string) string) IngestOption {
	return func(s *IngestService) {
		s.mimeFor = fn
	}
}

// WithClock overrides the time source used for IngestedAt.
func WithClock(now func() time.Time) IngestOption {
	return func(s *IngestService) {
		s.now = now
	}
}

// IngestService parses transcripts, chunks them and writes the result to the
// semantic index and course store. Writes are serialised.
type IngestService struct {
	mu          sync.Mutex
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	index       *SemanticIndex
	courseStore driven.CourseStore
	mimeFor     func(ext string) string
	now         func() time.Time
}

// NewIngestService creates an ingest service.
func NewIngestService(
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	index *SemanticIndex,
	courseStore driven.CourseStore,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		normalisers: normalisers,
		pipeline:    pipeline,
		index:       index,
		courseStore: courseStore,
		mimeFor:     defaultMIMEType,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultMIMEType(ext string) string {
	switch strings.ToLower(ext) {
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	default:
		return ""
	}
}

// Ingest parses, chunks and indexes one document.
func (s *IngestService) Ingest(ctx context.Context, raw *domain.RawDocument) (*driving.IngestReport, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}
	report := &driving.IngestReport{URI: raw.URI, Outcome: driving.IngestFailed}

	transcript, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		report.Err = err
		return report, err
	}
	course := transcript.Course
	report.CourseTitle = course.Title
	report.Lessons = len(course.Lessons)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.courseStore.Get(ctx, course.Title)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		existing = nil
	default:
		report.Err = err
		return report, fmt.Errorf("look up course %q: %w", course.Title, err)
	}

	if existing != nil && existing.ContentHash == course.ContentHash {
		logger.Debug("Course %q unchanged, skipping", course.Title)
		report.Outcome = driving.IngestSkipped
		return report, nil
	}

	chunks, err := s.pipeline.Process(ctx, transcript)
	if err != nil {
		report.Err = err
		return report, fmt.Errorf("chunk %q: %w", course.Title, err)
	}
	report.Chunks = len(chunks)

	// Old chunks are removed even when the course store has no record, so a
	// lost course row cannot leave stale vectors behind.
	if err := s.index.PurgeCourse(ctx, course.Title); err != nil {
		report.Err = err
		return report, err
	}
	if err := s.index.AddCourse(ctx, &course); err != nil {
		report.Err = err
		return report, err
	}
	if err := s.index.AddChunks(ctx, chunks); err != nil {
		report.Err = err
		return report, err
	}

	course.IngestedAt = s.now()
	if err := s.courseStore.Save(ctx, &course); err != nil {
		report.Err = err
		return report, fmt.Errorf("save course %q: %w", course.Title, err)
	}

	report.Outcome = driving.IngestAdded
	if existing != nil {
		report.Outcome = driving.IngestReplaced
	}
	logger.Info("%s %q: %d lessons, %d chunks", report.Outcome, course.Title, report.Lessons, report.Chunks)
	return report, nil
}

// IngestFile reads and ingests one file.
func (s *IngestService) IngestFile(ctx context.Context, path string) (*driving.IngestReport, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return &driving.IngestReport{URI: path, Outcome: driving.IngestFailed, Err: err},
			fmt.Errorf("read %s: %w", path, err)
	}
	return s.Ingest(ctx, &domain.RawDocument{
		URI:      path,
		MIMEType: s.mimeFor(filepath.Ext(path)),
		Content:  content,
	})
}

// IngestDir ingests every recognised file under dir. Files are read in
// parallel and ingested one at a time in path order. Malformed and
// unreadable documents are reported; index failures abort the run.
func (s *IngestService) IngestDir(ctx context.Context, dir string) ([]driving.IngestReport, error) {
	paths, err := s.transcriptFiles(dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Found %d transcript files in %s", len(paths), dir)

	docs := make([]*domain.RawDocument, len(paths))
	readErrs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				readErrs[i] = err
				return nil
			}
			docs[i] = &domain.RawDocument{
				URI:      path,
				MIMEType: s.mimeFor(filepath.Ext(path)),
				Content:  content,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reports := make([]driving.IngestReport, 0, len(paths))
	for i, path := range paths {
		if readErrs[i] != nil {
			reports = append(reports, driving.IngestReport{URI: path, Outcome: driving.IngestFailed, Err: readErrs[i]})
			continue
		}
		report, err := s.Ingest(ctx, docs[i])
		if report != nil {
			reports = append(reports, *report)
		}
		if err != nil {
			if errors.Is(err, domain.ErrFormat) || errors.Is(err, domain.ErrUnsupportedType) {
				logger.Debug("skipping %s: %v", path, err)
				continue
			}
			return reports, err
		}
	}
	return reports, nil
}

// Remove deletes a course and all of its chunks.
func (s *IngestService) Remove(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.courseStore.Get(ctx, title); err != nil {
		return err
	}
	if err := s.index.PurgeCourse(ctx, title); err != nil {
		return err
	}
	return s.courseStore.Delete(ctx, title)
}

func (s *IngestService) transcriptFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if s.mimeFor(filepath.Ext(path)) != "" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

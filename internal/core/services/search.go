package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
	"github.com/custodia-labs/lectern/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultMaxResults is the number of passages returned when neither the
// query nor the service sets a limit.
const DefaultMaxResults = 5

// SearchService resolves course hints through the catalog and ranks passages
// from the content collection. It keeps no per-query state, so provenance is
// returned with each result.
type SearchService struct {
	index       *SemanticIndex
	courseStore driven.CourseStore
	maxResults  int
}

// NewSearchService creates a search service. The course store is optional
// and only used to attach lesson links to sources.
func NewSearchService(index *SemanticIndex, courseStore driven.CourseStore, maxResults int) *SearchService {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &SearchService{
		index:       index,
		courseStore: courseStore,
		maxResults:  maxResults,
	}
}

// Search runs one content search.
func (s *SearchService) Search(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	result := domain.SearchResult{LessonNumber: q.LessonNumber}

	if strings.TrimSpace(q.Query) == "" {
		return result, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	filter := ContentFilter{LessonNumber: q.LessonNumber}
	if hint := strings.TrimSpace(q.CourseHint); hint != "" {
		title, _, err := s.index.ResolveCourse(ctx, hint)
		if err != nil {
			return result, err
		}
		result.ResolvedCourse = title
		filter.CourseTitle = title
	}

	k := s.maxResults
	if q.Limit > 0 {
		k = q.Limit
	}

	logger.Debugw("content search", "query", q.Query, "course", filter.CourseTitle, "k", k)
	passages, err := s.index.SearchContent(ctx, q.Query, filter, k)
	if err != nil {
		return result, err
	}

	result.Passages = passages
	result.Sources = s.sources(ctx, passages)
	logger.Debug("Search returned %d passages", len(passages))
	return result, nil
}

// sources derives deduplicated provenance from passages, in rank order.
func (s *SearchService) sources(ctx context.Context, passages []domain.Passage) []domain.Source {
	if len(passages) == 0 {
		return nil
	}

	courses := make(map[string]*domain.Course)
	seen := make(map[string]bool)
	out := make([]domain.Source, 0, len(passages))

	for _, p := range passages {
		key := p.Label()
		if seen[key] {
			continue
		}
		seen[key] = true

		src := domain.Source{CourseTitle: p.CourseTitle, LessonNumber: p.LessonNumber}
		if course := s.course(ctx, courses, p.CourseTitle); course != nil {
			src.Link = course.LinkFor(p.LessonNumber)
		}
		out = append(out, src)
	}
	return out
}

func (s *SearchService) course(ctx context.Context, cache map[string]*domain.Course, title string) *domain.Course {
	if s.courseStore == nil {
		return nil
	}
	if c, ok := cache[title]; ok {
		return c
	}
	c, err := s.courseStore.Get(ctx, title)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("course lookup for %q failed: %v", title, err)
	}
	cache[title] = c
	return c
}

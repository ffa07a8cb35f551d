package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/adapters/driven/embedding/local"
	sessionmem "github.com/custodia-labs/lectern/internal/adapters/driven/session/memory"
	"github.com/custodia-labs/lectern/internal/adapters/driven/storage/memory"
	vectormem "github.com/custodia-labs/lectern/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/normalisers"
	"github.com/custodia-labs/lectern/internal/normalisers/transcript"
	"github.com/custodia-labs/lectern/internal/postprocessors"
)

const introToTesting = `Course Title: Intro to Testing
Course Link: https://example.com/testing
Course Instructor: Ada Lovelace

Lesson 0: Welcome
Lesson Link: https://example.com/testing/0
Welcome to the course. In this course we write automated checks for our code.
You will learn why checks matter and how a test runner discovers them.

Lesson 1: Unit tests
Lesson Link: https://example.com/testing/1
A unit test exercises one function in isolation. Assertions compare the
actual result with the expected value. Table driven unit tests list inputs
and expected outputs side by side. Keep each unit test fast and independent.
`

const advancedGo = `Course Title: Advanced Go Concurrency
Course Link: https://example.com/go
Course Instructor: Rob Pike

Lesson 1: Goroutines
Goroutines are lightweight threads managed by the runtime. Channels connect
goroutines and let them communicate by sharing memory through messages.

Lesson 2: Select
The select statement waits on several channel operations at once.
`

// countingStore records queries per collection.
type countingStore struct {
	driven.VectorStore

	mu       sync.Mutex
	queries  map[string]int
	queryErr error
}

func newCountingStore(inner driven.VectorStore) *countingStore {
	return &countingStore{VectorStore: inner, queries: make(map[string]int)}
}

func (s *countingStore) Query(ctx context.Context, collection string, vec []float32, k int, f driven.Filter) ([]driven.VectorHit, error) {
	s.mu.Lock()
	s.queries[collection]++
	err := s.queryErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.VectorStore.Query(ctx, collection, vec, k, f)
}

func (s *countingStore) count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[collection]
}

// testEnv wires the services over in-memory adapters and the local embedder.
type testEnv struct {
	store    *countingStore
	courses  *memory.CourseStore
	sessions *sessionmem.Store
	index    *SemanticIndex
	ingest   *IngestService
	search   *SearchService
	course   *CourseService
	session  *SessionService
	tools    *ToolExecutor
}

type envConfig struct {
	chunking      domain.ChunkingSettings
	minSimilarity float64
	maxHistory    int
}

func newTestEnv(t *testing.T, mods ...func(*envConfig)) *testEnv {
	t.Helper()

	cfg := envConfig{
		chunking:   domain.ChunkingSettings{Size: 120, Overlap: 20, ContextPrefix: true},
		maxHistory: DefaultMaxHistory,
	}
	for _, m := range mods {
		m(&cfg)
	}

	reg := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(reg)
	pipeline, err := reg.BuildPipeline(domain.PipelineConfigFor(cfg.chunking))
	require.NoError(t, err)

	env := &testEnv{
		store:    newCountingStore(vectormem.NewStore()),
		courses:  memory.NewCourseStore(),
		sessions: sessionmem.NewStore(),
	}
	env.index = NewSemanticIndex(env.store, local.NewEmbeddingService(local.Config{}),
		WithMinCourseSimilarity(cfg.minSimilarity))
	env.ingest = NewIngestService(normalisers.NewRegistry(transcript.New()), pipeline, env.index, env.courses,
		WithMIMETypes(normalisers.MIMETypeForExt))
	env.search = NewSearchService(env.index, env.courses, 0)
	env.course = NewCourseService(env.courses, env.index)
	env.session = NewSessionService(env.sessions, cfg.maxHistory)
	env.tools = NewToolExecutor(env.search, env.course)
	return env
}

func (e *testEnv) load(t *testing.T, docs ...string) {
	t.Helper()
	for i, doc := range docs {
		_, err := e.ingest.Ingest(context.Background(), &domain.RawDocument{
			URI:     "doc" + string(rune('a'+i)) + ".txt",
			Content: []byte(doc),
		})
		require.NoError(t, err)
	}
}

// scriptedLLM returns queued replies in order and records every request.
type scriptedLLM struct {
	mu       sync.Mutex
	replies  []domain.Reply
	errs     []error
	requests []driven.GenerateRequest
}

func (m *scriptedLLM) Generate(_ context.Context, req driven.GenerateRequest) (domain.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.requests)
	m.requests = append(m.requests, req)
	if n < len(m.errs) && m.errs[n] != nil {
		return nil, m.errs[n]
	}
	if n >= len(m.replies) {
		return nil, errors.New("no scripted reply")
	}
	return m.replies[n], nil
}

func (m *scriptedLLM) ModelName() string            { return "scripted" }
func (m *scriptedLLM) Ping(_ context.Context) error { return nil }
func (m *scriptedLLM) Close() error                 { return nil }

// failingSessionStore rejects writes.
type failingSessionStore struct {
	driven.SessionStore
}

func (failingSessionStore) Append(context.Context, string, domain.Exchange, int) error {
	return errors.New("session backend down")
}

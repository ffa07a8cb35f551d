package domain

import (
	"errors"
	"fmt"
)

// VectorBackend selects where the semantic index is stored.
type VectorBackend string

const (
	VectorBackendMemory VectorBackend = "memory"
	VectorBackendSQLite VectorBackend = "sqlite"
	VectorBackendQdrant VectorBackend = "qdrant"
)

func (b VectorBackend) IsValid() bool {
	return b == VectorBackendMemory || b == VectorBackendSQLite || b == VectorBackendQdrant
}

// SessionBackend selects where conversation history is kept.
type SessionBackend string

const (
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendRedis  SessionBackend = "redis"
)

func (b SessionBackend) IsValid() bool {
	return b == SessionBackendMemory || b == SessionBackendRedis
}

type ChunkingSettings struct {
	Size    int // target chunk length in characters
	Overlap int // characters shared by adjacent chunks

	// ContextPrefix prepends "Course X Lesson N content: " to each chunk.
	ContextPrefix bool
}

type SearchSettings struct {
	MaxResults int

	// MinCourseSimilarity rejects catalog matches scoring below it.
	// Zero accepts the top catalog hit unconditionally.
	MinCourseSimilarity float64
}

type SessionSettings struct {
	MaxHistory int // exchanges kept per session
	Backend    SessionBackend
	RedisAddr  string
	TTLMinutes int // idle expiry for redis sessions; zero keeps them
}

type VectorSettings struct {
	Backend      VectorBackend
	QdrantURL    string
	QdrantAPIKey string // sent as the api-key header when set
}

// EmbeddingSettings configures the embedder. BaseURL and APIKey apply to
// the providers that use them; RequestsPerMinute of zero is unthrottled.
type EmbeddingSettings struct {
	Provider          AIProvider
	Model             string
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
}

// IsConfigured reports whether the provider can embed and has its key.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.CanEmbed() && (!e.Provider.RequiresAPIKey() || e.APIKey != "")
}

// LLMSettings configures the answering model. MaxTokens caps each reply;
// Temperature defaults to 0 for repeatable answers.
type LLMSettings struct {
	Provider          AIProvider
	Model             string
	BaseURL           string
	APIKey            string
	MaxTokens         int
	Temperature       float64
	RequestsPerMinute int
}

// IsConfigured reports whether the provider can chat and has its key.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.CanChat() && (!l.Provider.RequiresAPIKey() || l.APIKey != "")
}

// AppSettings is everything `lectern settings` manages.
type AppSettings struct {
	Chunking  ChunkingSettings
	Search    SearchSettings
	Session   SessionSettings
	Vector    VectorSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
}

// DefaultAppSettings works offline: a SQLite index, in-memory sessions and
// the hashing embedder. The LLM stays unset until a provider is chosen.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{Size: 800, Overlap: 100, ContextPrefix: true},
		Search:   SearchSettings{MaxResults: 5},
		Session: SessionSettings{
			MaxHistory: 2,
			Backend:    SessionBackendMemory,
			RedisAddr:  "localhost:6379",
		},
		Vector: VectorSettings{
			Backend:   VectorBackendSQLite,
			QdrantURL: "http://localhost:6333",
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderLocal,
			Model:    providers[AIProviderLocal].embeddingModel,
		},
		LLM: LLMSettings{MaxTokens: 800},
	}
}

// Validate reports every value that would otherwise fail deep inside a
// service, joined into one error.
func (s AppSettings) Validate() error {
	var errs []error
	invalid := func(msg string) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidInput, msg))
	}

	if s.Chunking.Size <= 0 {
		invalid("chunking.size must be positive")
	} else if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size {
		invalid("chunking.overlap must be in [0, chunking.size)")
	}
	if s.Search.MaxResults <= 0 {
		invalid("search.max_results must be positive")
	}
	if s.Search.MinCourseSimilarity < 0 || s.Search.MinCourseSimilarity > 1 {
		invalid("search.min_course_similarity must be in [0, 1]")
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 1 {
		invalid("llm.temperature must be in [0, 1]")
	}
	if s.Session.MaxHistory < 0 {
		invalid("session.max_history must not be negative")
	}
	if !s.Session.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("%w: session backend %q", ErrUnsupportedType, s.Session.Backend))
	}
	if !s.Vector.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("%w: vector backend %q", ErrUnsupportedType, s.Vector.Backend))
	}
	return errors.Join(errs...)
}

// PipelineConfig names the post-processors to run, in order, with their
// options.
type PipelineConfig struct {
	Processors       []string
	ProcessorConfigs map[string]map[string]any
}

func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor maps chunking settings onto the chunker and, when
// enabled, the context_prefix processor.
func PipelineConfigFor(c ChunkingSettings) PipelineConfig {
	cfg := PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {"chunk_size": c.Size, "overlap": c.Overlap},
		},
	}
	if c.ContextPrefix {
		cfg.Processors = append(cfg.Processors, "context_prefix")
	}
	return cfg
}

// Package openai embeds transcript chunks with the OpenAI embeddings API or
// any server that speaks the same /embeddings protocol.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "text-embedding-3-small"
	DefaultTimeout     = 60 * time.Second
	DefaultBatchSize   = 256
	DefaultConcurrency = 2

	fallbackDimensions = 1536
)

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions asks text-embedding-3 models for shortened vectors.
	// Zero uses the model's native width.
	Dimensions int

	// BatchSize caps inputs per request; larger batches are split.
	BatchSize int

	// Concurrency caps requests in flight for one EmbedBatch call.
	Concurrency int
}

// EmbeddingService generates embeddings over HTTP.
type EmbeddingService struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	dimensions  int
	batchSize   int
	concurrency int
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewEmbeddingService creates an embedding service. An API key is required.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	dims := cfg.Dimensions
	if dims == 0 {
		if known, ok := domain.EmbeddingDimensions()[cfg.Model]; ok {
			dims = known
		} else {
			dims = fallbackDimensions
		}
	}

	return &EmbeddingService{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		dimensions:  dims,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
	}, nil
}

// Embed generates a vector for one text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in input order, splitting them into BatchSize
// requests of which at most Concurrency run at once.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) <= s.batchSize {
		return s.embed(ctx, texts)
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		g.Go(func() error {
			vecs, err := s.embed(gctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// embed sends one /embeddings request and orders the result by input index.
func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body := embeddingRequest{Model: s.model, Input: texts}
	if strings.HasPrefix(s.model, "text-embedding-3-") {
		body.Dimensions = s.dimensions
	}

	var resp embeddingResponse
	if err := s.do(ctx, http.MethodPost, "/embeddings", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: openai: %s", domain.ErrEmbeddingUnavailable, resp.Error.Message)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: openai: expected %d embeddings, got %d",
			domain.ErrEmbeddingUnavailable, len(texts), len(resp.Data))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vecs[d.Index] != nil {
			return nil, fmt.Errorf("%w: openai: bad embedding index %d", domain.ErrEmbeddingUnavailable, d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vecs[d.Index] = vec
	}
	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the embedding model.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping checks the key by fetching the configured model's metadata.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, "/models/"+s.model, nil, nil)
}

// Close releases idle connections.
func (s *EmbeddingService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *EmbeddingService) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader = http.NoBody
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("openai: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: openai: %v", domain.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: openai: read response: %v", domain.ErrEmbeddingUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		var wrapped struct {
			Error *apiError `json:"error"`
		}
		if json.Unmarshal(raw, &wrapped) == nil && wrapped.Error != nil {
			msg = wrapped.Error.Message
		}
		return fmt.Errorf("%w: openai (status %d): %s", domain.ErrEmbeddingUnavailable, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: openai: decode response: %v", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768
	DefaultBatchSize  = 64
)

// Config configures the embedder. Zero fields take the defaults above;
// Dimensions falls back to the known width of Model.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
	BatchSize  int
}

// EmbeddingService talks to /api/embed. Inputs are truncated server side to
// the model's context length.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
	batchSize  int
}

type embedRequest struct {
	Model    string   `json:"model"`
	Input    []string `json:"input"`
	Truncate bool     `json:"truncate"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
	}
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends texts BatchSize at a time, in order. Ollama runs one
// model instance, so batches are not sent concurrently.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		vecs, err := s.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: s.model, Input: texts, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("encoding embed request: %w", err)
	}

	var resp embedResponse
	if err := s.call(ctx, http.MethodPost, "/api/embed", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: ollama: %s", domain.ErrEmbeddingUnavailable, resp.Error)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d inputs",
			domain.ErrEmbeddingUnavailable, len(resp.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(resp.Embeddings))
	for i, wide := range resp.Embeddings {
		vec := make([]float32, len(wide))
		for j, v := range wide {
			vec[j] = float32(v)
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (s *EmbeddingService) Dimensions() int { return s.dimensions }

func (s *EmbeddingService) ModelName() string { return s.model }

// Ping checks the server answers and has the model pulled. It runs no
// inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	var tags tagsResponse
	if err := s.call(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return err
	}
	for _, m := range tags.Models {
		if sameModel(m.Name, s.model) {
			return nil
		}
	}
	return fmt.Errorf("%w: ollama has no model %q; run `ollama pull %s`",
		domain.ErrEmbeddingUnavailable, s.model, s.model)
}

func (s *EmbeddingService) Close() error { return nil }

// call sends one request and decodes a 200 response into out. Transport
// failures and non-200 statuses wrap ErrEmbeddingUnavailable.
func (s *EmbeddingService) call(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building ollama request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ollama: %v", domain.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: ollama %s returned %d: %s",
			domain.ErrEmbeddingUnavailable, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding ollama %s: %v", domain.ErrEmbeddingUnavailable, path, err)
	}
	return nil
}

// sameModel matches "nomic-embed-text" against "nomic-embed-text:latest".
func sameModel(listed, want string) bool {
	if listed == want {
		return true
	}
	if strings.Contains(want, ":") {
		return false
	}
	return strings.TrimSuffix(listed, ":latest") == want
}

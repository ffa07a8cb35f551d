// Package local provides an offline embedding service based on feature
// hashing of words and character trigrams. It needs no model download and
// gives stable vectors, which suits tests and small corpora; for better
// recall configure Ollama or OpenAI.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/lectern/internal/adapters/driven/vector/similarity"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "hashing-384"
	DefaultDimensions = 384
)

const trigramWeight = 0.5

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`)

// Config holds configuration for the local embedder.
type Config struct {
	// Dimensions is the vector size (default: 384).
	Dimensions int
}

// EmbeddingService hashes tokens into a fixed-size vector.
type EmbeddingService struct {
	dimensions int
	stopwords  map[string]struct{}
}

// NewEmbeddingService creates a new local embedder.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &EmbeddingService{
		dimensions: cfg.Dimensions,
		stopwords:  defaultStopwords(),
	}
}

// Embed returns the L2-normalised hashed feature vector of text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[string]float64)
	for _, tok := range s.tokenize(text) {
		counts["w:"+tok]++
		padded := "^" + tok + "$"
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			counts["t:"+string(runes[i:i+3])] += trigramWeight
		}
	}

	vec := make([]float64, s.dimensions)
	for feature, c := range counts {
		idx, sign := s.bucket(feature)
		vec[idx] += sign * (1 + math.Log(c+1))
	}

	out := make([]float32, s.dimensions)
	for i, v := range vec {
		out[i] = float32(v)
	}
	return similarity.Normalize(out), nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the model identifier.
func (s *EmbeddingService) ModelName() string {
	return DefaultModel
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) bucket(feature string) (int, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	sign := 1.0
	if sum>>63 == 1 {
		sign = -1.0
	}
	return int(sum % uint64(s.dimensions)), sign
}

func (s *EmbeddingService) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := s.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
		"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such",
		"into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off",
		"own", "same", "too", "very", "can", "will", "just", "don", "should", "now", "what", "how", "does",
		"do", "course", "lesson", "content",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

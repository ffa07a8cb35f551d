// Package ai builds the embedding and LLM adapters named in settings,
// wraps them in rate limiters and checks they answer before use.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	localembed "github.com/custodia-labs/lectern/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/lectern/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/lectern/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/lectern/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/lectern/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/lectern/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// pingTimeout bounds every startup and validation probe.
const pingTimeout = 5 * time.Second

const fixHint = "run 'lectern settings' to fix"

type (
	embeddingBuilder func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
	llmBuilder       func(*domain.LLMSettings) (driven.LLMService, error)
)

var embeddingBuilders = map[domain.AIProvider]embeddingBuilder{
	domain.AIProviderLocal: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return localembed.NewEmbeddingService(localembed.Config{
			Dimensions: domain.EmbeddingDimensions()[s.Model],
		}), nil
	},
	domain.AIProviderOllama: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

var llmBuilders = map[domain.AIProvider]llmBuilder{
	domain.AIProviderOllama: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderAnthropic: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return anthropicllm.NewLLMService(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

// CreateEmbeddingService builds the configured embedder, throttled when
// RequestsPerMinute is positive. Unconfigured settings give (nil, nil).
func CreateEmbeddingService(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if s == nil || !s.IsConfigured() {
		return nil, nil
	}
	build, ok := embeddingBuilders[s.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: no embedding adapter for %s", domain.ErrUnsupportedType, s.Provider)
	}
	svc, err := build(s)
	if err != nil {
		return nil, err
	}
	return WithEmbeddingRateLimit(svc, s.RequestsPerMinute), nil
}

// CreateLLMService is CreateEmbeddingService for the answering model.
func CreateLLMService(s *domain.LLMSettings) (driven.LLMService, error) {
	if s == nil || !s.IsConfigured() {
		return nil, nil
	}
	build, ok := llmBuilders[s.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: no LLM adapter for %s", domain.ErrUnsupportedType, s.Provider)
	}
	svc, err := build(s)
	if err != nil {
		return nil, err
	}
	return WithLLMRateLimit(svc, s.RequestsPerMinute), nil
}

// InitResult holds the services Init could reach.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // nil disables ask and chat; search still works
	Warnings         []string
}

func (r *InitResult) Close() error {
	var errs []error
	if r.EmbeddingService != nil {
		errs = append(errs, r.EmbeddingService.Close())
	}
	if r.LLMService != nil {
		errs = append(errs, r.LLMService.Close())
	}
	return errors.Join(errs...)
}

// Init builds and pings both services. The embedder is required; an LLM
// that is missing or unreachable only adds a warning.
func Init(ctx context.Context, settings *domain.AppSettings) (*InitResult, error) {
	embedder, err := CreateEmbeddingService(&settings.Embedding)
	if err == nil && embedder == nil {
		err = fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if err == nil {
		err = ping(ctx, embedder)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w; %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}

	result := &InitResult{EmbeddingService: embedder}

	llm, err := CreateLLMService(&settings.LLM)
	switch {
	case err != nil:
	case llm == nil:
		result.Warnings = append(result.Warnings,
			"no LLM provider configured; 'ask' and 'chat' are disabled. Set llm.provider to enable them")
		return result, nil
	default:
		err = ping(ctx, llm)
	}
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Errorf("%w: %w; %s", domain.ErrLLMUnavailable, err, fixHint).Error())
		return result, nil
	}
	result.LLMService = llm
	return result, nil
}

// ping checks svc within pingTimeout and closes it when it does not answer.
func ping(ctx context.Context, svc interface {
	Ping(context.Context) error
	Close() error
}) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return fmt.Errorf("service unreachable: %w", err)
	}
	return nil
}

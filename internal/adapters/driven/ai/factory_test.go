package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

func TestInitResult_CloseWithoutServices(t *testing.T) {
	assert.NoError(t, (&InitResult{}).Close())
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantDims int // 0 means no service
	}{
		{"nil settings", nil, 0},
		{"empty settings", &domain.EmbeddingSettings{}, 0},
		{"local", &domain.EmbeddingSettings{Provider: domain.AIProviderLocal, Model: "hashing-384"}, 384},
		{"ollama", &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"}, 768},
		{"openai", &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"}, 1536},
		{"openai without key", &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}, 0},
		{"anthropic has no embeddings", &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}, 0},
		{"unknown provider", &domain.EmbeddingSettings{Provider: "unknown", APIKey: "k"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			require.NoError(t, err)
			if tt.wantDims == 0 {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			defer svc.Close()
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantNil  bool
	}{
		{"nil settings", nil, true},
		{"empty settings", &domain.LLMSettings{}, true},
		{"ollama", &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"}, false},
		{"openai", &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o-mini"}, false},
		{"anthropic", &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k", Model: "claude-sonnet-4-20250514"}, false},
		{"local cannot chat", &domain.LLMSettings{Provider: domain.AIProviderLocal}, true},
		{"unknown provider", &domain.LLMSettings{Provider: "unknown", APIKey: "k"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			defer svc.Close()
			assert.Equal(t, tt.settings.Model, svc.ModelName())
		})
	}
}

func TestCreateServices_RateLimited(t *testing.T) {
	llm, err := CreateLLMService(&domain.LLMSettings{
		Provider:          domain.AIProviderAnthropic,
		APIKey:            "k",
		RequestsPerMinute: 30,
	})
	require.NoError(t, err)
	assert.IsType(t, &RateLimitedLLM{}, llm)

	embedder, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider:          domain.AIProviderLocal,
		RequestsPerMinute: 600,
	})
	require.NoError(t, err)
	assert.IsType(t, &RateLimitedEmbedding{}, embedder)
}

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("local embedder without llm", func(t *testing.T) {
		settings := domain.DefaultAppSettings()

		result, err := Init(ctx, &settings)
		require.NoError(t, err)
		defer result.Close()

		assert.NotNil(t, result.EmbeddingService)
		assert.Nil(t, result.LLMService)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "no LLM provider configured")
	})

	t.Run("reachable llm", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		settings := domain.DefaultAppSettings()
		settings.LLM = domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k", BaseURL: srv.URL}

		result, err := Init(ctx, &settings)
		require.NoError(t, err)
		defer result.Close()

		assert.NotNil(t, result.LLMService)
		assert.Empty(t, result.Warnings)
	})

	t.Run("unreachable llm is a warning", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: "http://127.0.0.1:1"}

		result, err := Init(ctx, &settings)
		require.NoError(t, err)
		defer result.Close()

		assert.Nil(t, result.LLMService)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "unreachable")
		assert.Contains(t, result.Warnings[0], "lectern settings")
	})

	t.Run("missing embedder is fatal", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}

		_, err := Init(ctx, &settings)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.ErrorContains(t, err, "not configured")
	})

	t.Run("unreachable embedder is fatal", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: "http://127.0.0.1:1"}

		_, err := Init(ctx, &settings)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

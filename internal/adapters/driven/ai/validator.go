package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// probeText is embedded once to confirm the model produces vectors.
const probeText = "lectern configuration check"

// ConfigValidator checks provider settings against the live service before
// they are relied on. Unset providers are valid; a provider that needs an API
// key but has none is rejected without a network call.
type ConfigValidator struct {
	timeout time.Duration
}

// ValidatorOption configures a ConfigValidator.
type ValidatorOption func(*ConfigValidator)

// WithPingTimeout bounds each validation round trip.
func WithPingTimeout(d time.Duration) ValidatorOption {
	return func(v *ConfigValidator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// NewConfigValidator creates a validator with the default ping timeout.
func NewConfigValidator(opts ...ValidatorOption) *ConfigValidator {
	v := &ConfigValidator{timeout: pingTimeout}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateEmbedding pings the embedding provider and embeds a probe string.
func (v *ConfigValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	if cfg == nil || cfg.Provider == "" {
		return nil
	}
	if err := requireKey(cfg.Provider, cfg.APIKey); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	svc, err := CreateEmbeddingService(cfg)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbeddingUnavailable, cfg.Provider, err)
	}
	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("%w: probe embedding: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vec) == 0 {
		return fmt.Errorf("%w: model %s returned an empty vector", domain.ErrEmbeddingUnavailable, svc.ModelName())
	}
	return nil
}

// ValidateLLM pings the LLM provider.
func (v *ConfigValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	if cfg == nil || cfg.Provider == "" {
		return nil
	}
	if err := requireKey(cfg.Provider, cfg.APIKey); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	svc, err := CreateLLMService(cfg)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrLLMUnavailable, cfg.Provider, err)
	}
	return nil
}

func requireKey(provider domain.AIProvider, key string) error {
	if provider.RequiresAPIKey() && key == "" {
		return fmt.Errorf("%w: %s requires an API key", domain.ErrInvalidInput, provider)
	}
	return nil
}

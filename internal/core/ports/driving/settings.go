package driving

import "github.com/custodia-labs/lectern/internal/core/domain"

// SettingsService backs `lectern settings` and the wizard.
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// Set parses value for a dotted key such as "search.max_results" and
	// rejects it when the resulting settings do not validate.
	Set(key, value string) error

	// SetEmbeddingProvider and SetLLMProvider switch provider. An empty
	// model picks the provider default; an empty key falls back to the
	// provider's environment variable.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks values offline. The Validate*Config methods contact
	// the configured provider.
	Validate() error
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}

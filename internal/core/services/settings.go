package services

import (
	"fmt"
	"os"
	"strconv"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

var _ driving.SettingsService = (*SettingsService)(nil)

const defaultOllamaURL = "http://localhost:11434"

// API key fallbacks read when the config file has none.
var providerKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
}

// setting binds one config key to a field of AppSettings. load copies a
// stored value over the default; dump returns what Save writes. parse
// converts the text given to `lectern settings set`.
type setting struct {
	key    string
	load   func(driven.ConfigStore, *domain.AppSettings)
	dump   func(*domain.AppSettings) any
	parse  func(string) (any, error)
	secret bool // saved only when set and not taken from the environment
}

func intSetting(key string, field func(*domain.AppSettings) *int) setting {
	return setting{
		key: key,
		load: func(c driven.ConfigStore, s *domain.AppSettings) {
			if _, ok := c.Get(key); ok {
				*field(s) = c.GetInt(key)
			}
		},
		dump: func(s *domain.AppSettings) any { return *field(s) },
		parse: func(v string) (any, error) {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
			}
			return n, nil
		},
	}
}

func floatSetting(key string, field func(*domain.AppSettings) *float64) setting {
	return setting{
		key: key,
		load: func(c driven.ConfigStore, s *domain.AppSettings) {
			if _, ok := c.Get(key); ok {
				*field(s) = c.GetFloat(key)
			}
		},
		dump: func(s *domain.AppSettings) any { return *field(s) },
		parse: func(v string) (any, error) {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
			}
			return f, nil
		},
	}
}

func boolSetting(key string, field func(*domain.AppSettings) *bool) setting {
	return setting{
		key: key,
		load: func(c driven.ConfigStore, s *domain.AppSettings) {
			if _, ok := c.Get(key); ok {
				*field(s) = c.GetBool(key)
			}
		},
		dump: func(s *domain.AppSettings) any { return *field(s) },
		parse: func(v string) (any, error) {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
			}
			return b, nil
		},
	}
}

// textSetting treats an empty stored string as unset.
func textSetting[T ~string](key string, field func(*domain.AppSettings) *T) setting {
	return setting{
		key: key,
		load: func(c driven.ConfigStore, s *domain.AppSettings) {
			if v := c.GetString(key); v != "" {
				*field(s) = T(v)
			}
		},
		dump:  func(s *domain.AppSettings) any { return string(*field(s)) },
		parse: func(v string) (any, error) { return v, nil },
	}
}

func secretSetting(key string, field func(*domain.AppSettings) *string) setting {
	st := textSetting(key, field)
	st.secret = true
	return st
}

// providerSetting ignores stored names it does not recognise.
func providerSetting(key string, field func(*domain.AppSettings) *domain.AIProvider) setting {
	st := textSetting(key, field)
	st.load = func(c driven.ConfigStore, s *domain.AppSettings) {
		if p := domain.AIProvider(c.GetString(key)); p.IsValid() {
			*field(s) = p
		}
	}
	st.parse = func(v string) (any, error) {
		if !domain.AIProvider(v).IsValid() {
			return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrUnsupportedType, v)
		}
		return v, nil
	}
	return st
}

var settingTable = []setting{
	intSetting("chunking.size", func(s *domain.AppSettings) *int { return &s.Chunking.Size }),
	intSetting("chunking.overlap", func(s *domain.AppSettings) *int { return &s.Chunking.Overlap }),
	boolSetting("chunking.context_prefix", func(s *domain.AppSettings) *bool { return &s.Chunking.ContextPrefix }),

	intSetting("search.max_results", func(s *domain.AppSettings) *int { return &s.Search.MaxResults }),
	floatSetting("search.min_course_similarity", func(s *domain.AppSettings) *float64 { return &s.Search.MinCourseSimilarity }),

	intSetting("session.max_history", func(s *domain.AppSettings) *int { return &s.Session.MaxHistory }),
	textSetting("session.backend", func(s *domain.AppSettings) *domain.SessionBackend { return &s.Session.Backend }),
	textSetting("session.redis_addr", func(s *domain.AppSettings) *string { return &s.Session.RedisAddr }),
	intSetting("session.ttl_minutes", func(s *domain.AppSettings) *int { return &s.Session.TTLMinutes }),

	textSetting("vector.backend", func(s *domain.AppSettings) *domain.VectorBackend { return &s.Vector.Backend }),
	textSetting("vector.qdrant_url", func(s *domain.AppSettings) *string { return &s.Vector.QdrantURL }),
	secretSetting("vector.qdrant_api_key", func(s *domain.AppSettings) *string { return &s.Vector.QdrantAPIKey }),

	providerSetting("embedding.provider", func(s *domain.AppSettings) *domain.AIProvider { return &s.Embedding.Provider }),
	textSetting("embedding.model", func(s *domain.AppSettings) *string { return &s.Embedding.Model }),
	textSetting("embedding.base_url", func(s *domain.AppSettings) *string { return &s.Embedding.BaseURL }),
	secretSetting("embedding.api_key", func(s *domain.AppSettings) *string { return &s.Embedding.APIKey }),
	intSetting("embedding.requests_per_minute", func(s *domain.AppSettings) *int { return &s.Embedding.RequestsPerMinute }),

	providerSetting("llm.provider", func(s *domain.AppSettings) *domain.AIProvider { return &s.LLM.Provider }),
	textSetting("llm.model", func(s *domain.AppSettings) *string { return &s.LLM.Model }),
	textSetting("llm.base_url", func(s *domain.AppSettings) *string { return &s.LLM.BaseURL }),
	secretSetting("llm.api_key", func(s *domain.AppSettings) *string { return &s.LLM.APIKey }),
	intSetting("llm.max_tokens", func(s *domain.AppSettings) *int { return &s.LLM.MaxTokens }),
	floatSetting("llm.temperature", func(s *domain.AppSettings) *float64 { return &s.LLM.Temperature }),
	intSetting("llm.requests_per_minute", func(s *domain.AppSettings) *int { return &s.LLM.RequestsPerMinute }),
}

func lookupSetting(key string) (setting, bool) {
	for _, st := range settingTable {
		if st.key == key {
			return st, true
		}
	}
	return setting{}, false
}

// SettingKeys lists every key Set accepts, grouped by section.
func SettingKeys() []string {
	keys := make([]string, len(settingTable))
	for i, st := range settingTable {
		keys[i] = st.key
	}
	return keys
}

// SettingsService reads and writes AppSettings through a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService returns a service backed by configStore. aiValidator
// may be nil, in which case provider checks always pass.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{configStore: configStore, aiValidator: aiValidator, getenv: os.Getenv}
}

// SetEnvLookup replaces os.Getenv for API key fallbacks.
func (s *SettingsService) SetEnvLookup(getenv func(string) string) {
	s.getenv = getenv
}

// Get overlays stored values on the defaults. Missing API keys come from
// the provider's environment variable and a missing LLM model from the
// provider's default.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	out := domain.DefaultAppSettings()
	for _, st := range settingTable {
		st.load(s.configStore, &out)
	}

	if out.Embedding.APIKey == "" {
		out.Embedding.APIKey = s.envAPIKey(out.Embedding.Provider)
	}
	if out.LLM.APIKey == "" {
		out.LLM.APIKey = s.envAPIKey(out.LLM.Provider)
	}
	if out.LLM.Model == "" {
		out.LLM.Model = domain.DefaultLLMModels()[out.LLM.Provider]
	}
	return &out, nil
}

// Save writes every setting. Empty secrets and API keys that only came
// from the environment are left out of the file.
func (s *SettingsService) Save(in *domain.AppSettings) error {
	envKeys := map[string]string{
		"embedding.api_key": s.envAPIKey(in.Embedding.Provider),
		"llm.api_key":       s.envAPIKey(in.LLM.Provider),
	}
	for _, st := range settingTable {
		value := st.dump(in)
		if st.secret {
			if v := value.(string); v == "" || v == envKeys[st.key] {
				continue
			}
		}
		if err := s.configStore.Set(st.key, value); err != nil {
			return fmt.Errorf("save %s: %w", st.key, err)
		}
	}
	return nil
}

// Set parses value for key and stores it. A value that leaves the
// settings invalid is rolled back and the validation error returned.
func (s *SettingsService) Set(key, value string) error {
	st, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	typed, err := st.parse(value)
	if err != nil {
		return err
	}

	previous, existed := s.configStore.Get(key)
	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := s.Validate(); err != nil {
		if existed {
			_ = s.configStore.Set(key, previous)
		} else {
			_ = s.configStore.Delete(key)
		}
		return err
	}
	return nil
}

func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.CanEmbed() {
		return fmt.Errorf("%w: %s cannot produce embeddings", domain.ErrUnsupportedType, provider)
	}
	apiKey, err := s.requireKey(provider, apiKey)
	if err != nil {
		return err
	}

	current, err := s.Get()
	if err != nil {
		return err
	}
	e := &current.Embedding
	e.Provider = provider
	e.Model = orDefault(model, domain.DefaultEmbeddingModels()[provider])
	e.BaseURL = baseURLFor(provider, e.BaseURL)
	e.APIKey = apiKey
	return s.Save(current)
}

func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.CanChat() {
		return fmt.Errorf("%w: %s cannot answer questions", domain.ErrUnsupportedType, provider)
	}
	apiKey, err := s.requireKey(provider, apiKey)
	if err != nil {
		return err
	}

	current, err := s.Get()
	if err != nil {
		return err
	}
	l := &current.LLM
	l.Provider = provider
	l.Model = orDefault(model, domain.DefaultLLMModels()[provider])
	l.BaseURL = baseURLFor(provider, l.BaseURL)
	l.APIKey = apiKey
	return s.Save(current)
}

// Validate checks the stored settings and that an embedder is usable.
func (s *SettingsService) Validate() error {
	current, err := s.Get()
	if err != nil {
		return err
	}
	if err := current.Validate(); err != nil {
		return err
	}
	if !current.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured", domain.ErrInvalidInput, current.Embedding.Provider)
	}
	return nil
}

func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig pings the configured embedder.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	current, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&current.Embedding)
}

// ValidateLLMConfig pings the configured LLM.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	current, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&current.LLM)
}

// requireKey falls back to the environment and fails when the provider
// needs a key and none is found.
func (s *SettingsService) requireKey(provider domain.AIProvider, apiKey string) (string, error) {
	if apiKey == "" {
		apiKey = s.envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return "", fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}
	return apiKey, nil
}

func (s *SettingsService) envAPIKey(provider domain.AIProvider) string {
	name, ok := providerKeyEnv[provider]
	if !ok || s.getenv == nil {
		return ""
	}
	return s.getenv(name)
}

// baseURLFor keeps a custom Ollama URL and clears it for everything else.
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	return orDefault(current, defaultOllamaURL)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

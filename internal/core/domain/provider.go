package domain

// AIProvider identifies the service behind embeddings or the LLM.
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderLocal     AIProvider = "local" // built-in hashing embedder, no chat
)

type providerInfo struct {
	description    string
	local          bool
	needsKey       bool
	embeddingModel string // empty when the provider cannot embed
	llmModel       string // empty when the provider cannot chat
}

var providers = map[AIProvider]providerInfo{
	AIProviderOllama: {
		description:    "Ollama (local)",
		local:          true,
		embeddingModel: "nomic-embed-text",
		llmModel:       "llama3.2",
	},
	AIProviderOpenAI: {
		description:    "OpenAI (cloud)",
		needsKey:       true,
		embeddingModel: "text-embedding-3-small",
		llmModel:       "gpt-4o-mini",
	},
	AIProviderAnthropic: {
		description: "Anthropic (cloud)",
		needsKey:    true,
		llmModel:    "claude-sonnet-4-20250514",
	},
	AIProviderLocal: {
		description:    "Built-in hashing embedder (offline)",
		local:          true,
		embeddingModel: "hashing-384",
	},
}

func (p AIProvider) IsValid() bool {
	_, ok := providers[p]
	return ok
}

func (p AIProvider) RequiresAPIKey() bool { return providers[p].needsKey }
func (p AIProvider) IsLocal() bool        { return providers[p].local }
func (p AIProvider) CanEmbed() bool       { return providers[p].embeddingModel != "" }
func (p AIProvider) CanChat() bool        { return providers[p].llmModel != "" }
func (p AIProvider) String() string       { return string(p) }

// Description is the label shown in settings and the wizard.
func (p AIProvider) Description() string {
	if info, ok := providers[p]; ok {
		return info.description
	}
	return "Unknown"
}

// AllEmbeddingProviders lists embedders in wizard order, offline first.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderLocal, AIProviderOllama, AIProviderOpenAI}
}

// AllLLMProviders lists chat providers in wizard order.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderAnthropic, AIProviderOpenAI, AIProviderOllama}
}

func DefaultEmbeddingModels() map[AIProvider]string {
	return defaultModels(func(i providerInfo) string { return i.embeddingModel })
}

func DefaultLLMModels() map[AIProvider]string {
	return defaultModels(func(i providerInfo) string { return i.llmModel })
}

func defaultModels(pick func(providerInfo) string) map[AIProvider]string {
	out := make(map[AIProvider]string)
	for p, info := range providers {
		if m := pick(info); m != "" {
			out[p] = m
		}
	}
	return out
}

// EmbeddingDimensions maps known embedding models to their vector size.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashing-384": 384,

		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,

		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

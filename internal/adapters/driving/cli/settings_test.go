package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := map[string]string{
		"":                                   "****",
		"abc123":                             "****",
		"12345678":                           "****",
		"123456789":                          "1234...6789",
		"sk-1234567890abcdef":                "sk-1...cdef",
		"sk-proj-1234567890abcdefghijklmnop": "sk-p...mnop",
	}
	for key, want := range tests {
		assert.Equal(t, want, maskAPIKey(key), key)
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 2},
		{"   ", 2},
		{"1", 1},
		{" 3 ", 3},
		{"5", 5},
		{"0", 2},
		{"6", 2},
		{"-1", 2},
		{"two", 2},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseChoice(tt.input, 5, 2))
		})
	}
}

func TestSettingsCmd_ShowIsDefault(t *testing.T) {
	setupTestServices(t)

	bare, err := executeCommand(t, "", "settings")
	require.NoError(t, err)
	show, err := executeCommand(t, "", "settings", "show")
	require.NoError(t, err)

	assert.Equal(t, show, bare)
	assert.Contains(t, show, "[Chunking]\n  Size: 800\n  Overlap: 100")
	assert.Contains(t, show, "Min course similarity: off")
	assert.Contains(t, show, "[Vector Index]\n  Backend: sqlite\n")
	assert.Contains(t, show, "Provider: Built-in hashing embedder (offline)")
	assert.Contains(t, show, "Configuration is valid.")
	assert.NotContains(t, show, "Qdrant URL")
	assert.NotContains(t, show, "Redis address")
}

func TestSettingsCmd_ShowRemoteBackends(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.settings.Vector.Backend = domain.VectorBackendQdrant
	ts.settings.settings.Vector.QdrantAPIKey = "qdrant-secret-key"
	ts.settings.settings.Session.Backend = domain.SessionBackendRedis
	ts.settings.settings.Search.MinCourseSimilarity = 0.3

	out, err := executeCommand(t, "", "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Qdrant URL: http://localhost:6333")
	assert.Contains(t, out, "Qdrant API Key: qdra...-key")
	assert.NotContains(t, out, "qdrant-secret-key")
	assert.Contains(t, out, "Redis address:")
	assert.Contains(t, out, "Min course similarity: 0.30")
}

func TestSettingsCmd_ShowMissingKey(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.settings.LLM.Provider = domain.AIProviderAnthropic
	ts.settings.settings.LLM.APIKey = ""

	out, err := executeCommand(t, "", "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "API Key: (not set)")
	assert.Contains(t, out, "Status: not configured")
}

func TestSettingsCmd_ShowInvalid(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.settings.Chunking.Overlap = 900

	out, err := executeCommand(t, "", "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning:")
	assert.Contains(t, out, "lectern settings wizard")
	assert.NotContains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_Set(t *testing.T) {
	ts := setupTestServices(t)

	out, err := executeCommand(t, "", "settings", "set", "search.max_results", "7")
	require.NoError(t, err)
	assert.Equal(t, "7", ts.settings.set["search.max_results"])
	assert.Contains(t, out, "Set search.max_results = 7")

	_, err = executeCommand(t, "", "settings", "set", "search.max_results")
	assert.Error(t, err)
}

func TestSettingsCmd_SetError(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.setErr = errors.New("unknown key")

	_, err := executeCommand(t, "", "settings", "set", "nope", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set nope: unknown key")
}

func TestSettingsCmd_Wizard(t *testing.T) {
	ts := setupTestServices(t)
	withLineMode(t)

	// Embedding: built-in, default model. LLM: Ollama, custom model.
	// Index: Qdrant at a custom URL.
	out, err := executeCommand(t, "1\n\n3\nllama3.1\n3\nhttp://qdrant:6333\n", "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderLocal, ts.settings.settings.Embedding.Provider)
	assert.Equal(t, "hashing-384", ts.settings.settings.Embedding.Model)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.settings.LLM.Provider)
	assert.Equal(t, "llama3.1", ts.settings.settings.LLM.Model)
	assert.Equal(t, "qdrant", ts.settings.set["vector.backend"])
	assert.Equal(t, "http://qdrant:6333", ts.settings.set["vector.qdrant_url"])
	assert.Contains(t, out, "Step 3: Select Index Storage")
	assert.Contains(t, out, "Configuration Complete!")
	assert.Contains(t, out, "run 'lectern ingest' again")
}

func TestSettingsCmd_WizardDefaults(t *testing.T) {
	ts := setupTestServices(t)
	withLineMode(t)

	// Blank answers everywhere except the LLM, which needs no key on Ollama.
	out, err := executeCommand(t, "\n\n3\n\n\n", "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, domain.AllEmbeddingProviders()[0], ts.settings.settings.Embedding.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderOllama], ts.settings.settings.LLM.Model)
	assert.Equal(t, "sqlite", ts.settings.set["vector.backend"])
	assert.NotContains(t, ts.settings.set, "vector.qdrant_url")
	assert.Contains(t, out, "Index storage set to: sqlite")
}

func TestSettingsCmd_LLMRequiresAPIKey(t *testing.T) {
	setupTestServices(t)
	withLineMode(t)

	// Anthropic, default model, empty key.
	_, err := executeCommand(t, "1\n\n\n", "settings", "llm")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestSettingsCmd_EmbeddingWithAPIKey(t *testing.T) {
	ts := setupTestServices(t)
	withLineMode(t)

	out, err := executeCommand(t, "3\n\nsk-test-key\n", "settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, ts.settings.settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", ts.settings.settings.Embedding.Model)
	assert.Equal(t, "sk-test-key", ts.settings.settings.Embedding.APIKey)
	assert.Contains(t, out, "Validating configuration... OK")
}

func TestSettingsCmd_ValidationFailure(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.llmErr = errors.New("connection refused")
	withLineMode(t)

	out, err := executeCommand(t, "3\n\n", "settings", "llm")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM configuration validation failed")
	assert.Contains(t, out, "FAILED: connection refused")
}

func TestSettingsCmd_Reset(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.settings.settings.Search.MaxResults = 9

		out, err := executeCommand(t, "n\n", "settings", "reset")

		require.NoError(t, err)
		assert.Contains(t, out, "Nothing changed.")
		assert.Zero(t, ts.settings.saves)
		assert.Equal(t, 9, ts.settings.settings.Search.MaxResults)
	})

	t.Run("confirmed", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.settings.settings.Search.MaxResults = 9

		out, err := executeCommand(t, "yes\n", "settings", "reset")

		require.NoError(t, err)
		assert.Contains(t, out, "restored to defaults")
		assert.Equal(t, 1, ts.settings.saves)
		assert.Equal(t, domain.DefaultAppSettings().Search.MaxResults, ts.settings.settings.Search.MaxResults)
	})

	t.Run("yes flag skips the prompt", func(t *testing.T) {
		ts := setupTestServices(t)

		out, err := executeCommand(t, "", "settings", "reset", "--yes")

		require.NoError(t, err)
		assert.NotContains(t, out, "[y/N]")
		assert.Equal(t, 1, ts.settings.saves)
	})
}

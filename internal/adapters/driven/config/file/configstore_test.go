package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, dir string) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store
}

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte(body), 0600))
}

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lectern", "home")

	store := openStore(t, dir)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())

	// Nothing is written until something is set.
	_, err = os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestNewConfigStore_Errors(t *testing.T) {
	t.Run("directory cannot be created", func(t *testing.T) {
		store, err := NewConfigStore("/dev/null/lectern")
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("unparsable file", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "[search\nmax_results = ")

		store, err := NewConfigStore(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing")
		assert.Nil(t, store)
	})
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
# tuned for the workshop box
[chunking]
size = 500
overlap = 50

[search]
min_course_similarity = 1
extensions = [".txt", ".html"]

[vector]
backend = "qdrant"
qdrant_url = "http://qdrant:6333"
`)

	store := openStore(t, dir)

	assert.Equal(t, 500, store.GetInt("chunking.size"))
	assert.Equal(t, 50, store.GetInt("chunking.overlap"))
	assert.Equal(t, 1.0, store.GetFloat("search.min_course_similarity"))
	assert.Equal(t, []string{".txt", ".html"}, store.GetStringSlice("search.extensions"))
	assert.Equal(t, "qdrant", store.GetString("vector.backend"))
	assert.Equal(t, "http://qdrant:6333", store.GetString("vector.qdrant_url"))

	_, ok := store.Get("chunking")
	assert.False(t, ok, "tables are not values")
}

func TestConfigStore_CommentOnlyFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "# nothing configured yet\n")

	store := openStore(t, dir)
	assert.Empty(t, store.Snapshot())
}

func TestConfigStore_WritesTablesAndReloads(t *testing.T) {
	dir := t.TempDir()
	store := openStore(t, dir)

	require.NoError(t, store.Set("search.max_results", 7))
	require.NoError(t, store.Set("search.min_course_similarity", 0.4))
	require.NoError(t, store.Set("session.backend", "redis"))
	require.NoError(t, store.Set("version", "1"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "# lectern settings"))
	assert.Contains(t, text, "[search]")
	assert.Contains(t, text, "[session]")
	assert.NotContains(t, text, "search.max_results")

	again := openStore(t, dir)
	assert.Equal(t, 7, again.GetInt("search.max_results"))
	assert.InDelta(t, 0.4, again.GetFloat("search.min_course_similarity"), 1e-9)
	assert.Equal(t, "redis", again.GetString("session.backend"))
	assert.Equal(t, "1", again.GetString("version"))
}

func TestConfigStore_FileIsPrivate(t *testing.T) {
	store := openStore(t, t.TempDir())

	require.NoError(t, store.Set("llm.api_key", "sk-test"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}

func TestConfigStore_DeletePersists(t *testing.T) {
	dir := t.TempDir()
	store := openStore(t, dir)

	require.NoError(t, store.Set("session.max_history", 4))
	require.NoError(t, store.Delete("session.max_history"))
	require.NoError(t, store.Delete("never.set"))

	_, ok := store.Get("session.max_history")
	assert.False(t, ok)
	_, ok = openStore(t, dir).Get("session.max_history")
	assert.False(t, ok)
}

func TestConfigStore_IntsReadAsFloats(t *testing.T) {
	store := openStore(t, t.TempDir())

	require.NoError(t, store.Set("chunking.size", 800))
	assert.Equal(t, 800.0, store.GetFloat("chunking.size"))
	assert.Equal(t, "", store.GetString("chunking.size"))
}

func TestConfigStore_FailedWriteRollsBack(t *testing.T) {
	store := openStore(t, t.TempDir())
	require.NoError(t, store.Set("llm.provider", "anthropic"))

	// A directory where the file should be makes the rename fail.
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("llm.provider", "openai"))
	assert.Equal(t, "anthropic", store.GetString("llm.provider"))

	assert.Error(t, store.Set("llm.model", "gpt-4o"))
	_, ok := store.Get("llm.model")
	assert.False(t, ok)

	assert.Error(t, store.Delete("llm.provider"))
	assert.Equal(t, "anthropic", store.GetString("llm.provider"))
}

func TestConfigStore_UnencodableValue(t *testing.T) {
	store := openStore(t, t.TempDir())

	err := store.Set("broken", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding settings")

	_, ok := store.Get("broken")
	assert.False(t, ok)
}

func TestConfigStore_LoadPicksUpExternalEdits(t *testing.T) {
	dir := t.TempDir()
	store := openStore(t, dir)
	require.NoError(t, store.Set("search.max_results", 3))

	writeConfig(t, dir, "[search]\nmax_results = 9\n")
	require.NoError(t, store.Load())
	assert.Equal(t, 9, store.GetInt("search.max_results"))

	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, store.Load())
	assert.Empty(t, store.Snapshot())
}

func TestConfigStore_ConcurrentSets(t *testing.T) {
	dir := t.TempDir()
	store := openStore(t, dir)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("prompts.p%d", n)
			assert.NoError(t, store.Set(key, n))
			_ = store.GetInt(key)
		}(i)
	}
	wg.Wait()

	again := openStore(t, dir)
	for i := 0; i < 10; i++ {
		assert.Equal(t, i, again.GetInt(fmt.Sprintf("prompts.p%d", i)))
	}
}

func TestNestMap(t *testing.T) {
	tests := []struct {
		name string
		flat map[string]any
		want map[string]any
	}{
		{
			name: "tables",
			flat: map[string]any{"a.b": 1, "a.c.d": "x", "e": true},
			want: map[string]any{
				"a": map[string]any{"b": 1, "c": map[string]any{"d": "x"}},
				"e": true,
			},
		},
		{
			name: "value shadows table",
			flat: map[string]any{"a": 1, "a.b": 2},
			want: map[string]any{"a": 1, "a.b": 2},
		},
		{
			name: "empty",
			flat: map[string]any{},
			want: map[string]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nestMap(tt.flat))
		})
	}

	roundTrip := map[string]any{"a.b": 1, "a.c.d": "x", "e": true}
	assert.Equal(t, roundTrip, flattenMap(nestMap(roundTrip), ""))
}

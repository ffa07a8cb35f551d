package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

const sampleTranscript = `Course Title: Intro to Testing
Course Link: https://example.com/testing
Course Instructor: Ada

Lesson 0: Welcome
Lesson Link: https://example.com/testing/0
This course covers unit tests, mocks and fixtures.

Lesson 1: Mocks
A mock replaces a collaborator so a unit can be tested in isolation.
`

func memorySettings() *domain.AppSettings {
	s := domain.DefaultAppSettings()
	s.Vector.Backend = domain.VectorBackendMemory
	return &s
}

func TestWire_MemoryBackends(t *testing.T) {
	var warnings bytes.Buffer
	app, err := wire(context.Background(), memorySettings(), t.TempDir(), &warnings)
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.services.Search)
	assert.NotNil(t, app.services.Courses)
	assert.NotNil(t, app.services.Ingest)
	assert.NotNil(t, app.services.Sessions)
	// No LLM is configured by default.
	assert.Nil(t, app.services.Answer)
	assert.Contains(t, warnings.String(), "no LLM provider configured")
}

func TestWire_IngestThenSearch(t *testing.T) {
	app, err := wire(context.Background(), memorySettings(), t.TempDir(), &bytes.Buffer{})
	require.NoError(t, err)
	defer app.Close()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "testing.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleTranscript), 0o600))

	report, err := app.services.Ingest.IngestFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, driving.IngestAdded, report.Outcome)
	assert.Equal(t, "Intro to Testing", report.CourseTitle)

	result, err := app.services.Search.Search(ctx, domain.SearchQuery{Query: "what does a mock replace"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Passages)
	assert.Equal(t, "Intro to Testing", result.Passages[0].CourseTitle)

	course, err := app.services.Courses.Outline(ctx, "testing")
	require.NoError(t, err)
	assert.Len(t, course.Lessons, 2)
}

func TestWire_SQLiteBackend(t *testing.T) {
	settings := memorySettings()
	settings.Vector.Backend = domain.VectorBackendSQLite
	home := t.TempDir()

	app, err := wire(context.Background(), settings, home, &bytes.Buffer{})
	require.NoError(t, err)
	app.Close()

	assert.FileExists(t, filepath.Join(home, "data", "lectern.db"))
}

func TestWire_NoEmbedder(t *testing.T) {
	settings := memorySettings()
	settings.Embedding.Provider = ""

	var warnings bytes.Buffer
	app, err := wire(context.Background(), settings, t.TempDir(), &warnings)
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.services.Sessions)
	assert.Nil(t, app.services.Search)
	assert.Nil(t, app.services.Ingest)
	assert.Contains(t, warnings.String(), "Warning:")
}

func TestWire_UnknownBackends(t *testing.T) {
	t.Run("vector", func(t *testing.T) {
		settings := memorySettings()
		settings.Vector.Backend = "faiss"

		_, err := wire(context.Background(), settings, t.TempDir(), &bytes.Buffer{})
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("session", func(t *testing.T) {
		settings := memorySettings()
		settings.Session.Backend = "memcached"

		_, err := wire(context.Background(), settings, t.TempDir(), &bytes.Buffer{})
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})
}

func TestLecternHome(t *testing.T) {
	t.Setenv(homeEnv, "/tmp/lectern-home")

	dir, err := lecternHome()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lectern-home", dir)
}

func TestOpenConfig(t *testing.T) {
	t.Run("file store", func(t *testing.T) {
		home := t.TempDir()
		var warn bytes.Buffer

		store, err := openConfig(home, &warn)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "config.toml"), store.Path())
		assert.Empty(t, warn.String())
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		home := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte("[[[ nope"), 0600))

		_, err := openConfig(home, &bytes.Buffer{})
		assert.Error(t, err)
	})

	t.Run("unwritable home falls back to memory", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		parent := t.TempDir()
		require.NoError(t, os.Chmod(parent, 0500))
		t.Cleanup(func() { _ = os.Chmod(parent, 0700) })

		var warn bytes.Buffer
		store, err := openConfig(filepath.Join(parent, "home"), &warn)
		require.NoError(t, err)
		assert.Equal(t, ":memory:", store.Path())
		assert.Contains(t, warn.String(), "settings will not be saved")
	})
}

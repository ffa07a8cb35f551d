// Command lectern indexes course transcripts and answers questions about them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/lectern/internal/adapters/driven/ai"
	"github.com/custodia-labs/lectern/internal/adapters/driven/config/file"
	sessionmem "github.com/custodia-labs/lectern/internal/adapters/driven/session/memory"
	sessionredis "github.com/custodia-labs/lectern/internal/adapters/driven/session/redis"
	"github.com/custodia-labs/lectern/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lectern/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/custodia-labs/lectern/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/lectern/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/lectern/internal/adapters/driving/cli"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/services"
	"github.com/custodia-labs/lectern/internal/logger"
	"github.com/custodia-labs/lectern/internal/normalisers"
	"github.com/custodia-labs/lectern/internal/normalisers/html"
	"github.com/custodia-labs/lectern/internal/normalisers/transcript"
	"github.com/custodia-labs/lectern/internal/postprocessors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// homeEnv overrides the directory holding config, prompts and data.
const homeEnv = "LECTERN_HOME"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is normal.
	_ = godotenv.Load()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	home, err := lecternHome()
	if err != nil {
		return err
	}

	configStore, err := openConfig(home, os.Stderr)
	if err != nil {
		return err
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	app, err := wire(ctx, settings, home, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	svc := app.services
	svc.Settings = settingsService
	cli.SetServices(svc)
	cli.SetVersion(version)

	return cli.Execute(ctx)
}

// openConfig opens config.toml under home. An unwritable home falls back to
// in-memory settings so read-only installs can still query.
func openConfig(home string, warn io.Writer) (driven.ConfigStore, error) {
	store, err := file.NewConfigStore(home)
	switch {
	case err == nil:
		return store, nil
	case errors.Is(err, fs.ErrPermission):
		fmt.Fprintf(warn, "Warning: %v; settings will not be saved\n", err)
		return memory.NewConfigStore(), nil
	default:
		return nil, fmt.Errorf("opening config: %w", err)
	}
}

// lecternHome returns $LECTERN_HOME, or ~/.lectern.
func lecternHome() (string, error) {
	if dir := os.Getenv(homeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".lectern"), nil
}

// application holds the wired services and the resources to release.
type application struct {
	services cli.Services
	closers  []func() error
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("closing: %v", err)
		}
	}
}

func (a *application) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// wire builds the services described by settings. When no embedder can be
// created only the session service is wired, so 'lectern settings' still works.
func wire(ctx context.Context, settings *domain.AppSettings, home string, warnings io.Writer) (*application, error) {
	app := &application{}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	sessionStore, err := newSessionStore(ctx, settings.Session)
	if err != nil {
		return nil, err
	}
	app.onClose(sessionStore.Close)
	sessions := services.NewSessionService(sessionStore, settings.Session.MaxHistory)
	app.services.Sessions = sessions

	aiServices, err := ai.Init(ctx, settings)
	if err != nil {
		fmt.Fprintf(warnings, "Warning: %v\n", err)
		ok = true
		return app, nil
	}
	app.onClose(aiServices.Close)
	for _, w := range aiServices.Warnings {
		fmt.Fprintf(warnings, "Warning: %s\n", w)
	}

	vectorStore, courseStore, err := newStores(settings.Vector, filepath.Join(home, "data"), app)
	if err != nil {
		return nil, err
	}

	index := services.NewSemanticIndex(vectorStore, aiServices.EmbeddingService,
		services.WithMinCourseSimilarity(settings.Search.MinCourseSimilarity))
	search := services.NewSearchService(index, courseStore, settings.Search.MaxResults)
	courses := services.NewCourseService(courseStore, index)

	processors := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processors)
	pipeline, err := processors.BuildPipeline(domain.PipelineConfigFor(settings.Chunking))
	if err != nil {
		return nil, fmt.Errorf("building chunking pipeline: %w", err)
	}
	ingest := services.NewIngestService(
		normalisers.NewRegistry(transcript.New(), html.New()),
		pipeline,
		index,
		courseStore,
		services.WithMIMETypes(normalisers.MIMETypeForExt),
	)

	app.services.Search = search
	app.services.Courses = courses
	app.services.Ingest = ingest

	if aiServices.LLMService != nil {
		answer := services.NewAnswerService(
			aiServices.LLMService,
			services.NewToolExecutor(search, courses),
			sessions,
			services.WithMaxTokens(settings.LLM.MaxTokens),
			services.WithTemperature(settings.LLM.Temperature),
		)
		prompts, err := file.NewPromptStore(filepath.Join(home, "prompts"))
		if err != nil {
			return nil, fmt.Errorf("opening prompts: %w", err)
		}
		answer.SetPromptStore(prompts)
		app.services.Answer = answer
	}

	ok = true
	return app, nil
}

// newStores opens the vector store and the course store for the configured
// backend. The sqlite backend keeps both in one database file.
func newStores(cfg domain.VectorSettings, dataDir string, app *application) (driven.VectorStore, driven.CourseStore, error) {
	switch cfg.Backend {
	case domain.VectorBackendMemory:
		vs := vectormem.NewStore()
		app.onClose(vs.Close)
		return vs, memory.NewCourseStore(), nil

	case domain.VectorBackendSQLite, "":
		db, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening index: %w", err)
		}
		app.onClose(db.Close)
		return db.VectorStore(), db.CourseStore(), nil

	case domain.VectorBackendQdrant:
		// Course metadata stays local; only vectors live in Qdrant.
		db, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening course store: %w", err)
		}
		app.onClose(db.Close)
		vs := qdrant.NewStore(qdrant.Config{URL: cfg.QdrantURL, APIKey: cfg.QdrantAPIKey})
		app.onClose(vs.Close)
		return vs, db.CourseStore(), nil

	default:
		return nil, nil, fmt.Errorf("%w: vector backend %q", domain.ErrUnsupportedType, cfg.Backend)
	}
}

func newSessionStore(ctx context.Context, cfg domain.SessionSettings) (driven.SessionStore, error) {
	switch cfg.Backend {
	case domain.SessionBackendMemory, "":
		return sessionmem.NewStore(), nil

	case domain.SessionBackendRedis:
		store, err := sessionredis.NewStore(ctx, sessionredis.Config{
			Addr: cfg.RedisAddr,
			TTL:  time.Duration(cfg.TTLMinutes) * time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to session store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%w: session backend %q", domain.ErrUnsupportedType, cfg.Backend)
	}
}

package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

const promptExt = ".txt"

// PromptStore serves answer prompts from <dir>/<name>.txt. The directory is
// seeded with the built-in prompts on first Load; files the user has already
// edited are never overwritten. A file that is missing or breaks its template
// contract falls back to the built-in prompt.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a prompt store rooted at dir, or ~/.lectern/prompts
// when dir is empty. Nothing touches disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".lectern", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the named prompt.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	builtin, known := driven.DefaultPrompts[name]
	prompt, err := s.read(name)
	switch {
	case err == nil:
	case known:
		if !errors.Is(err, os.ErrNotExist) && s.seedErr == nil {
			logger.Warn("prompt %s: %v; using built-in", name, err)
		}
		prompt = builtin
	case s.seedErr != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, s.seedErr)
	default:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()
	return prompt, nil
}

// Reload drops cached prompts so edits on disk are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+promptExt)
}

// read loads a prompt file and checks it against its template contract.
func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if err := checkTemplate(name, prompt); err != nil {
		return "", err
	}
	return prompt, nil
}

// checkTemplate enforces the placeholder count each prompt is formatted with.
func checkTemplate(name, prompt string) error {
	if prompt == "" {
		return errors.New("prompt file is empty")
	}
	if name != driven.PromptHistory {
		return nil
	}
	if n := strings.Count(prompt, "%s"); n != 1 {
		return fmt.Errorf("history prompt needs exactly one %%s placeholder, found %d", n)
	}
	if strings.Count(prompt, "%") != strings.Count(prompt, "%s")+2*strings.Count(prompt, "%%") {
		return errors.New("history prompt has a format verb other than %s")
	}
	return nil
}

func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	for name, content := range driven.DefaultPrompts {
		if err := writeIfMissing(s.path(name), content); err != nil {
			s.seedErr = fmt.Errorf("write default prompt %q: %w", name, err)
			return
		}
	}
	if err := writeIfMissing(filepath.Join(s.dir, "README.md"), promptReadme); err != nil {
		s.seedErr = err
	}
}

func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return os.WriteFile(path, []byte(content+"\n"), 0600)
}

const promptReadme = `# Lectern prompts

These files shape how lectern answers questions.

- chat_system.txt is the system prompt for every answer. It names the two
  tools the model may call, search_course_content and get_course_outline.
- history.txt introduces earlier exchanges of a session. It must keep
  exactly one %s, which receives the formatted exchanges.

Edits apply to the next command, or to the next chat session. A file that is
deleted, emptied or left without its %s falls back to the built-in prompt.
`

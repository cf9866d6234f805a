package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/qplens/qplens/internal/core/ports/driven"
	"github.com/qplens/qplens/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// defaults holds the built-in prompts and the README copied next to them.
//
//go:embed defaults
var defaults embed.FS

const promptExt = ".txt"

// PromptStore reads prompt templates from a directory the user may edit.
// The directory is seeded with the built-in prompts on first use; a prompt
// whose file is missing or unreadable falls back to its built-in text.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore returns a store for dir (~/.qplens/prompts when empty).
// Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the named template, preferring the user's file.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })
	if s.seedErr != nil {
		logger.Debug("Prompt dir unavailable, using built-in %q: %v", name, s.seedErr)
		return builtin(name)
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		return builtin(name)
	}
	prompt = strings.TrimSpace(string(raw))

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload forgets cached prompts so edits on disk are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+promptExt)
}

// seed creates the directory and copies in every default file that is not
// there yet. Existing files are never overwritten.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt dir: %w", err)
	}

	entries, err := defaults.ReadDir("defaults")
	if err != nil {
		return err
	}
	for _, e := range entries {
		dst := filepath.Join(s.dir, e.Name())
		if _, err := os.Stat(dst); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		content, err := defaults.ReadFile("defaults/" + e.Name())
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, content, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", e.Name(), err)
		}
	}
	return nil
}

// builtin returns the embedded template for name.
func builtin(name string) (string, error) {
	raw, err := defaults.ReadFile("defaults/" + name + promptExt)
	if err != nil {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	return strings.TrimSpace(string(raw)), nil
}

package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// ErrInvalidTemplate is returned for a template file missing a required placeholder.
var ErrInvalidTemplate = errors.New("invalid prompt template")

// builtinPrompts are served when no file overrides them.
var builtinPrompts = map[string]string{
	driven.PromptRAGAnswer: driven.DefaultRAGAnswerPrompt,
}

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, bool) {
	prompt, ok := builtinPrompts[name]
	return prompt, ok
}

// cachedPrompt is a template read from disk with the file state it came from.
type cachedPrompt struct {
	text    string
	modTime time.Time
	size    int64
}

// PromptStore reads templates from <dir>/<name>.txt. On first use it seeds
// the directory with the built-in templates and a README. A file is re-read
// when its size or modification time changes, so edits apply to the next
// answer.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

// NewPromptStore returns a store for dir. An empty dir serves the built-in
// templates only. No I/O happens until the first Load.
func NewPromptStore(dir string) *PromptStore {
	return &PromptStore{dir: dir, cache: map[string]cachedPrompt{}}
}

// Dir returns the template directory, empty when only built-ins are served.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template for name. A missing file falls back to the
// built-in template; a file without the required placeholders is an error.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := builtinPrompts[name]
	if !known {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	if s.dir == "" {
		return builtin, nil
	}

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		return builtin, nil
	}

	path := filepath.Join(s.dir, name+".txt")
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return builtin, nil
	}
	if err != nil {
		return "", fmt.Errorf("prompt %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("prompt %q: %w", name, err)
	}
	text := strings.TrimSpace(string(data))
	if err := validate(name, text); err != nil {
		return "", err
	}

	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime(), size: info.Size()}
	return text, nil
}

func validate(name, text string) error {
	var missing []string
	for _, p := range driven.RequiredPlaceholders[name] {
		if !strings.Contains(text, p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s.txt lacks %s", ErrInvalidTemplate, name, strings.Join(missing, ", "))
	}
	return nil
}

// seed creates the directory and writes any built-in template without a file.
// Existing files are never overwritten.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	files := map[string]string{"README.md": promptsReadme}
	for name, text := range builtinPrompts {
		files[name+".txt"] = text
	}
	for file, content := range files {
		if err := writeIfMissing(filepath.Join(s.dir, file), content); err != nil {
			s.seedErr = err
			return
		}
	}
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return f.Close()
}

const promptsReadme = `# docchat prompts

Templates docchat sends to the LLM.

- rag_answer.txt: answers a question from retrieved document passages.
  It must contain {context} (the passages, separated by blank lines) and
  {question} (the user's question).

Edits apply to the next answer. Delete a file to restore the built-in
template on the next start.
`

package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultConfigFile is used when no path is given.
const DefaultConfigFile = "docchat.toml"

// ConfigStore keeps a TOML document in memory as nested tables. A key
// "llm.provider" addresses provider in the [llm] table.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	tree map[string]any
}

// NewConfigStore opens the TOML file at path, creating its directory.
// A missing file is an empty configuration.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	s := &ConfigStore{path: path, tree: map[string]any{}}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load re-reads the file, discarding unsaved state.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.replace(map[string]any{})
		return nil
	}
	if err != nil {
		return err
	}

	tree := map[string]any{}
	if err := toml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	s.replace(tree)
	return nil
}

func (s *ConfigStore) replace(tree map[string]any) {
	s.mu.Lock()
	s.tree = tree
	s.mu.Unlock()
}

// Get returns the value at key. Tables are not values.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, leaf := s.walk(key, false)
	if table == nil {
		return nil, false
	}
	v, ok := table[leaf]
	if _, isTable := v.(map[string]any); isTable {
		return nil, false
	}
	return v, ok
}

// Set stores value at key, creating tables as needed, and rewrites the file.
// The file is left unchanged if the write fails.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, leaf := s.walk(key, true)
	if table == nil {
		return fmt.Errorf("config key %q: a parent is not a table", key)
	}
	if _, isTable := table[leaf].(map[string]any); isTable {
		return fmt.Errorf("config key %q is a table", key)
	}

	prev, had := table[leaf]
	table[leaf] = value
	if err := s.write(); err != nil {
		if had {
			table[leaf] = prev
		} else {
			delete(table, leaf)
		}
		return err
	}
	return nil
}

// Path returns the file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// walk returns the table holding key's last segment. With create set,
// missing tables are added. The caller holds the lock.
func (s *ConfigStore) walk(key string, create bool) (map[string]any, string) {
	parts := strings.Split(key, ".")
	node := s.tree
	for _, part := range parts[:len(parts)-1] {
		next, exists := node[part]
		if !exists {
			if !create {
				return nil, ""
			}
			child := map[string]any{}
			node[part] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, ""
		}
		node = child
	}
	return node, parts[len(parts)-1]
}

// write replaces the file atomically with 0600 permissions.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(s.tree)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".docchat-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

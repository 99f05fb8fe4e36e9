package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// FileName is the settings file inside the config directory.
const FileName = "config.toml"

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps pipeline settings in a TOML file.
// Tables are exposed as dotted keys ("ocr.max_scale") and written back
// as tables, so the file stays hand-editable.
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewConfigStore opens dir/config.toml, creating dir if needed.
// An empty dir means ~/.refpipe. A missing file is an empty store.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, ".refpipe")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{
		path:   filepath.Join(dir, FileName),
		values: map[string]any{},
	}
	if err := s.Load(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.path, err)
	}
	return s, nil
}

// Path returns the settings file location.
func (s *ConfigStore) Path() string {
	return s.path
}

// Get returns the raw value stored under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt accepts TOML integers and whole floats.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		if n == float64(int64(n)) {
			return int(n)
		}
	}
	return 0
}

func (s *ConfigStore) GetFloat(key string) float64 {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

// GetStringSlice drops non-string array elements.
func (s *ConfigStore) GetStringSlice(key string) []string {
	v, _ := s.Get(key)
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Keys lists every dotted key in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set stores value under key and writes the file. The value is
// dropped again if the file cannot be written.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	s.values[key] = value
	if err := s.write(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// write must be called with mu held.
func (s *ConfigStore) write() error {
	tree, err := nest(s.values)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	// upload.token may be stored here.
	return os.WriteFile(s.path, data, 0600)
}

// Load re-reads the file, replacing every value.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.values = map[string]any{}
		return nil
	}
	if err != nil {
		return err
	}

	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("parsing %s: %w", FileName, err)
	}
	s.values = map[string]any{}
	flatten(tree, "", s.values)
	return nil
}

// flatten copies nested tables into out under dotted keys.
func flatten(tree map[string]any, prefix string, out map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if table, ok := v.(map[string]any); ok {
			flatten(table, key, out)
			continue
		}
		out[key] = v
	}
}

// nest turns dotted keys back into tables. A key that is both a value
// and a table prefix cannot be written.
func nest(values map[string]any) (map[string]any, error) {
	root := map[string]any{}
	for key, v := range values {
		parts := strings.Split(key, ".")
		table := root
		for _, part := range parts[:len(parts)-1] {
			next, exists := table[part]
			if !exists {
				child := map[string]any{}
				table[part] = child
				table = child
				continue
			}
			child, ok := next.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("config key %q conflicts with value at %q", key, part)
			}
			table = child
		}
		leaf := parts[len(parts)-1]
		if _, ok := table[leaf].(map[string]any); ok {
			return nil, fmt.Errorf("config key %q conflicts with table of the same name", key)
		}
		table[leaf] = v
	}
	return root, nil
}

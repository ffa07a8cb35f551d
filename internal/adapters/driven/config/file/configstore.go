package file

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/lectern/internal/adapters/driven/config/kv"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	configFile   = "config.toml"
	configHeader = "# lectern settings. Edit freely; `lectern settings` rewrites this file.\n\n"
)

// ConfigStore keeps settings in config.toml. Dotted keys are written as
// tables, so "search.max_results" lands as max_results under [search].
// Every Set and Delete is written through; a failed write leaves the
// in-memory value as it was.
type ConfigStore struct {
	*kv.Map

	path    string
	writeMu sync.Mutex
}

// NewConfigStore opens configDir/config.toml, creating configDir when
// needed. An empty configDir means ~/.lectern. A missing file is an empty
// config; an unparsable one is an error.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		configDir = filepath.Join(home, ".lectern")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{Map: kv.New(), path: filepath.Join(configDir, configFile)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Set stores value under key and writes the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev, existed := s.Put(key, value)
	if err := s.write(); err != nil {
		s.Restore(key, prev, existed)
		return err
	}
	return nil
}

// Delete removes key and writes the file. Unknown keys are ignored.
func (s *ConfigStore) Delete(key string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev, existed := s.Remove(key)
	if !existed {
		return nil
	}
	if err := s.write(); err != nil {
		s.Restore(key, prev, existed)
		return err
	}
	return nil
}

// Save writes the current values to disk.
func (s *ConfigStore) Save() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.write()
}

// Load replaces the in-memory values with the file's contents.
func (s *ConfigStore) Load() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.Replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	var tables map[string]any
	if err := toml.Unmarshal(raw, &tables); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}
	s.Replace(flattenMap(tables, ""))
	return nil
}

// Path returns the location of config.toml.
func (s *ConfigStore) Path() string {
	return s.path
}

// write replaces the file through a temp file in the same directory so a
// crash never leaves half a config behind. Caller holds writeMu.
func (s *ConfigStore) write() error {
	body, err := toml.Marshal(nestMap(s.Snapshot()))
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	buf.Write(body)
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// flattenMap turns nested tables into dotted keys: {"a": {"b": 1}} is
// {"a.b": 1}.
func flattenMap(tables map[string]any, prefix string) map[string]any {
	flat := make(map[string]any, len(tables))
	for name, v := range tables {
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		sub, isTable := v.(map[string]any)
		if !isTable {
			flat[key] = v
			continue
		}
		for k, leaf := range flattenMap(sub, key) {
			flat[k] = leaf
		}
	}
	return flat
}

// nestMap is the inverse of flattenMap. Keys are visited in sorted order, so
// when "a" is a value and "a.b" also exists, "a.b" stays a quoted root key.
func nestMap(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, key := range keys {
		if table, leaf, ok := tableFor(root, key); ok {
			table[leaf] = flat[key]
		} else {
			root[key] = flat[key]
		}
	}
	return root
}

// tableFor walks or creates the tables leading to key's last segment. It
// reports false when a segment is already taken by a plain value or the
// leaf is already a table.
func tableFor(root map[string]any, key string) (map[string]any, string, bool) {
	segments := strings.Split(key, ".")
	node := root
	for _, seg := range segments[:len(segments)-1] {
		existing, found := node[seg]
		if !found {
			child := make(map[string]any)
			node[seg] = child
			node = child
			continue
		}
		child, isTable := existing.(map[string]any)
		if !isTable {
			return nil, "", false
		}
		node = child
	}
	leaf := segments[len(segments)-1]
	if _, isTable := node[leaf].(map[string]any); isTable {
		return nil, "", false
	}
	return node, leaf, true
}

package memory

import (
	"github.com/custodia-labs/lectern/internal/adapters/driven/config/kv"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory only. Tests use it, and so does any
// run where the lectern home directory cannot be written.
type ConfigStore struct {
	*kv.Map
}

// NewConfigStore returns a store holding the union of seed; later maps win.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	return &ConfigStore{Map: kv.New(seed...)}
}

// Set stores value.
func (s *ConfigStore) Set(key string, value any) error {
	s.Put(key, value)
	return nil
}

// Delete removes key.
func (s *ConfigStore) Delete(key string) error {
	s.Remove(key)
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

// Path reports ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }

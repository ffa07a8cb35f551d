// Package kv is the flat, dot-keyed value map behind lectern's config
// stores. Getters coerce the numeric types TOML and JSON decoders produce
// and return zero values for missing or mistyped keys.
package kv

import (
	"maps"
	"math"
	"sync"
)

// Map is safe for concurrent use.
type Map struct {
	mu     sync.RWMutex
	values map[string]any
}

// New returns a map holding the union of seeds; later seeds win.
func New(seeds ...map[string]any) *Map {
	values := make(map[string]any)
	for _, s := range seeds {
		maps.Copy(values, s)
	}
	return &Map{values: values}
}

// Get returns the raw value for key.
func (m *Map) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// GetString returns key as a string.
func (m *Map) GetString(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

// GetInt returns key as an int. Floats count only when they are whole.
func (m *Map) GetInt(key string) int {
	v, _ := m.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	}
	return 0
}

// GetFloat returns key as a float64; integers are widened.
func (m *Map) GetFloat(key string) float64 {
	v, _ := m.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// GetBool returns key as a bool.
func (m *Map) GetBool(key string) bool {
	v, _ := m.Get(key)
	b, _ := v.(bool)
	return b
}

// GetStringSlice returns key as a []string, dropping non-string elements of
// a decoded []any.
func (m *Map) GetStringSlice(key string) []string {
	v, _ := m.Get(key)
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Put stores value and returns the previous one, if any.
func (m *Map) Put(key string, value any) (prev any, existed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, existed = m.values[key]
	m.values[key] = value
	return prev, existed
}

// Remove deletes key and returns its value, if any.
func (m *Map) Remove(key string) (prev any, existed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, existed = m.values[key]
	delete(m.values, key)
	return prev, existed
}

// Restore undoes a Put or Remove given what it returned.
func (m *Map) Restore(key string, prev any, existed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existed {
		m.values[key] = prev
	} else {
		delete(m.values, key)
	}
}

// Snapshot returns a shallow copy of every value.
func (m *Map) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values)
}

// Replace swaps in a new set of values.
func (m *Map) Replace(values map[string]any) {
	if values == nil {
		values = make(map[string]any)
	}
	m.mu.Lock()
	m.values = values
	m.mu.Unlock()
}

package value

import "strings"

// Map is an insertion-ordered mapping from string keys to values.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Get retrieves a value by key.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// GetFold retrieves a value by key, falling back to a case-insensitive match.
func (m *Map) GetFold(key string) (Value, bool) {
	if v, ok := m.values[key]; ok {
		return v, true
	}
	for _, k := range m.keys {
		if strings.EqualFold(k, key) {
			return m.values[k], true
		}
	}
	return Empty, false
}

// Set inserts or replaces a key, preserving first-insertion order.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes a key.
func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order. The slice must not be modified.
func (m *Map) Keys() []string {
	return m.keys
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Clone returns a shallow copy.
func (m *Map) Clone() *Map {
	cp := &Map{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]Value, len(m.values)),
	}
	copy(cp.keys, m.keys)
	for k, v := range m.values {
		cp.values[k] = v
	}
	return cp
}

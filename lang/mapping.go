package lang

import (
	"iter"
	"maps"
	"slices"
)

// Mapping is the resolved output: identifiers mapped to values, iterated in
// the source order of their assignments.
//
// Values are int64, string, or []any whose elements are again values.
type Mapping struct {
	keys   []string
	values map[string]any
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]any)}
}

// Set stores value under key. A key that is already present keeps its
// original position and takes the new value.
func (m *Mapping) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}

	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}

	v, ok := m.values[key]

	return v, ok
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Keys returns the keys in assignment order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}

	return slices.Clone(m.keys)
}

// All returns an iterator over key/value pairs in assignment order.
func (m *Mapping) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if m == nil {
			return
		}

		for _, key := range m.keys {
			if !yield(key, m.values[key]) {
				return
			}
		}
	}
}

// ToMap returns an unordered copy of the mapping, suitable as an expression
// environment.
func (m *Mapping) ToMap() map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return maps.Clone(m.values)
}

// Package repository holds the small keyed containers the entity manager indexes state with.
package repository

import (
	"iter"

	"github.com/rotisserie/eris"
)

var (
	ErrKeyExists   = eris.New("key already exists")
	ErrKeyNotFound = eris.New("key not found")
)

// Map is a keyed repository backed by a Go map. It is not safe for concurrent use.
type Map[K comparable, V any] struct {
	items map[K]V
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{items: make(map[K]V)}
}

func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.items[key]
	return ok
}

// Get returns the value under key, or the zero value when absent.
func (m *Map[K, V]) Get(key K) V {
	return m.items[key]
}

func (m *Map[K, V]) TryGet(key K) (V, bool) {
	v, ok := m.items[key]
	return v, ok
}

// Add inserts a new key. Existing keys are never overwritten.
func (m *Map[K, V]) Add(key K, value V) error {
	if _, ok := m.items[key]; ok {
		return ErrKeyExists
	}
	m.items[key] = value
	return nil
}

// Update overwrites the value of an existing key.
func (m *Map[K, V]) Update(key K, value V) error {
	if _, ok := m.items[key]; !ok {
		return ErrKeyNotFound
	}
	m.items[key] = value
	return nil
}

// Remove deletes key and reports whether it was present.
func (m *Map[K, V]) Remove(key K) bool {
	if _, ok := m.items[key]; !ok {
		return false
	}
	delete(m.items, key)
	return true
}

func (m *Map[K, V]) Len() int {
	return len(m.items)
}

// Keys yields the live keys. Every call starts a fresh pass over the current contents; keys
// removed before they are reached are not yielded.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.items {
			if !yield(k) {
				return
			}
		}
	}
}

// All yields the live key/value pairs.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for k, v := range m.items {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Package cache provides the in-memory lookup memo used during enrichment.
// It uses patrickmn/go-cache with expiration disabled: entries live until the
// memo is dropped at the end of a run.
package cache

import (
	gocache "github.com/patrickmn/go-cache"
)

// Memo maps a lookup key to the result of that lookup. A stored zero value is
// a valid entry, which lets callers remember that a lookup found nothing.
type Memo[V any] struct {
	store *gocache.Cache
}

// New creates an empty memo.
func New[V any]() *Memo[V] {
	return &Memo[V]{
		store: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns the value stored for key and whether an entry exists.
func (m *Memo[V]) Get(key string) (V, bool) {
	var zero V
	v, found := m.store.Get(key)
	if !found {
		return zero, false
	}
	value, ok := v.(V)
	if !ok {
		return zero, true
	}
	return value, true
}

// Set stores value for key, replacing any earlier entry.
func (m *Memo[V]) Set(key string, value V) {
	m.store.Set(key, value, gocache.NoExpiration)
}

// Delete removes the entry for key.
func (m *Memo[V]) Delete(key string) {
	m.store.Delete(key)
}

// Clear removes all entries.
func (m *Memo[V]) Clear() {
	m.store.Flush()
}

// Len returns the number of entries.
func (m *Memo[V]) Len() int {
	return m.store.ItemCount()
}

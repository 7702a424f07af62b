// Package cache is a small TTL store used opportunistically for shuttle
// and user lookups. A miss (or an expired entry) always falls through to
// the database; nothing relies on the cache for correctness.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type Store[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[int64]entry[V]
}

func New[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		ttl:     ttl,
		entries: make(map[int64]entry[V]),
	}
}

func (s *Store[V]) Get(key int64) (V, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		s.Invalidate(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *Store[V]) Set(key int64, value V) {
	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
}

func (s *Store[V]) Invalidate(key int64) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store[V]) InvalidateAll() {
	s.mu.Lock()
	s.entries = make(map[int64]entry[V])
	s.mu.Unlock()
}

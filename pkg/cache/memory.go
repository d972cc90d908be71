// Package cache stores extraction results so the same screenshot pasted
// twice is not sent through OCR again.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	ids     []string
	expires time.Time
}

// Memory is an in-process cache with a fixed TTL.
type Memory struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]entry
	now   func() time.Time
}

// NewMemory returns a Memory cache. A ttl <= 0 keeps entries forever.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, items: make(map[string]entry), now: time.Now}
}

// Get returns a copy of the cached ids.
func (m *Memory) Get(_ context.Context, key string) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.items, key)
		return nil, false
	}
	return append([]string{}, e.ids...), true
}

// Set stores a copy of ids.
func (m *Memory) Set(_ context.Context, key string, ids []string) {
	e := entry{ids: append([]string{}, ids...)}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

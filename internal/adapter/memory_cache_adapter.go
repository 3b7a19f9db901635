package adapter

import (
	"context"
	"sync"
	"time"

	"study-quiz/internal/domain"
)

type memoryEntry struct {
	fields   map[string]string
	deadline time.Time
}

// MemoryCacheAdapter implements domain.Cache in process memory. It backs the
// credential store when no Redis address is configured.
type MemoryCacheAdapter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryCacheAdapter() *MemoryCacheAdapter {
	return &MemoryCacheAdapter{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// entry returns the live entry for key. Callers hold mu.
func (m *MemoryCacheAdapter) entry(key string) *memoryEntry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !e.deadline.IsZero() && !m.now().Before(e.deadline) {
		delete(m.entries, key)
		return nil
	}
	return e
}

func (m *MemoryCacheAdapter) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryCacheAdapter) Ping(context.Context) error {
	return nil
}

func (m *MemoryCacheAdapter) HGet(_ context.Context, key, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(key)
	if e == nil {
		return "", domain.ErrCacheMiss
	}
	val, ok := e.fields[field]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return val, nil
}

func (m *MemoryCacheAdapter) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	if e := m.entry(key); e != nil {
		for k, v := range e.fields {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryCacheAdapter) HSet(_ context.Context, key string, field string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(key)
	if e == nil {
		e = &memoryEntry{fields: make(map[string]string)}
		m.entries[key] = e
	}
	e.fields[field] = value
	return nil
}

// Expire mirrors Redis: a non-positive duration removes the key.
func (m *MemoryCacheAdapter) Expire(_ context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(key)
	if e == nil {
		return nil
	}
	if expiration <= 0 {
		delete(m.entries, key)
		return nil
	}
	e.deadline = m.now().Add(expiration)
	return nil
}

// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used for ephemeral game sessions,
// primarily in development/testing, or when no Redis is configured.
//
// Characteristics:
//   - Plain keys and hashes live in separate maps, keyed by name.
//   - Concurrency-safe via a single Mutex; every operation is atomic with
//     respect to every other, which is what the readiness barrier needs.
//   - TTLs are tracked per key and enforced lazily on access.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// memory is a map-based Store implementation.
type memory struct {
	mu       sync.Mutex
	strings  map[string]string
	hashes   map[string]map[string]string
	deadline map[string]time.Time
	now      func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		strings:  make(map[string]string),
		hashes:   make(map[string]map[string]string),
		deadline: make(map[string]time.Time),
		now:      time.Now,
	}
}

// reap drops the key if its TTL has passed. Caller holds mu.
func (m *memory) reap(key string) {
	if dl, ok := m.deadline[key]; ok && m.now().After(dl) {
		delete(m.strings, key)
		delete(m.hashes, key)
		delete(m.deadline, key)
	}
}

func (m *memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap(key)
	if v, ok := m.strings[key]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (m *memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = value
	return nil
}

func (m *memory) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.strings, k)
		delete(m.hashes, k)
		delete(m.deadline, k)
	}
	return nil
}

func (m *memory) HGet(ctx context.Context, key, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap(key)
	if h, ok := m.hashes[key]; ok {
		if v, ok := h[field]; ok {
			return v, nil
		}
	}
	return "", ErrNotFound
}

func (m *memory) HSet(ctx context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap(key)
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		m.hashes[key] = h
	}
	for f, v := range fields {
		h[f] = v
	}
	return nil
}

func (m *memory) HSetNX(ctx context.Context, key, field, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap(key)
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	if _, exists := h[field]; exists {
		return false, nil
	}
	h[field] = value
	return true, nil
}

func (m *memory) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap(key)
	out := make(map[string]string, len(m.hashes[key]))
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (m *memory) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap(key)
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	cur, _ := strconv.ParseInt(h[field], 10, 64)
	cur += delta
	h[field] = strconv.FormatInt(cur, 10)
	return cur, nil
}

func (m *memory) HDel(ctx context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.hashes[key]; ok {
		for _, f := range fields {
			delete(h, f)
		}
		if len(h) == 0 {
			delete(m.hashes, key)
		}
	}
	return nil
}

func (m *memory) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap(key)
	cur, _ := strconv.ParseInt(m.strings[key], 10, 64)
	cur++
	m.strings[key] = strconv.FormatInt(cur, 10)
	return cur, nil
}

func (m *memory) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl <= 0 {
		delete(m.deadline, key)
		return nil
	}
	m.deadline[key] = m.now().Add(ttl)
	return nil
}

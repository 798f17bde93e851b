package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the pluggable backing for the cache layer. Implementations must
// never surface backend failures: a broken store behaves as always-miss.
type Store interface {
	// Get returns the value for key, or false when absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes the given keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) int
	// DeleteByPrefix removes every key starting with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) int
	// Stats reports backend statistics for diagnostics.
	Stats(ctx context.Context) map[string]interface{}
	// Close releases backend resources.
	Close() error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store with manual expiry sweeping. It is the
// fallback backing when no external cache is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the value for key if present and not expired
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key for ttl
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes the given keys
func (m *MemoryStore) Delete(ctx context.Context, keys ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for _, key := range keys {
		if _, ok := m.entries[key]; ok {
			delete(m.entries, key)
			deleted++
		}
	}
	return deleted
}

// DeleteByPrefix removes every key starting with prefix
func (m *MemoryStore) DeleteByPrefix(ctx context.Context, prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for key := range m.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(m.entries, key)
			deleted++
		}
	}
	return deleted
}

// Sweep removes expired entries and returns how many were cleared
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cleared := 0
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
			cleared++
		}
	}
	return cleared
}

// Stats reports entry counts
func (m *MemoryStore) Stats(ctx context.Context) map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]interface{}{
		"backend":    "memory",
		"connected":  true,
		"total_keys": len(m.entries),
	}
}

// Close is a no-op for the in-memory store
func (m *MemoryStore) Close() error {
	return nil
}

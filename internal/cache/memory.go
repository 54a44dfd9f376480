package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"
)

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// MemoryCache is the in-process level. Values are stored JSON-encoded so
// callers never share memory with the cache.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]memoryItem
	metrics *CacheMetrics
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items:   make(map[string]memoryItem),
		metrics: NewCacheMetrics(),
	}
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	item := memoryItem{data: data}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()

	m.metrics.RecordSet()
	return nil
}

func (m *MemoryCache) lookup(key string, remove bool) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return nil, false
	}
	expired := item.expired(time.Now())
	if expired || remove {
		delete(m.items, key)
	}
	if expired {
		return nil, false
	}
	return item.data, true
}

func (m *MemoryCache) get(key string, dest interface{}, remove bool) error {
	data, ok := m.lookup(key, remove)
	if !ok {
		m.metrics.RecordMiss()
		return ErrCacheMiss
	}
	m.metrics.RecordHit()
	if err := json.Unmarshal(data, dest); err != nil {
		m.metrics.RecordError()
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	return m.get(key, dest, false)
}

func (m *MemoryCache) Take(_ context.Context, key string, dest interface{}) error {
	return m.get(key, dest, true)
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()

	m.metrics.RecordDelete()
	return nil
}

// DeletePattern accepts the same glob syntax as redis KEYS for the common
// cases (*, ?, [...]).
func (m *MemoryCache) DeletePattern(_ context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
			m.metrics.RecordDelete()
		}
	}
	return nil
}

func (m *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.lookup(key, false)
	return ok, nil
}

// Len returns the number of live entries, dropping expired ones.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, item := range m.items {
		if item.expired(now) {
			delete(m.items, key)
		}
	}
	return len(m.items)
}

func (m *MemoryCache) Stats() map[string]interface{} {
	return map[string]interface{}{
		"entries":  m.Len(),
		"metrics":  m.metrics.GetStats(),
		"hit_rate": m.metrics.HitRate(),
	}
}

func (m *MemoryCache) Health(context.Context) error {
	return nil
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.items = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}

package bucket

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store backed by maps. Suitable for tests and
// single-process deployments without persistence requirements.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		buckets: make(map[string]map[string]*Entry),
	}
}

// Get retrieves an entry. Returns ErrMiss if absent.
func (m *Memory) Get(ctx context.Context, bucket, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.buckets[bucket][key]
	if !ok {
		Misses.Inc()
		return nil, ErrMiss
	}

	Hits.WithLabelValues("memory").Inc()
	return entry.Clone(), nil
}

// Put stores a deep copy of the entry.
func (m *Memory) Put(ctx context.Context, bucket, key string, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string]*Entry)
		m.buckets[bucket] = b
	}
	b[key] = entry.Clone()
	return nil
}

// Delete removes one entry.
func (m *Memory) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.buckets[bucket], key)
	return nil
}

// Keys enumerates the keys of one bucket in sorted order.
func (m *Memory) Keys(ctx context.Context, bucket string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.buckets[bucket]))
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Buckets enumerates all bucket names in sorted order.
func (m *Memory) Buckets(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Drop removes a bucket and all of its entries.
func (m *Memory) Drop(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.buckets, bucket)
	return nil
}

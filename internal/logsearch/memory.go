package logsearch

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory implementation of Searcher for tests and
// development. It returns whatever buckets were seeded for an index.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string][]HostCount
	err     error
}

// NewMemory creates a new in-memory searcher.
func NewMemory() *Memory {
	return &Memory{
		buckets: make(map[string][]HostCount),
	}
}

// SetBuckets seeds the buckets returned for an index.
func (m *Memory) SetBuckets(index string, buckets []HostCount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[index] = buckets
}

// FailWith makes every subsequent search return the given error.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CountByHost returns the seeded buckets for the index.
func (m *Memory) CountByHost(ctx context.Context, index, rawQuery string, window time.Duration) ([]HostCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	results := make([]HostCount, len(m.buckets[index]))
	copy(results, m.buckets[index])
	return results, nil
}

// Package cachetest provides an in-memory cache.Cache for tests.
package cachetest

import (
	"context"
	"sync"
	"time"

	"github.com/futureproof/aitracker/internal/cache"
)

// Memory ignores TTLs. Set Err to make every call fail.
type Memory struct {
	mu       sync.Mutex
	values   map[string][]byte
	counters map[string]int64

	Err error
}

var _ cache.Cache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte), counters: make(map[string]int64)}
}

func (m *Memory) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Ping(_ context.Context) error { return m.Err }

func (m *Memory) SetRunStatus(ctx context.Context, sessionID string, status string, ttl time.Duration) error {
	return m.Set(ctx, cache.RunStatusKey(sessionID), []byte(status), ttl)
}

func (m *Memory) GetRunStatus(ctx context.Context, sessionID string) (string, bool, error) {
	v, ok, err := m.Get(ctx, cache.RunStatusKey(sessionID))
	return string(v), ok, err
}

func (m *Memory) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}

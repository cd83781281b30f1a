package store

import (
	"context"
	"sync"
)

// Memory is a process-local backend. Nothing survives a restart; it backs
// tests and the non-persistent fallback mode.
type Memory struct {
	mu   sync.RWMutex
	data map[Kind]map[string][]byte
}

func NewMemoryBackend() *Memory {
	return &Memory{data: make(map[Kind]map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, kind Kind, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[kind][key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Set(_ context.Context, kind Kind, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.data[kind]
	if !ok {
		bucket = make(map[string][]byte)
		m.data[kind] = bucket
	}
	v := make([]byte, len(value))
	copy(v, value)
	bucket[key] = v
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

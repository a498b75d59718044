package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps slots in a map. A positive Quota caps the total size of
// keys plus values in bytes, mimicking a browser storage limit.
type MemoryBackend struct {
	Quota int

	mu   sync.Mutex
	data map[string][]byte
	used int

	// FailNext forces the next Set to fail with this error, then clears.
	FailNext error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	if err := m.FailNext; err != nil {
		m.FailNext = nil
		return err
	}

	used := m.used
	if old, ok := m.data[key]; ok {
		used -= len(key) + len(old)
	}
	used += len(key) + len(value)
	if m.Quota > 0 && used > m.Quota {
		return ErrQuotaExceeded
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	m.used = used
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.data, key)
	}
	return nil
}

// Len reports the number of stored slots.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

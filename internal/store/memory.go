package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryKV is an in-memory StateRepo. Failing keys can be injected through
// GetErr/SetErr to exercise degraded paths.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string

	GetErr error
	SetErr error
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryKV) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// Keys lists stored keys with the given prefix in lexical order.
func (m *MemoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

package admission

import (
	"context"
	"sync"
)

// MemoryIndex is a process-local Index for single-instance deployments and
// tests.
type MemoryIndex struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{active: make(map[string]struct{})}
}

func (m *MemoryIndex) Register(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[documentID]; ok {
		return duplicateErr(documentID)
	}
	m.active[documentID] = struct{}{}
	return nil
}

func (m *MemoryIndex) Release(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, documentID)
	return nil
}

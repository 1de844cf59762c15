package canvas

import (
	"context"
	"sync"
)

// MemorySink keeps the latest snapshot in memory.
type MemorySink struct {
	mu    sync.RWMutex
	last  Snapshot
	syncs int
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Sync(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = snap
	m.syncs++
	return nil
}

// Last returns the most recent snapshot received.
func (m *MemorySink) Last() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Syncs returns how many snapshots have been received.
func (m *MemorySink) Syncs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.syncs
}

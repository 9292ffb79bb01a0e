// Package store provides KVStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/pharmacy-ledger/pharmacy"
)

var _ pharmacy.KVStore = (*Memory)(nil)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
	writes  int
	failErr error
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

// Get returns a copy of the stored value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// PutBatch stores all entries atomically.
func (m *Memory) PutBatch(_ context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return m.failErr
	}
	for k, v := range entries {
		m.entries[k] = append([]byte(nil), v...)
	}
	m.writes++
	return nil
}

// Set writes a single raw value, bypassing the ledger. Useful to seed
// corrupt or legacy data.
func (m *Memory) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), value...)
}

// Writes returns how many batches have been stored.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// FailWrites makes every following PutBatch return err. nil restores writes.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps session records in a process-wide map with optional TTL.
// Concurrent saves for the same id are last-writer-wins. Records do not
// survive a restart and are not shared between processes.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

type entry struct {
	v   map[string]any
	exp time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]entry), now: time.Now}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (map[string]any, bool, error) {
	m.mu.RLock()
	e, ok := m.data[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && m.now().After(e.exp) {
		_ = m.Delete(ctx, id)
		return nil, false, nil
	}
	return copyMap(e.v), true, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, data map[string]any, ttl time.Duration) error {
	if id == "" {
		return ErrEmptyID
	}
	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.data[id] = entry{v: copyMap(data), exp: exp}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.data, id)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored records, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

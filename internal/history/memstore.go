package history

import (
	"context"
	"sync"
)

// memCapacity bounds the in-memory record list.
const memCapacity = 1000

// MemStore is an in-memory [Store] used when no database is configured
// and in tests. Oldest records are evicted beyond capacity. Safe for
// concurrent use.
type MemStore struct {
	mu   sync.Mutex
	recs []CallRecord
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Save implements [Store].
func (m *MemStore) Save(_ context.Context, rec CallRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	if len(m.recs) > memCapacity {
		m.recs = m.recs[len(m.recs)-memCapacity:]
	}
	return nil
}

// Recent implements [Store].
func (m *MemStore) Recent(_ context.Context, limit int) ([]CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := min(limit, len(m.recs))
	out := make([]CallRecord, 0, n)
	for i := len(m.recs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.recs[i])
	}
	return out, nil
}

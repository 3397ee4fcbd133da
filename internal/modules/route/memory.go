// README: In-memory route repository for tests and local runs.
package route

import (
	"context"
	"sort"
	"sync"

	"routecab/internal/types"
)

type MemoryStore struct {
	mu     sync.RWMutex
	routes map[types.ID]*Route
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{routes: make(map[types.ID]*Route)}
}

func (m *MemoryStore) ListActive(_ context.Context) ([]*Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Route, 0, len(m.routes))
	for _, r := range m.routes {
		if r.Active {
			out = append(out, r.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.routes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, r *Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[r.ID] = r.clone()
	return nil
}

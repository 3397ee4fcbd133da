// README: In-memory position store for tests and local runs.
package location

import (
	"context"
	"sync"

	"routecab/internal/types"
)

type MemoryStore struct {
	mu        sync.RWMutex
	positions map[types.ID]types.Position
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{positions: make(map[types.ID]types.Position)}
}

func (m *MemoryStore) SetPosition(_ context.Context, id types.ID, pos types.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[id] = pos
	return nil
}

func (m *MemoryStore) Positions(_ context.Context, ids []types.ID) (map[types.ID]types.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[types.ID]types.Position, len(ids))
	for _, id := range ids {
		if p, ok := m.positions[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

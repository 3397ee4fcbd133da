// README: In-memory driver repository for tests and local runs.
package driver

import (
	"context"
	"sort"
	"sync"

	"routecab/internal/types"
)

type MemoryStore struct {
	mu      sync.RWMutex
	drivers map[types.ID]*Driver
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drivers: make(map[types.ID]*Driver)}
}

func (m *MemoryStore) Create(_ context.Context, d *Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.drivers {
		if existing.UserID == d.UserID {
			return ErrBadRequest
		}
	}
	cp := d.clone()
	cp.Position = nil
	m.drivers[d.ID] = cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.clone(), nil
}

func (m *MemoryStore) GetByUser(_ context.Context, userID types.ID) (*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.UserID == userID {
			return d.clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListByRoute(_ context.Context, routeID types.ID) ([]*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Driver
	for _, d := range m.drivers {
		if d.OnRoute(routeID) {
			out = append(out, d.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) SetAvailability(_ context.Context, id types.ID, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return ErrNotFound
	}
	d.Available = available
	return nil
}

func (m *MemoryStore) SetRoute(_ context.Context, id, routeID types.ID, onlyIfUnassigned bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return false, nil
	}
	if onlyIfUnassigned && d.RouteID != nil {
		return false, nil
	}
	r := routeID
	d.RouteID = &r
	return true, nil
}

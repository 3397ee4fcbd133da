// README: In-memory account repository with the same conditional-update contract as Store.
package account

import (
	"context"
	"sync"
	"time"

	"routecab/internal/types"
)

type MemoryStore struct {
	mu         sync.Mutex
	accounts   map[types.ID]*Account
	passengers map[types.ID]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:   make(map[types.ID]*Account),
		passengers: make(map[types.ID]struct{}),
	}
}

func (m *MemoryStore) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[a.ID]; exists {
		return ErrDuplicate
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) UpdateRoles(_ context.Context, id types.ID, from, to Roles, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.Roles != from {
		return false, nil
	}
	a.Roles = to
	a.RoleChangedAt = &at
	return true, nil
}

func (m *MemoryStore) EnsurePassengerProfile(_ context.Context, userID types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passengers[userID] = struct{}{}
	return nil
}

// HasPassengerProfile reports whether a passenger profile row exists for userID.
func (m *MemoryStore) HasPassengerProfile(userID types.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.passengers[userID]
	return ok
}

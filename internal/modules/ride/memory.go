// README: In-memory ride repository with the same conditional-update contract as Store.
package ride

import (
	"context"
	"sync"

	"routecab/internal/types"
)

type MemoryStore struct {
	mu     sync.Mutex
	rides  map[types.ID]*Ride
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rides: make(map[types.ID]*Ride)}
}

func (m *MemoryStore) Create(_ context.Context, r *Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rides[r.ID]; exists {
		return ErrDuplicate
	}
	cp := *r
	m.rides[r.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, u Update) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[u.ID]
	if !ok || r.Status != u.From || r.StatusVersion != u.Version {
		return false, nil
	}
	at := u.At
	r.Status = u.To
	r.StatusVersion++
	if u.DriverID != nil {
		r.DriverID = *u.DriverID
	}
	if u.CancelledBy != nil {
		c := *u.CancelledBy
		r.CancelledBy = &c
	}
	switch u.To {
	case StatusAccepted:
		r.AcceptedAt = &at
	case StatusInProgress:
		r.StartedAt = &at
	case StatusCompleted:
		r.CompletedAt = &at
	case StatusCancelled:
		r.CancelledAt = &at
	}
	return true, nil
}

func (m *MemoryStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.ID = int64(len(m.events) + 1)
	m.events = append(m.events, cp)
	return nil
}

// Events returns the audit trail recorded for rideID in append order.
func (m *MemoryStore) Events(rideID types.ID) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.RideID == rideID {
			out = append(out, e)
		}
	}
	return out
}

func (m *MemoryStore) ExistsWithStatus(_ context.Context, party Party, userID types.ID, statuses []Status) (bool, error) {
	if _, err := partyColumn(party); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rides {
		id := r.PassengerID
		if party == PartyDriver {
			id = r.DriverID
		}
		if id != userID {
			continue
		}
		for _, st := range statuses {
			if r.Status == st {
				return true, nil
			}
		}
	}
	return false, nil
}

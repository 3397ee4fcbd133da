// README: Ride aggregate, status definitions and the transition table.
package ride

import (
	"time"

	"routecab/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusRequested Status = "requested"
	StatusAccepted  Status = "accepted"
	// StatusInProgress is reserved: no ledger operation enters it, but stored
	// rides in this status still block role changes.
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Party names which side of a ride a user is on.
type Party string

const (
	PartyPassenger Party = "passenger"
	PartyDriver    Party = "driver"
)

// Ride is never deleted; it only moves to a terminal status.
type Ride struct {
	ID            types.ID
	PassengerID   types.ID
	// DriverID is the target driver's user id, fixed at request time.
	DriverID      types.ID
	Status        Status
	StatusVersion int
	Origin        types.Place
	Destination   types.Place
	EstimatedFare *types.Money
	// EstimatedDistanceKm is whatever the client computed; the ledger does not check it.
	EstimatedDistanceKm *float64
	RequestedAt         time.Time
	AcceptedAt          *time.Time
	StartedAt           *time.Time
	CompletedAt         *time.Time
	CancelledAt         *time.Time
	CancelledBy         *types.ID
}

// PartyOf reports which side userID is on, if any.
func (r *Ride) PartyOf(userID types.ID) (Party, bool) {
	switch userID {
	case r.PassengerID:
		return PartyPassenger, true
	case r.DriverID:
		return PartyDriver, true
	}
	return "", false
}

func (r *Ride) Counterparty(p Party) types.ID {
	if p == PartyPassenger {
		return r.DriverID
	}
	return r.PassengerID
}

type Event struct {
	ID         int64
	RideID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  Party
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the ride state flow (diagram) as code.
var AllowedTransitions = map[Status][]Status{
	StatusRequested: {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

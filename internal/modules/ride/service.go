// README: Ride ledger implements the ride state machine, authorization and notifications.
package ride

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"routecab/internal/logging"
	"routecab/internal/modules/driver"
	"routecab/internal/modules/notify"
	"routecab/internal/observability"
	"routecab/internal/types"
)

var (
	ErrNotFound          = fmt.Errorf("ride %w", types.ErrNotFound)
	ErrInvalidTransition = fmt.Errorf("ride not available: %w", types.ErrInvalidTransition)
	// ErrConflict is returned to the loser of a concurrent transition.
	ErrConflict     = fmt.Errorf("ride state changed concurrently: %w", ErrInvalidTransition)
	ErrUnauthorized = fmt.Errorf("ride: %w", types.ErrUnauthorized)
	ErrBadRequest   = fmt.Errorf("ride: %w", types.ErrBadRequest)
	ErrDuplicate    = errors.New("ride id already exists")
)

// DriverLookup resolves the driver profile a ride is aimed at.
type DriverLookup interface {
	GetByUser(ctx context.Context, userID types.ID) (*driver.Driver, error)
}

type Service struct {
	store    Repository
	drivers  DriverLookup
	notifier notify.Notifier
	log      *slog.Logger
	now      func() time.Time
	sends    sync.WaitGroup
}

func NewService(store Repository, drivers DriverLookup, notifier notify.Notifier, log *slog.Logger) *Service {
	return &Service{store: store, drivers: drivers, notifier: notifier, log: logging.OrDefault(log), now: time.Now}
}

// RequestCommand carries user ids for both parties; DriverID is the target driver's user id.
type RequestCommand struct {
	PassengerID         types.ID
	DriverID            types.ID
	Origin              types.Place
	Destination         types.Place
	EstimatedFare       *types.Money
	EstimatedDistanceKm *float64
}

type AcceptCommand struct {
	RideID   types.ID
	DriverID types.ID
}

type CancelCommand struct {
	RideID   types.ID
	CallerID types.ID
}

type CompleteCommand struct {
	RideID   types.ID
	DriverID types.ID
}

func (c RequestCommand) validate() error {
	switch {
	case c.PassengerID == "" || c.DriverID == "":
		return fmt.Errorf("%w: passenger and driver are required", ErrBadRequest)
	case c.PassengerID == c.DriverID:
		return fmt.Errorf("%w: passenger cannot ride with themselves", ErrBadRequest)
	case !c.Origin.Point.Valid() || !c.Destination.Point.Valid():
		return fmt.Errorf("%w: invalid coordinates", ErrBadRequest)
	case c.EstimatedFare != nil && c.EstimatedFare.Amount < 0:
		return fmt.Errorf("%w: negative fare", ErrBadRequest)
	case c.EstimatedDistanceKm != nil && *c.EstimatedDistanceKm < 0:
		return fmt.Errorf("%w: negative distance", ErrBadRequest)
	}
	return nil
}

// Request creates a ride in StatusRequested and notifies the target driver.
// The driver must have a profile; an unknown user id is driver.ErrNotFound.
func (s *Service) Request(ctx context.Context, cmd RequestCommand) (*Ride, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	if _, err := s.drivers.GetByUser(ctx, cmd.DriverID); err != nil {
		return nil, fmt.Errorf("target driver %s: %w", cmd.DriverID, err)
	}
	now := s.now().UTC()
	r := &Ride{
		ID:                  types.ID(uuid.NewString()),
		PassengerID:         cmd.PassengerID,
		DriverID:            cmd.DriverID,
		Status:              StatusRequested,
		StatusVersion:       0,
		Origin:              cmd.Origin,
		Destination:         cmd.Destination,
		EstimatedFare:       cmd.EstimatedFare,
		EstimatedDistanceKm: cmd.EstimatedDistanceKm,
		RequestedAt:         now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	observability.RideTransitionsTotal.WithLabelValues(string(StatusRequested)).Inc()
	s.appendEvent(ctx, r.ID, StatusNone, StatusRequested, PartyPassenger, cmd.PassengerID, now)

	s.notify(ctx, notify.Notification{
		UserID:   r.DriverID,
		Type:     notify.RideRequested,
		Title:    "New ride request",
		Message:  fmt.Sprintf("Pickup at %s, drop-off at %s", labelOr(r.Origin), labelOr(r.Destination)),
		Metadata: rideMetadata(r),
	})
	return r, nil
}

// Accept moves a requested ride to accepted. Only the target driver may accept.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if cmd.DriverID == "" || r.DriverID != cmd.DriverID {
		return nil, fmt.Errorf("%w: ride is assigned to another driver", ErrUnauthorized)
	}
	driverID := cmd.DriverID
	r, err = s.transition(ctx, r, StatusAccepted, PartyDriver, driverID, Update{DriverID: &driverID})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notify.Notification{
		UserID:   r.PassengerID,
		Type:     notify.RideAccepted,
		Title:    "Ride accepted",
		Message:  "Your driver accepted the ride and is on the way",
		Metadata: rideMetadata(r),
	})
	return r, nil
}

// Cancel is open to either party while the ride is requested or accepted.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	party, ok := r.PartyOf(cmd.CallerID)
	if cmd.CallerID == "" || !ok {
		return nil, fmt.Errorf("%w: caller is not on this ride", ErrUnauthorized)
	}
	caller := cmd.CallerID
	r, err = s.transition(ctx, r, StatusCancelled, party, caller, Update{CancelledBy: &caller})
	if err != nil {
		return nil, err
	}

	n := notify.Notification{
		UserID:   r.Counterparty(party),
		Type:     notify.RideCancelledByPassenger,
		Title:    "Ride cancelled",
		Message:  "The passenger cancelled the ride",
		Metadata: rideMetadata(r),
	}
	if party == PartyDriver {
		n.Type = notify.RideCancelledByDriver
		n.Message = "The driver cancelled the ride"
	}
	s.notify(ctx, n)
	return r, nil
}

// Complete closes an accepted ride. Only the ride's driver may complete it.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if cmd.DriverID == "" || r.DriverID != cmd.DriverID {
		return nil, fmt.Errorf("%w: only the ride's driver can complete it", ErrUnauthorized)
	}
	r, err = s.transition(ctx, r, StatusCompleted, PartyDriver, cmd.DriverID, Update{})
	if err != nil {
		return nil, err
	}

	meta := rideMetadata(r)
	done := make([]notify.Notification, 0, 2)
	for _, uid := range []types.ID{r.PassengerID, r.DriverID} {
		done = append(done, notify.Notification{
			UserID:   uid,
			Type:     notify.RideCompleted,
			Title:    "Ride completed",
			Message:  "Thanks for riding",
			Metadata: meta,
		})
	}
	s.notify(ctx, done...)
	return r, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	return s.store.Get(ctx, id)
}

// HasRideInStatus reports whether userID is on the given side of any ride in one of statuses.
func (s *Service) HasRideInStatus(ctx context.Context, party Party, userID types.ID, statuses ...Status) (bool, error) {
	if len(statuses) == 0 {
		return false, nil
	}
	return s.store.ExistsWithStatus(ctx, party, userID, statuses)
}

// transition applies the conditional update and returns the ride as stored afterwards.
func (s *Service) transition(ctx context.Context, r *Ride, to Status, actor Party, actorID types.ID, u Update) (*Ride, error) {
	if !CanTransition(r.Status, to) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, r.Status, to)
	}
	u.ID = r.ID
	u.From = r.Status
	u.To = to
	u.Version = r.StatusVersion
	u.At = s.now().UTC()

	ok, err := s.store.UpdateStatus(ctx, u)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.RideConflictsTotal.WithLabelValues(string(to)).Inc()
		return nil, ErrConflict
	}
	observability.RideTransitionsTotal.WithLabelValues(string(to)).Inc()
	s.appendEvent(ctx, r.ID, r.Status, to, actor, actorID, u.At)

	updated, err := s.store.Get(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) appendEvent(ctx context.Context, rideID types.ID, from, to Status, actor Party, actorID types.ID, at time.Time) {
	err := s.store.AppendEvent(ctx, &Event{
		RideID:     rideID,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actor,
		ActorID:    &actorID,
		CreatedAt:  at,
	})
	if err != nil {
		s.log.Warn("append ride event", "ride_id", rideID, "to", to, "err", err)
	}
}

// notify sends ns in order on a background goroutine and never fails the caller.
// The sends outlive the request context.
func (s *Service) notify(ctx context.Context, ns ...notify.Notification) {
	if s.notifier == nil || len(ns) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.sends.Add(1)
	go func() {
		defer s.sends.Done()
		for _, n := range ns {
			if err := s.notifier.Notify(ctx, n); err != nil {
				observability.NotificationFailuresTotal.Inc()
				s.log.Warn("notify", "user_id", n.UserID, "type", n.Type, "err", err)
			}
		}
	}()
}

// Wait blocks until every pending notification has been attempted.
func (s *Service) Wait() {
	s.sends.Wait()
}

func rideMetadata(r *Ride) map[string]string {
	return map[string]string{
		"ride_id":      string(r.ID),
		"passenger_id": string(r.PassengerID),
		"driver_id":    string(r.DriverID),
		"status":       string(r.Status),
	}
}

func labelOr(p types.Place) string {
	if p.Label != "" {
		return p.Label
	}
	return fmt.Sprintf("%.5f,%.5f", p.Point.Lat, p.Point.Lng)
}

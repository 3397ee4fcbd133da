// README: Location service accepts driver position reports and feeds the registry.
package location

import (
	"context"
	"log/slog"
	"time"

	"routecab/internal/logging"
	"routecab/internal/modules/driver"
	"routecab/internal/observability"
	"routecab/internal/types"
)

type DriverLookup interface {
	Get(ctx context.Context, id types.ID) (*driver.Driver, error)
}

type PositionWriter interface {
	SetPosition(ctx context.Context, id types.ID, pos types.Position) error
}

type Publisher interface {
	Publish(ctx context.Context, r Report) error
}

type Service struct {
	drivers   DriverLookup
	positions PositionWriter
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// NewService wires the update path; publisher may be nil.
func NewService(drivers DriverLookup, positions PositionWriter, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		drivers:   drivers,
		positions: positions,
		publisher: publisher,
		log:       logging.OrDefault(log),
		now:       time.Now,
	}
}

// UpdateDriverLocation records the caller's own driver position.
func (s *Service) UpdateDriverLocation(ctx context.Context, cmd UpdateCommand) error {
	p := types.Point{Lat: cmd.Lat, Lng: cmd.Lng}
	if cmd.DriverID == "" || !p.Valid() {
		return ErrInvalidPosition
	}
	d, err := s.drivers.Get(ctx, cmd.DriverID)
	if err != nil {
		return err
	}
	if d.UserID != cmd.CallerID {
		return ErrNotOwner
	}

	r := Report{
		DriverID:   d.ID,
		UserID:     d.UserID,
		Lat:        p.Lat,
		Lng:        p.Lng,
		RecordedAt: s.now().UTC(),
	}
	if err := s.positions.SetPosition(ctx, d.ID, r.Position()); err != nil {
		return err
	}
	observability.LocationUpdatesTotal.Inc()

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, r); err != nil {
			s.log.Warn("publish driver position", "driver_id", d.ID, "err", err)
		}
	}
	return nil
}

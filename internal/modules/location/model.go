// README: Driver position report flowing from the driver client to the registry.
package location

import (
	"fmt"
	"time"

	"routecab/internal/types"
)

var (
	ErrInvalidPosition = fmt.Errorf("%w: invalid coordinates", types.ErrBadRequest)
	ErrNotOwner        = fmt.Errorf("%w: caller does not own this driver", types.ErrUnauthorized)
)

type UpdateCommand struct {
	DriverID types.ID
	CallerID types.ID
	Lat      float64
	Lng      float64
}

// Report is what gets stored and streamed for every accepted update.
type Report struct {
	DriverID   types.ID  `json:"driver_id"`
	UserID     types.ID  `json:"user_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (r Report) Position() types.Position {
	return types.Position{Point: types.Point{Lat: r.Lat, Lng: r.Lng}, RecordedAt: r.RecordedAt}
}

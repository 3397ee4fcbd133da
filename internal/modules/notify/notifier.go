// README: Notification contract the dispatch core emits to; delivery belongs to the implementation.
package notify

import (
	"context"
	"log/slog"

	"routecab/internal/logging"
	"routecab/internal/types"
)

type Type string

const (
	RideRequested            Type = "ride_requested"
	RideAccepted             Type = "ride_accepted"
	RideCancelledByPassenger Type = "ride_cancelled_by_passenger"
	RideCancelledByDriver    Type = "ride_cancelled_by_driver"
	RideCompleted            Type = "ride_completed"
)

type Notification struct {
	UserID   types.ID
	Type     Type
	Title    string
	Message  string
	Metadata map[string]string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log instead of delivering them.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: logging.OrDefault(log)}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.log.InfoContext(ctx, "notification",
		"user_id", n.UserID,
		"type", n.Type,
		"title", n.Title,
		"message", n.Message,
		"metadata", n.Metadata,
	)
	return nil
}

// README: Firebase Cloud Messaging notifier; every user listens on their own topic.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"firebase.google.com/go/v4/messaging"

	"routecab/internal/logging"
)

const sendTimeout = 3 * time.Second

// Sender is the subset of messaging.Client the notifier needs.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type FCMNotifier struct {
	client Sender
	log    *slog.Logger
}

func NewFCMNotifier(client Sender, log *slog.Logger) *FCMNotifier {
	return &FCMNotifier{client: client, log: logging.OrDefault(log)}
}

// UserTopic is the FCM topic a user's devices subscribe to.
func UserTopic(userID string) string {
	return "user_" + userID
}

func (f *FCMNotifier) Notify(ctx context.Context, n Notification) error {
	if n.UserID == "" {
		return fmt.Errorf("notification %s without user", n.Type)
	}
	data := make(map[string]string, len(n.Metadata)+1)
	for k, v := range n.Metadata {
		data[k] = v
	}
	data["type"] = string(n.Type)

	msg := &messaging.Message{
		Topic: UserTopic(string(n.UserID)),
		Data:  data,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	messageID, err := f.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("sending FCM to %s: %w", msg.Topic, err)
	}
	f.log.Debug("fcm sent", "type", n.Type, "user_id", n.UserID, "message_id", messageID)
	return nil
}

package notify

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
)

type stubSender struct {
	sent []*messaging.Message
	err  error
}

func (s *stubSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	s.sent = append(s.sent, m)
	if s.err != nil {
		return "", s.err
	}
	return "msg-1", nil
}

func TestFCMNotifierBuildsTopicMessage(t *testing.T) {
	sender := &stubSender{}
	n := NewFCMNotifier(sender, nil)
	err := n.Notify(context.Background(), Notification{
		UserID:   "p1",
		Type:     RideAccepted,
		Title:    "Ride accepted",
		Message:  "Your driver is on the way",
		Metadata: map[string]string{"ride_id": "r1"},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.sent))
	}
	m := sender.sent[0]
	if m.Topic != "user_p1" {
		t.Errorf("topic = %q", m.Topic)
	}
	if m.Data["type"] != string(RideAccepted) || m.Data["ride_id"] != "r1" {
		t.Errorf("unexpected data %v", m.Data)
	}
	if m.Notification == nil || m.Notification.Title != "Ride accepted" {
		t.Errorf("unexpected notification %+v", m.Notification)
	}
}

func TestFCMNotifierErrors(t *testing.T) {
	sender := &stubSender{err: errors.New("quota")}
	n := NewFCMNotifier(sender, nil)
	if err := n.Notify(context.Background(), Notification{UserID: "p1", Type: RideCompleted}); err == nil {
		t.Fatal("expected send error to surface")
	}
	if err := n.Notify(context.Background(), Notification{Type: RideCompleted}); err == nil {
		t.Fatal("expected error for missing user")
	}
}

func TestLogNotifier(t *testing.T) {
	if err := NewLogNotifier(nil).Notify(context.Background(), Notification{UserID: "d1", Type: RideRequested}); err != nil {
		t.Fatalf("log notifier should never fail: %v", err)
	}
}

package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/config"
	"github.com/agrimart/ordercore/internal/queue"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FirebaseNotifier sends one FCM topic message per recipient
type FirebaseNotifier struct {
	client *messaging.Client
}

// NewFirebaseNotifier initializes the admin SDK
func NewFirebaseNotifier(ctx context.Context, cfg config.NotificationConfig) (*FirebaseNotifier, error) {
	var opts []option.ClientOption
	if file := strings.TrimSpace(cfg.FirebaseCredentialsFile); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: strings.TrimSpace(cfg.FirebaseProjectID)}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return &FirebaseNotifier{client: client}, nil
}

// Notify sends the event to every recipient topic; the first error is returned after all sends
func (n *FirebaseNotifier) Notify(ctx context.Context, event queue.DomainEventPayload) error {
	title, body := Message(event)
	data := map[string]string{
		"type":      event.Name,
		"order_id":  fmt.Sprintf("%d", event.OrderID),
		"timestamp": event.OccurredAt.Format(time.RFC3339),
	}
	for key, value := range event.Data {
		data[key] = fmt.Sprintf("%v", value)
	}

	var firstErr error
	for _, recipient := range event.Recipients {
		msg := &messaging.Message{
			Topic: TopicFor(recipient),
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
			},
		}
		if _, err := n.client.Send(ctx, msg); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("send to %s: %w", recipient, err)
		}
	}
	return firstErr
}

// TopicFor maps a recipient like "vendor:3" to an FCM topic name
func TopicFor(recipient string) string {
	return strings.ReplaceAll(strings.TrimSpace(recipient), ":", "_")
}

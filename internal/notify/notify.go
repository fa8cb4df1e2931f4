package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/agrimart/ordercore/internal/config"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/queue"
)

// Notifier delivers a domain event to the people it concerns
type Notifier interface {
	Notify(ctx context.Context, event queue.DomainEventPayload) error
}

// New picks the notifier configured for this process
func New(ctx context.Context, cfg config.NotificationConfig) (Notifier, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "firebase":
		return NewFirebaseNotifier(ctx, cfg)
	case "", "log":
		return LogNotifier{}, nil
	default:
		return nil, fmt.Errorf("unknown notification provider %q", cfg.Provider)
	}
}

// LogNotifier writes events to the structured log
type LogNotifier struct{}

// Notify logs the event
func (LogNotifier) Notify(_ context.Context, event queue.DomainEventPayload) error {
	logger.Infow("domain_event_delivered",
		"event", event.Name,
		"order_id", event.OrderID,
		"recipients", event.Recipients,
		"data", event.Data,
	)
	return nil
}

// Message renders the human readable title and body of an event
func Message(event queue.DomainEventPayload) (string, string) {
	orderNumber, _ := event.Data["order_number"].(string)
	switch event.Name {
	case "OrderEscalated":
		return "Order escalated", fmt.Sprintf("Order %s needs admin attention", orderNumber)
	case "OrderSplit":
		return "Order partially accepted", fmt.Sprintf("Order %s was split; the accepted part is on its way", orderNumber)
	case "CommissionCredited":
		return "Commission credited", fmt.Sprintf("Commission of ₹%v credited for order %s", event.Data["commission_amount"], orderNumber)
	case "CommissionThresholdCrossed":
		return "Higher commission tier reached", fmt.Sprintf("A referred buyer crossed ₹%v this month", event.Data["threshold"])
	case "GracePeriodExpiring":
		return "Decision window closing", fmt.Sprintf("The %v window on order %s closes soon", event.Data["kind"], orderNumber)
	default:
		return event.Name, orderNumber
	}
}

package service

import (
	"context"
	"time"

	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/metrics"
	"github.com/agrimart/ordercore/internal/queue"
)

// DomainEvent is emitted after the owning transaction commits
type DomainEvent struct {
	Name       string
	OrderID    uint
	Recipients []string
	Data       map[string]interface{}
	OccurredAt time.Time
}

// EventNotifier is the notification collaborator
type EventNotifier interface {
	Notify(ctx context.Context, event queue.DomainEventPayload) error
}

// EventPublisher hands committed events to delivery; it never returns an error
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent)
}

// QueueEventPublisher enqueues events and falls back to direct delivery when the queue is unavailable
type QueueEventPublisher struct {
	queueClient *queue.Client
	notifier    EventNotifier
}

// NewQueueEventPublisher creates the publisher
func NewQueueEventPublisher(queueClient *queue.Client, notifier EventNotifier) *QueueEventPublisher {
	return &QueueEventPublisher{queueClient: queueClient, notifier: notifier}
}

// Publish delivers each event; failures are logged only
func (p *QueueEventPublisher) Publish(ctx context.Context, events ...DomainEvent) {
	if p == nil {
		return
	}
	for _, event := range events {
		payload := event.payload()
		if p.queueClient != nil && p.queueClient.Enabled() {
			err := p.queueClient.EnqueueDomainEvent(payload)
			if err == nil {
				metrics.EventsPublished.WithLabelValues(event.Name, "queue").Inc()
				continue
			}
			logger.Warnw("domain_event_enqueue_failed",
				"event", event.Name,
				"order_id", event.OrderID,
				"error", err,
			)
		}
		if p.notifier == nil {
			continue
		}
		if err := p.notifier.Notify(ctx, payload); err != nil {
			logger.Warnw("domain_event_notify_failed",
				"event", event.Name,
				"order_id", event.OrderID,
				"error", err,
			)
			continue
		}
		metrics.EventsPublished.WithLabelValues(event.Name, "direct").Inc()
	}
}

func (e DomainEvent) payload() queue.DomainEventPayload {
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return queue.DomainEventPayload{
		Name:       e.Name,
		OrderID:    e.OrderID,
		Recipients: e.Recipients,
		Data:       e.Data,
		OccurredAt: occurred,
	}
}

// eventBuffer collects events inside a transaction for publishing after commit
type eventBuffer struct {
	events []DomainEvent
}

func (b *eventBuffer) add(event DomainEvent) {
	if b == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	b.events = append(b.events, event)
}

func (b *eventBuffer) flush(ctx context.Context, publisher EventPublisher) {
	if b == nil || publisher == nil || len(b.events) == 0 {
		return
	}
	publisher.Publish(ctx, b.events...)
	b.events = nil
}

func vendorRecipient(id uint) string { return "vendor:" + uintString(id) }
func sellerRecipient(id uint) string { return "seller:" + uintString(id) }
func userRecipient(id uint) string   { return "user:" + uintString(id) }

const adminRecipient = "admin"

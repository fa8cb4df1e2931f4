package queue

import (
	"encoding/json"
	"time"

	"github.com/agrimart/ordercore/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskGraceWindowExpire expires one grace window
	TaskGraceWindowExpire = constants.TaskGraceWindowExpire
	// TaskDomainEvent delivers one domain event to the notifier
	TaskDomainEvent = constants.TaskDomainEvent
)

// GraceWindowExpirePayload identifies a window; ExpiresAt guards against a window reopened later
type GraceWindowExpirePayload struct {
	OrderID   uint      `json:"order_id"`
	Kind      string    `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DomainEventPayload is a serialized domain event
type DomainEventPayload struct {
	Name       string                 `json:"name"`
	OrderID    uint                   `json:"order_id,omitempty"`
	Recipients []string               `json:"recipients,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NewGraceWindowExpireTask creates a grace expiry task
func NewGraceWindowExpireTask(payload GraceWindowExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGraceWindowExpire, body), nil
}

// NewDomainEventTask creates an event dispatch task
func NewDomainEventTask(payload DomainEventPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDomainEvent, body), nil
}

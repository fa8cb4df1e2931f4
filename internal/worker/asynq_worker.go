package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/provider"
	"github.com/agrimart/ordercore/internal/queue"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer handles queued tasks
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register binds task handlers
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskGraceWindowExpire, c.handleGraceWindowExpire)
	mux.HandleFunc(queue.TaskDomainEvent, c.handleDomainEvent)
}

func (c *Consumer) handleGraceWindowExpire(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_grace_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GraceWindowExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_grace_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || payload.Kind == "" {
		logger.Debugw("worker_grace_expire_skip_invalid_payload", "order_id", payload.OrderID, "kind", payload.Kind)
		return nil
	}
	if c.GraceService == nil {
		logger.Warnw("worker_grace_expire_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	result, err := c.GraceService.ExpireWindow(ctx, payload.OrderID, payload.Kind, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_grace_expire_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_grace_expire_failed",
				"order_id", payload.OrderID,
				"kind", payload.Kind,
				"error", err,
			)
			return err
		}
	}
	if result != nil && result.AlreadyFinalized {
		logger.Debugw("worker_grace_expire_already_closed",
			"order_id", payload.OrderID,
			"kind", payload.Kind,
			"outcome", result.Outcome,
		)
	}
	return nil
}

func (c *Consumer) handleDomainEvent(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_domain_event_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DomainEventPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_domain_event_unmarshal_failed", "error", err)
		return err
	}
	if payload.Name == "" {
		logger.Debugw("worker_domain_event_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.Notifier == nil {
		logger.Warnw("worker_domain_event_skip_notifier_nil", "event", payload.Name)
		return nil
	}
	if err := c.Notifier.Notify(ctx, payload); err != nil {
		logger.Warnw("worker_domain_event_notify_failed",
			"event", payload.Name,
			"order_id", payload.OrderID,
			"error", err,
		)
		return err
	}
	return nil
}

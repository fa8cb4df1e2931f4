package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/config"
	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	DefaultQueue  = constants.QueueDefault
	CriticalQueue = constants.QueueCritical

	graceExpireMaxRetry = 5
	domainEventMaxRetry = 8
	defaultConcurrency  = 10
)

// Client enqueues tasks. The zero value and a disabled config both drop tasks silently,
// which leaves the grace sweeper as the only expiry path.
type Client struct {
	client *asynq.Client
}

// NewClient creates the queue client; a disabled config yields a no-op client
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(RedisOpt(cfg))}, nil
}

// Enabled reports whether tasks are actually enqueued
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close closes the client
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueGraceWindowExpire schedules the expiry of one grace window. The task id is
// derived from the window, so re-scheduling the same window is a no-op.
func (c *Client) EnqueueGraceWindowExpire(payload GraceWindowExpirePayload, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewGraceWindowExpireTask(payload)
	if err != nil {
		return err
	}
	if delay < 0 {
		delay = 0
	}
	return c.enqueue(task,
		asynq.Queue(CriticalQueue),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(graceExpireMaxRetry),
		asynq.TaskID(GraceWindowTaskID(payload)),
	)
}

// EnqueueDomainEvent pushes a domain event for out of band delivery
func (c *Client) EnqueueDomainEvent(payload DomainEventPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewDomainEventTask(payload)
	if err != nil {
		return err
	}
	base := []asynq.Option{asynq.Queue(DefaultQueue), asynq.MaxRetry(domainEventMaxRetry)}
	return c.enqueue(task, append(base, opts...)...)
}

func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	info, err := c.client.Enqueue(task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Debugw("queue_task_duplicate", "type", task.Type())
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	logger.Debugw("queue_task_enqueued", "type", task.Type(), "task_id", info.ID, "queue", info.Queue)
	return nil
}

// GraceWindowTaskID identifies one opening of a grace window
func GraceWindowTaskID(payload GraceWindowExpirePayload) string {
	return fmt.Sprintf("grace:%d:%s:%d", payload.OrderID, payload.Kind, payload.ExpiresAt.Unix())
}

// BuildServerConfig builds the worker server config; task failures are logged through zap
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := defaultConcurrency
	queues := map[string]int{CriticalQueue: 2, DefaultQueue: 1}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return RedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		Logger:      logger.SW("component", "asynq"),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warnw("queue_task_failed",
				"type", task.Type(),
				"retried", retried,
				"max_retry", maxRetry,
				"error", err,
			)
		}),
	}
}

// RedisOpt resolves the queue redis address with local defaults
func RedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}

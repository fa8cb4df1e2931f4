package worker

import (
	"context"
	"errors"
	"time"

	"github.com/agrimart/ordercore/internal/config"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/queue"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/hibiken/asynq"
)

const defaultSweepInterval = time.Minute

// Service runs the asynq server
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService creates the queue worker
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name service name
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start serves tasks until ctx is cancelled; signal handling belongs to the runner
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop waits for in-flight tasks and shuts the server down
func (s *Service) Stop(context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

// Sweeper finalizes expired grace windows on a ticker and announces the ones about to close.
// It runs with or without the queue, so a lost expiry task only delays finalization by one tick.
type Sweeper struct {
	grace    *service.GraceService
	interval time.Duration
}

// NewSweeper creates the sweeper
func NewSweeper(grace *service.GraceService, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{grace: grace, interval: interval}
}

// Name service name
func (s *Sweeper) Name() string { return "grace_sweeper" }

// Start runs until ctx is cancelled
func (s *Sweeper) Start(ctx context.Context) error {
	if s == nil || s.grace == nil {
		return errors.New("sweeper not initialized")
	}
	s.RunOnce(ctx, time.Now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.RunOnce(ctx, now)
		}
	}
}

// Stop is a no-op; Start returns with its context
func (s *Sweeper) Stop(context.Context) error { return nil }

// RunOnce performs one sweep pass
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) {
	finalized, err := s.grace.SweepExpired(ctx, now)
	if err != nil {
		logger.Warnw("worker_grace_sweep_failed", "error", err)
	}
	notified, err := s.grace.NotifyExpiring(ctx, now)
	if err != nil {
		logger.Warnw("worker_grace_notify_failed", "error", err)
	}
	if finalized > 0 || notified > 0 {
		logger.Infow("worker_grace_sweep_done", "finalized", finalized, "notified", notified)
	}
}

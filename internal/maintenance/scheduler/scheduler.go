// Package scheduler drives the time-based sweeps: materializing due
// preventive work orders and expiring subscriptions. The sweeps are
// idempotent, so a retried or concurrently running tick is safe.
package scheduler

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mzeldin/upkeep/internal/maintenance/controller"
	"go.uber.org/zap"
)

type Scheduler struct {
	schedules     *controller.ScheduleService
	subscriptions *controller.SubscriptionService
	interval      time.Duration
	logger        *zap.Logger
}

func New(schedules *controller.ScheduleService, subscriptions *controller.SubscriptionService, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		schedules:     schedules,
		subscriptions: subscriptions,
		interval:      interval,
		logger:        logger.Named("scheduler"),
	}
}

// Run ticks until the context is cancelled. Each tick retries
// transient failures with exponential backoff before giving up until
// the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()

	err := backoff.Retry(func() error {
		created, err := s.schedules.MaterializeDue(ctx, now)
		if err != nil {
			return err
		}
		if created > 0 {
			s.logger.Info("materialized due work orders", zap.Int("created", created))
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx))
	if err != nil {
		s.logger.Error("materialization sweep failed", zap.Error(err))
	}

	err = backoff.Retry(func() error {
		return s.subscriptions.ExpirySweep(ctx, now)
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx))
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))
	}
}

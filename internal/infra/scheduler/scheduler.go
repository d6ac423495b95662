package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DeliveryRunner evaluates recurring schedules once per tick.
type DeliveryRunner interface {
	RunDue(ctx context.Context) error
}

// ItemDeliverer delivers individually scheduled challenge items once per tick.
type ItemDeliverer interface {
	DeliverDue(ctx context.Context) error
}

// BatchSweeper removes expired staged batches.
type BatchSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// DeliveryScheduler owns the process's tick loops: a fixed delivery tick that
// drives both pollers, and a slower sweep for expired staged batches. Cron is
// the cancellable ticker: Stop waits for in-flight jobs before returning.
type DeliveryScheduler struct {
	cronEngine    *cron.Cron
	broadcasts    DeliveryRunner
	challenges    ItemDeliverer
	staging       BatchSweeper
	logger        *logrus.Entry
	tickInterval  time.Duration
	sweepInterval time.Duration
}

func NewDeliveryScheduler(
	broadcasts DeliveryRunner,
	challenges ItemDeliverer,
	staging BatchSweeper,
	logger *logrus.Entry,
	tickInterval time.Duration,
	sweepInterval time.Duration,
) *DeliveryScheduler {
	return &DeliveryScheduler{
		cronEngine:    cron.New(),
		broadcasts:    broadcasts,
		challenges:    challenges,
		staging:       staging,
		logger:        logger,
		tickInterval:  tickInterval,
		sweepInterval: sweepInterval,
	}
}

func (s *DeliveryScheduler) Start() error {
	s.logger.WithFields(logrus.Fields{
		"tick_interval":  s.tickInterval.String(),
		"sweep_interval": s.sweepInterval.String(),
	}).Info("Starting delivery scheduler")

	// One tick drives both the recurring-schedule poller and the item poller.
	_, err := s.cronEngine.AddFunc(fmt.Sprintf("@every %s", s.tickInterval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.tickInterval)
		defer cancel()
		if err := s.broadcasts.RunDue(ctx); err != nil {
			s.logger.WithError(err).Error("Delivery tick failed")
		}
		if err := s.challenges.DeliverDue(ctx); err != nil {
			s.logger.WithError(err).Error("Challenge item tick failed")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add delivery tick job: %w", err)
	}

	_, err = s.cronEngine.AddFunc(fmt.Sprintf("@every %s", s.sweepInterval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.staging.Sweep(ctx); err != nil {
			s.logger.WithError(err).Error("Staged batch sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add sweep job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Delivery scheduler started")
	return nil
}

func (s *DeliveryScheduler) Stop() {
	s.logger.Info("Stopping delivery scheduler...")
	ctx := s.cronEngine.Stop() // Stops scheduling new runs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Delivery scheduler gracefully stopped")
}

// internal/app/broadcast_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"team_challenge_bot/internal/domain/delivery"
	"team_challenge_bot/internal/domain/org"
	"team_challenge_bot/internal/domain/schedule"

	"github.com/sirupsen/logrus"
)

// BroadcastService decides which recurring schedules are due "now" in their
// organization's local time and hands them to the dispatcher. The delivery
// ledger, not the tolerance window, is the idempotency guarantee: the window
// only exists because the tick cannot align exactly with arbitrary local
// times.
type BroadcastService struct {
	schedules  schedule.Repository
	ledger     delivery.Repository
	orgs       org.Directory
	tz         *TimezoneResolver
	dispatcher *DispatchService
	tolerance  time.Duration
	logger     *logrus.Entry
	now        func() time.Time
}

func NewBroadcastService(
	schedules schedule.Repository,
	ledger delivery.Repository,
	orgs org.Directory,
	tz *TimezoneResolver,
	dispatcher *DispatchService,
	tolerance time.Duration,
	logger *logrus.Entry,
) *BroadcastService {
	return &BroadcastService{
		schedules:  schedules,
		ledger:     ledger,
		orgs:       orgs,
		tz:         tz,
		dispatcher: dispatcher,
		tolerance:  tolerance,
		logger:     logger,
		now:        time.Now,
	}
}

// RunDue evaluates every active schedule once. Errors on one schedule are
// logged and the loop continues; that schedule is simply retried on the next
// eligible tick.
func (s *BroadcastService) RunDue(ctx context.Context) error {
	active, err := s.schedules.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active schedules: %w", err)
	}

	now := s.now()
	for _, def := range active {
		if err := s.runSchedule(ctx, def, now); err != nil {
			s.logger.WithError(err).WithField("schedule_id", def.ID).
				Error("Schedule run failed; will retry on a later tick")
		}
	}
	return nil
}

func (s *BroadcastService) runSchedule(ctx context.Context, def *schedule.Definition, now time.Time) error {
	loc := s.tz.Resolve(ctx, def.OrgID)
	nowLocal := now.In(loc)

	if !def.MatchesWeekday(nowLocal.Weekday()) {
		return nil
	}

	hour, minute, err := def.ClockTime()
	if err != nil {
		return fmt.Errorf("schedule has unparseable notify time: %w", err)
	}

	due := LocalInstant(now, hour, minute, loc)
	diff := now.Sub(due)
	if diff < -s.tolerance || diff > s.tolerance {
		return nil
	}

	dayStart, dayEnd := LocalDayBounds(now, loc)
	alreadySent, err := s.ledger.HasSentOnDay(ctx, def.ID, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("ledger check failed: %w", err)
	}
	if alreadySent {
		s.logger.WithField("schedule_id", def.ID).
			Debug("Schedule already delivered today, skipping")
		return nil
	}

	recipients, err := s.orgs.ListDeliverableRecipients(ctx, def.OrgID)
	if err != nil {
		return fmt.Errorf("failed to list recipients for org %d: %w", def.OrgID, err)
	}
	if len(recipients) == 0 {
		s.logger.WithField("schedule_id", def.ID).
			Info("No deliverable recipients, nothing to dispatch")
		return nil
	}

	s.dispatcher.Dispatch(ctx, def, recipients)
	return nil
}

// DeliveryStats exposes the ledger's audit counts for a schedule over the
// organization-local day containing the given instant.
func (s *BroadcastService) DeliveryStats(ctx context.Context, def *schedule.Definition, at time.Time) (sent, failed int, err error) {
	loc := s.tz.Resolve(ctx, def.OrgID)
	dayStart, dayEnd := LocalDayBounds(at, loc)
	return s.ledger.CountOutcomes(ctx, def.ID, dayStart, dayEnd)
}

// internal/app/dispatch_service.go
package app

import (
	"context"
	"database/sql"
	"time"

	"team_challenge_bot/internal/domain/delivery"
	"team_challenge_bot/internal/domain/org"
	"team_challenge_bot/internal/domain/schedule"
	domainTelegram "team_challenge_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// DeliveryRunResult summarizes one fan-out run.
type DeliveryRunResult struct {
	Attempted int
	Sent      int
	Failed    int
}

// DispatchService fans one schedule's content out to a recipient set.
// Sends are strictly sequential with a short pause between messages and a
// longer pause after every batch, keeping the outbound rate under the
// transport's throughput limits. A failed send never stops the run; every
// attempted recipient gets exactly one ledger entry.
type DispatchService struct {
	ledger         delivery.Repository
	telegramClient domainTelegram.Client
	messageDelay   time.Duration
	batchSize      int
	batchDelay     time.Duration
	logger         *logrus.Entry
}

func NewDispatchService(
	ledger delivery.Repository,
	tc domainTelegram.Client,
	messageDelay time.Duration,
	batchSize int,
	batchDelay time.Duration,
	logger *logrus.Entry,
) *DispatchService {
	return &DispatchService{
		ledger:         ledger,
		telegramClient: tc,
		messageDelay:   messageDelay,
		batchSize:      batchSize,
		batchDelay:     batchDelay,
		logger:         logger,
	}
}

// Dispatch delivers the schedule's body to every recipient in order.
func (s *DispatchService) Dispatch(ctx context.Context, def *schedule.Definition, recipients []*org.Recipient) DeliveryRunResult {
	result := DeliveryRunResult{}
	runLogger := s.logger.WithFields(logrus.Fields{
		"schedule_id": def.ID,
		"org_id":      def.OrgID,
		"recipients":  len(recipients),
	})
	runLogger.Info("Dispatch run started")

	for i, rcpt := range recipients {
		if i > 0 {
			if s.batchSize > 0 && i%s.batchSize == 0 {
				time.Sleep(s.batchDelay)
			} else {
				time.Sleep(s.messageDelay)
			}
		}

		result.Attempted++
		entry := &delivery.LogEntry{
			ScheduleID:  def.ID,
			RecipientID: rcpt.ID,
		}

		sendErr := s.telegramClient.SendMessage(rcpt.ChatID.Int64, def.Body, nil)
		if sendErr != nil {
			result.Failed++
			entry.Outcome = delivery.OutcomeFailed
			entry.ErrorText = sql.NullString{String: sendErr.Error(), Valid: true}
			runLogger.WithError(sendErr).WithField("recipient_id", rcpt.ID).
				Warn("Failed to deliver schedule message; continuing with remaining recipients")
		} else {
			result.Sent++
			entry.Outcome = delivery.OutcomeSent
		}

		if err := s.ledger.Record(ctx, entry); err != nil {
			// The audit entry is lost but the run must go on.
			runLogger.WithError(err).WithField("recipient_id", rcpt.ID).
				Error("Failed to record delivery log entry")
		}
	}

	runLogger.WithFields(logrus.Fields{"sent": result.Sent, "failed": result.Failed}).
		Info("Dispatch run finished")
	return result
}

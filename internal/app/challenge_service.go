// internal/app/challenge_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"team_challenge_bot/internal/domain/challenge"
	"team_challenge_bot/internal/domain/org"
	domainTelegram "team_challenge_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Custom application-level errors for the challenge lifecycle
var ErrChallengeTerminal = fmt.Errorf("challenge item is in a terminal state and accepts no further transitions")
var ErrChallengeStateConflict = fmt.Errorf("requested transition is not allowed from the challenge item's current state")

// SlotTimes maps each coarse time-of-day slot to a local wall-clock hour and
// minute used during batch promotion.
type SlotTimes map[challenge.Slot]struct{ Hour, Minute int }

// NewSlotTimes builds the slot mapping from "HH:MM" strings.
func NewSlotTimes(morning, afternoon, evening string) (SlotTimes, error) {
	st := SlotTimes{}
	for slot, raw := range map[challenge.Slot]string{
		challenge.SlotMorning:   morning,
		challenge.SlotAfternoon: afternoon,
		challenge.SlotEvening:   evening,
	} {
		t, err := time.Parse("15:04", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid clock time %q for slot %s: %w", raw, slot, err)
		}
		st[slot] = struct{ Hour, Minute int }{t.Hour(), t.Minute()}
	}
	return st, nil
}

// ChallengeService governs the lifecycle of challenge items from creation
// through delivery to completion or failure, including promotion of staged
// batches into concrete scheduled items.
type ChallengeService struct {
	items          challenge.ItemRepository
	staging        *StagingService
	orgs           org.Directory
	tz             *TimezoneResolver
	telegramClient domainTelegram.Client
	awarder        challenge.PointAwarder
	slots          SlotTimes
	logger         *logrus.Entry
	now            func() time.Time
}

func NewChallengeService(
	items challenge.ItemRepository,
	staging *StagingService,
	orgs org.Directory,
	tz *TimezoneResolver,
	tc domainTelegram.Client,
	awarder challenge.PointAwarder,
	slots SlotTimes,
	logger *logrus.Entry,
) *ChallengeService {
	return &ChallengeService{
		items:          items,
		staging:        staging,
		orgs:           orgs,
		tz:             tz,
		telegramClient: tc,
		awarder:        awarder,
		slots:          slots,
		logger:         logger,
		now:            time.Now,
	}
}

// CreateImmediate creates a PENDING item and sends its text to the recipient
// right away.
func (s *ChallengeService) CreateImmediate(ctx context.Context, creatorID int64, rcpt *org.Recipient, cand challenge.Candidate) (*challenge.Item, error) {
	item := s.itemFromCandidate(creatorID, rcpt.ID, cand)
	item.Status = challenge.StatusPending

	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create challenge item: %w", err)
	}

	if err := s.telegramClient.SendMessage(rcpt.ChatID.Int64, s.formatChallengeText(item), nil); err != nil {
		s.logger.WithError(err).WithField("item_id", item.ID).
			Warn("Failed to deliver immediate challenge message")
		return item, nil
	}
	item.SentAt = sql.NullTime{Time: s.now().UTC(), Valid: true}
	if err := s.items.Update(ctx, item); err != nil {
		s.logger.WithError(err).WithField("item_id", item.ID).Error("Failed to stamp sent_at on immediate challenge")
	}
	return item, nil
}

// Offer creates an OFFERED item and proposes it to the recipient with
// accept/decline buttons.
func (s *ChallengeService) Offer(ctx context.Context, creatorID int64, rcpt *org.Recipient, cand challenge.Candidate) (*challenge.Item, error) {
	item := s.itemFromCandidate(creatorID, rcpt.ID, cand)
	item.Status = challenge.StatusOffered

	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create offered challenge item: %w", err)
	}

	replyMarkup := &telebot.ReplyMarkup{ResizeKeyboard: true}
	btnAccept := replyMarkup.Data("Принять", fmt.Sprintf("chl_accept_%d", item.ID))
	btnDecline := replyMarkup.Data("Отклонить", fmt.Sprintf("chl_decline_%d", item.ID))
	replyMarkup.Inline(replyMarkup.Row(btnAccept, btnDecline))

	messageText := fmt.Sprintf("Новый челлендж для вас:\n\n%s\n\nПринимаете?", s.formatChallengeText(item))
	if err := s.telegramClient.SendMessage(rcpt.ChatID.Int64, messageText, &telebot.SendOptions{ReplyMarkup: replyMarkup}); err != nil {
		s.logger.WithError(err).WithField("item_id", item.ID).Warn("Failed to deliver challenge offer")
	}
	return item, nil
}

// Accept moves an OFFERED item to ACTIVE, optionally replacing its text with
// the recipient's own wording.
func (s *ChallengeService) Accept(ctx context.Context, itemID int64, replacementText string) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if replacementText != "" {
		item.Text = replacementText
	}
	return s.transition(ctx, item, challenge.StatusActive)
}

// Decline returns an OFFERED item to the PENDING pool.
func (s *ChallengeService) Decline(ctx context.Context, itemID int64) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	return s.transition(ctx, item, challenge.StatusPending)
}

// Complete marks a PENDING or ACTIVE item done and triggers the external
// point award. An award failure is logged; the completion stands.
func (s *ChallengeService) Complete(ctx context.Context, itemID int64) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if err := s.transition(ctx, item, challenge.StatusCompleted); err != nil {
		return err
	}

	if err := s.awarder.Award(ctx, item.RecipientID, item.Points); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"item_id": item.ID, "points": item.Points}).
			Error("Failed to award points for completed challenge")
	}
	return nil
}

// Cancel moves any non-terminal item to FAILED.
func (s *ChallengeService) Cancel(ctx context.Context, itemID int64) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	return s.transition(ctx, item, challenge.StatusFailed)
}

// transition applies a guarded state change. Illegal transitions are rejected
// and logged with no partial mutation.
func (s *ChallengeService) transition(ctx context.Context, item *challenge.Item, next challenge.Status) error {
	if item.Status.IsTerminal() {
		s.logger.WithFields(logrus.Fields{"item_id": item.ID, "status": item.Status, "requested": next}).
			Warn("Rejected mutation of terminal challenge item")
		return ErrChallengeTerminal
	}
	if !item.Status.CanTransitionTo(next) {
		s.logger.WithFields(logrus.Fields{"item_id": item.ID, "status": item.Status, "requested": next}).
			Warn("Rejected illegal challenge state transition")
		return ErrChallengeStateConflict
	}

	item.Status = next
	if err := s.items.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to persist challenge transition to %s: %w", next, err)
	}
	s.logger.WithFields(logrus.Fields{"item_id": item.ID, "status": next}).Info("Challenge item transitioned")
	return nil
}

// PromoteBatch turns the owner's staged batch into concrete SCHEDULED items:
// one per candidate x deliverable recipient, each with scheduled_for resolved
// from the candidate's slot in the organization's local time. A slot whose
// local instant has already passed today rolls forward to tomorrow. The batch
// is destroyed on success.
func (s *ChallengeService) PromoteBatch(ctx context.Context, ownerID int64) (int, error) {
	batch, err := s.staging.Get(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	loc := s.tz.Resolve(ctx, batch.OrgID)
	recipients, err := s.orgs.ListDeliverableRecipients(ctx, batch.OrgID)
	if err != nil {
		return 0, fmt.Errorf("failed to list recipients for promotion: %w", err)
	}
	if len(recipients) == 0 {
		return 0, fmt.Errorf("organization %d has no deliverable recipients", batch.OrgID)
	}

	now := s.now()
	items := make([]*challenge.Item, 0, len(batch.Candidates)*len(recipients))
	for _, cand := range batch.Candidates {
		scheduledFor := s.resolveSlotInstant(cand.TimeSlot, now, loc)
		for _, rcpt := range recipients {
			item := s.itemFromCandidate(batch.OwnerID, rcpt.ID, cand)
			item.Status = challenge.StatusScheduled
			item.ScheduledFor = sql.NullTime{Time: scheduledFor, Valid: true}
			items = append(items, item)
		}
	}

	if err := s.items.BulkCreate(ctx, items); err != nil {
		if _, markErr := s.staging.UpdateStatus(ctx, batch.ID, challenge.BatchStatusError); markErr != nil {
			s.logger.WithError(markErr).WithField("batch_id", batch.ID).Error("Failed to mark batch as errored")
		}
		return 0, fmt.Errorf("failed to create scheduled challenge items: %w", err)
	}

	if err := s.staging.batches.Delete(ctx, batch.ID); err != nil {
		s.logger.WithError(err).WithField("batch_id", batch.ID).
			Error("Promoted batch could not be removed from staging; the sweeper will collect it")
	}

	s.logger.WithFields(logrus.Fields{
		"batch_id":   batch.ID,
		"owner_id":   ownerID,
		"items":      len(items),
		"recipients": len(recipients),
	}).Info("Staged batch promoted to scheduled challenge items")
	return len(items), nil
}

// resolveSlotInstant maps a slot to today's local wall-clock instant, rolling
// to tomorrow if that instant is already past, and returns it in UTC.
func (s *ChallengeService) resolveSlotInstant(slot challenge.Slot, now time.Time, loc *time.Location) time.Time {
	clock, ok := s.slots[slot]
	if !ok {
		s.logger.WithField("time_slot", slot).Warn("Unknown time slot, defaulting to morning")
		clock = s.slots[challenge.SlotMorning]
	}
	local := LocalInstant(now, clock.Hour, clock.Minute, loc)
	if !local.After(now) {
		local = local.AddDate(0, 0, 1)
	}
	return local.UTC()
}

// DeliverDue delivers every SCHEDULED item whose instant has arrived. Success
// stamps sent_at and returns the item to PENDING; failure is terminal for the
// item. There are no retries.
func (s *ChallengeService) DeliverDue(ctx context.Context) error {
	due, err := s.items.ListDue(ctx, s.now())
	if err != nil {
		return fmt.Errorf("failed to list due challenge items: %w", err)
	}

	for _, item := range due {
		if err := s.deliverItem(ctx, item); err != nil {
			s.logger.WithError(err).WithField("item_id", item.ID).
				Error("Failed to process due challenge item")
		}
	}
	return nil
}

func (s *ChallengeService) deliverItem(ctx context.Context, item *challenge.Item) error {
	rcpt, err := s.orgs.GetRecipient(ctx, item.RecipientID)
	if err == nil && !rcpt.Deliverable() {
		err = fmt.Errorf("recipient %d has no deliverable endpoint", item.RecipientID)
	}

	var sendErr error
	if err != nil {
		sendErr = err
	} else {
		sendErr = s.telegramClient.SendMessage(rcpt.ChatID.Int64, s.formatChallengeText(item), nil)
	}

	if sendErr != nil {
		s.logger.WithError(sendErr).WithField("item_id", item.ID).
			Warn("Scheduled challenge delivery failed; marking item as failed")
		return s.transition(ctx, item, challenge.StatusFailed)
	}

	item.SentAt = sql.NullTime{Time: s.now().UTC(), Valid: true}
	return s.transition(ctx, item, challenge.StatusPending)
}

func (s *ChallengeService) itemFromCandidate(creatorID, recipientID int64, cand challenge.Candidate) *challenge.Item {
	item := &challenge.Item{
		RecipientID: recipientID,
		CreatorID:   creatorID,
		Text:        cand.Text,
		Points:      cand.Points,
		Difficulty:  cand.Difficulty,
		Duration:    cand.Duration,
		FocusArea:   cand.FocusArea,
	}
	if cand.TimeSlot != "" {
		item.TimeSlot = sql.NullString{String: string(cand.TimeSlot), Valid: true}
	}
	return item
}

func (s *ChallengeService) formatChallengeText(item *challenge.Item) string {
	if item.Points > 0 {
		return fmt.Sprintf("%s (%d очков)", item.Text, item.Points)
	}
	return item.Text
}

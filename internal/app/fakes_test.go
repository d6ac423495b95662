package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"team_challenge_bot/internal/domain/challenge"
	"team_challenge_bot/internal/domain/delivery"
	"team_challenge_bot/internal/domain/org"
	"team_challenge_bot/internal/domain/schedule"
	idb "team_challenge_bot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// testLogger returns a silenced logrus entry for service construction.
func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// --- fake org directory ---

type fakeDirectory struct {
	timezones  map[int64]string
	tzErr      error
	recipients map[int64][]*org.Recipient
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		timezones:  make(map[int64]string),
		recipients: make(map[int64][]*org.Recipient),
	}
}

func (f *fakeDirectory) GetTimezone(_ context.Context, orgID int64) (string, error) {
	if f.tzErr != nil {
		return "", f.tzErr
	}
	tz, ok := f.timezones[orgID]
	if !ok {
		return "", idb.ErrOrganizationNotFound
	}
	return tz, nil
}

func (f *fakeDirectory) GetRecipient(_ context.Context, id int64) (*org.Recipient, error) {
	for _, list := range f.recipients {
		for _, r := range list {
			if r.ID == id {
				return r, nil
			}
		}
	}
	return nil, idb.ErrRecipientNotFound
}

func (f *fakeDirectory) ListDeliverableRecipients(_ context.Context, orgID int64) ([]*org.Recipient, error) {
	out := make([]*org.Recipient, 0)
	for _, r := range f.recipients[orgID] {
		if r.Deliverable() {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- fake delivery ledger ---

type fakeLedger struct {
	entries   []*delivery.LogEntry
	recordErr error
	nextID    int64
	now       func() time.Time
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{now: time.Now}
}

func (f *fakeLedger) Record(_ context.Context, entry *delivery.LogEntry) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.nextID++
	entry.ID = f.nextID
	entry.SentAt = f.now().UTC()
	stored := *entry
	f.entries = append(f.entries, &stored)
	return nil
}

func (f *fakeLedger) HasSentOnDay(_ context.Context, scheduleID int64, from, to time.Time) (bool, error) {
	for _, e := range f.entries {
		if e.ScheduleID == scheduleID && e.Outcome == delivery.OutcomeSent &&
			!e.SentAt.Before(from) && e.SentAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) CountOutcomes(_ context.Context, scheduleID int64, from, to time.Time) (sent, failed int, err error) {
	for _, e := range f.entries {
		if e.ScheduleID != scheduleID || e.SentAt.Before(from) || !e.SentAt.Before(to) {
			continue
		}
		if e.Outcome == delivery.OutcomeSent {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed, nil
}

// --- fake schedule repository ---

type fakeScheduleRepo struct {
	defs   map[int64]*schedule.Definition
	nextID int64
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{defs: make(map[int64]*schedule.Definition)}
}

func (f *fakeScheduleRepo) Create(_ context.Context, def *schedule.Definition) error {
	f.nextID++
	def.ID = f.nextID
	def.CreatedAt = time.Now()
	def.UpdatedAt = def.CreatedAt
	stored := *def
	f.defs[def.ID] = &stored
	return nil
}

func (f *fakeScheduleRepo) GetByID(_ context.Context, id int64) (*schedule.Definition, error) {
	def, ok := f.defs[id]
	if !ok {
		return nil, idb.ErrScheduleNotFound
	}
	cp := *def
	return &cp, nil
}

func (f *fakeScheduleRepo) Update(_ context.Context, def *schedule.Definition) error {
	if _, ok := f.defs[def.ID]; !ok {
		return idb.ErrScheduleNotFound
	}
	def.UpdatedAt = time.Now()
	stored := *def
	f.defs[def.ID] = &stored
	return nil
}

func (f *fakeScheduleRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.defs[id]; !ok {
		return idb.ErrScheduleNotFound
	}
	delete(f.defs, id)
	return nil
}

func (f *fakeScheduleRepo) sortedByOrg(orgID int64) []*schedule.Definition {
	out := make([]*schedule.Definition, 0)
	for _, def := range f.defs {
		if def.OrgID == orgID {
			cp := *def
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].NotifyTime < out[j].NotifyTime
	})
	return out
}

func (f *fakeScheduleRepo) ListActive(_ context.Context) ([]*schedule.Definition, error) {
	out := make([]*schedule.Definition, 0)
	for _, def := range f.defs {
		if def.Status == schedule.StatusActive {
			cp := *def
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeScheduleRepo) ListPage(_ context.Context, orgID int64, offset, limit int) ([]*schedule.Definition, error) {
	all := f.sortedByOrg(orgID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakeScheduleRepo) CountByOrg(_ context.Context, orgID int64) (int, error) {
	return len(f.sortedByOrg(orgID)), nil
}

// --- fake challenge item repository ---

type fakeItemRepo struct {
	items  map[int64]*challenge.Item
	nextID int64
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[int64]*challenge.Item)}
}

func (f *fakeItemRepo) Create(_ context.Context, item *challenge.Item) error {
	f.nextID++
	item.ID = f.nextID
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	stored := *item
	f.items[item.ID] = &stored
	return nil
}

func (f *fakeItemRepo) BulkCreate(ctx context.Context, items []*challenge.Item) error {
	for _, item := range items {
		if err := f.Create(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeItemRepo) GetByID(_ context.Context, id int64) (*challenge.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, idb.ErrChallengeNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeItemRepo) Update(_ context.Context, item *challenge.Item) error {
	if _, ok := f.items[item.ID]; !ok {
		return idb.ErrChallengeNotFound
	}
	item.UpdatedAt = time.Now()
	stored := *item
	f.items[item.ID] = &stored
	return nil
}

func (f *fakeItemRepo) ListDue(_ context.Context, before time.Time) ([]*challenge.Item, error) {
	out := make([]*challenge.Item, 0)
	for _, item := range f.items {
		if item.Status == challenge.StatusScheduled && !item.SentAt.Valid &&
			item.ScheduledFor.Valid && !item.ScheduledFor.Time.After(before) {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Time.Before(out[j].ScheduledFor.Time) })
	return out, nil
}

// --- fake staged batch repository ---

type fakeBatchRepo struct {
	batches map[uuid.UUID]*challenge.StagedBatch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[uuid.UUID]*challenge.StagedBatch)}
}

func (f *fakeBatchRepo) Insert(_ context.Context, batch *challenge.StagedBatch) error {
	batch.CreatedAt = time.Now()
	stored := *batch
	f.batches[batch.ID] = &stored
	return nil
}

func (f *fakeBatchRepo) DeletePendingByOwner(_ context.Context, ownerID int64) error {
	for id, b := range f.batches {
		if b.OwnerID == ownerID && b.Status == challenge.BatchStatusPending {
			delete(f.batches, id)
		}
	}
	return nil
}

func (f *fakeBatchRepo) GetNewestPendingByOwner(_ context.Context, ownerID int64) (*challenge.StagedBatch, error) {
	var newest *challenge.StagedBatch
	for _, b := range f.batches {
		if b.OwnerID != ownerID || b.Status != challenge.BatchStatusPending {
			continue
		}
		if newest == nil || b.CreatedAt.After(newest.CreatedAt) {
			newest = b
		}
	}
	if newest == nil {
		return nil, idb.ErrBatchNotFound
	}
	cp := *newest
	return &cp, nil
}

func (f *fakeBatchRepo) UpdateStatus(_ context.Context, id uuid.UUID, status challenge.BatchStatus) (bool, error) {
	b, ok := f.batches[id]
	if !ok {
		return false, nil
	}
	b.Status = status
	return true, nil
}

func (f *fakeBatchRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.batches[id]; !ok {
		return idb.ErrBatchNotFound
	}
	delete(f.batches, id)
	return nil
}

func (f *fakeBatchRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var count int64
	for id, b := range f.batches {
		if !b.ExpiresAt.After(before) {
			delete(f.batches, id)
			count++
		}
	}
	return count, nil
}

// --- fake telegram client ---

type sentMessage struct {
	chatID int64
	text   string
}

type fakeTelegramClient struct {
	sent    []sentMessage
	failFor map[int64]error
}

func newFakeTelegramClient() *fakeTelegramClient {
	return &fakeTelegramClient{failFor: make(map[int64]error)}
}

func (f *fakeTelegramClient) SendMessage(chatID int64, text string, _ *telebot.SendOptions) error {
	if err, ok := f.failFor[chatID]; ok {
		return err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

// --- fake point awarder ---

type fakeAwarder struct {
	awards map[int64]int
	err    error
}

func newFakeAwarder() *fakeAwarder {
	return &fakeAwarder{awards: make(map[int64]int)}
}

func (f *fakeAwarder) Award(_ context.Context, recipientID int64, points int) error {
	if f.err != nil {
		return f.err
	}
	f.awards[recipientID] += points
	return nil
}

var errSendRefused = fmt.Errorf("transport refused the message")

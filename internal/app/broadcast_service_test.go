package app

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"team_challenge_bot/internal/domain/delivery"
	"team_challenge_bot/internal/domain/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type broadcastFixture struct {
	service *BroadcastService
	ledger  *fakeLedger
	client  *fakeTelegramClient
	repo    *fakeScheduleRepo
	dir     *fakeDirectory
}

func newBroadcastFixture(t *testing.T) *broadcastFixture {
	t.Helper()

	dir := newFakeDirectory()
	dir.timezones[1] = "Europe/Moscow"
	dir.recipients[1] = testRecipients(101, 102, 103)

	ledger := newFakeLedger()
	client := newFakeTelegramClient()
	repo := newFakeScheduleRepo()

	resolver := NewTimezoneResolver(dir, time.UTC, testLogger())
	dispatcher := newTestDispatcher(ledger, client)
	service := NewBroadcastService(repo, ledger, dir, resolver, dispatcher, 5*time.Minute, testLogger())

	return &broadcastFixture{service: service, ledger: ledger, client: client, repo: repo, dir: dir}
}

func (f *broadcastFixture) setNow(at time.Time) {
	f.service.now = func() time.Time { return at }
	f.ledger.now = func() time.Time { return at }
}

func activeDailySchedule(orgID int64, notifyTime string) *schedule.Definition {
	return &schedule.Definition{
		OrgID:      orgID,
		Title:      "morning_greeting",
		Body:       "Доброе утро!",
		NotifyTime: notifyTime,
		IsDaily:    true,
		Status:     schedule.StatusActive,
	}
}

// End-to-end scenario: Moscow schedule at local 09:00 (= 06:00 UTC), tick at
// 06:02 UTC dispatches to 3 recipients (one failing); a second tick at 06:05
// the same day performs no dispatch.
func TestRunDue_EndToEndMoscowScenario(t *testing.T) {
	f := newBroadcastFixture(t)
	f.client.failFor[102] = errSendRefused
	require.NoError(t, f.repo.Create(context.Background(), activeDailySchedule(1, "09:00")))

	f.setNow(time.Date(2025, 6, 10, 6, 2, 0, 0, time.UTC))
	require.NoError(t, f.service.RunDue(context.Background()))

	require.Len(t, f.ledger.entries, 3)
	assert.Equal(t, delivery.OutcomeSent, f.ledger.entries[0].Outcome)
	assert.Equal(t, delivery.OutcomeFailed, f.ledger.entries[1].Outcome)
	assert.Equal(t, delivery.OutcomeSent, f.ledger.entries[2].Outcome)

	// Second tick inside the tolerance window: the ledger, not the window,
	// prevents the duplicate dispatch.
	f.setNow(time.Date(2025, 6, 10, 6, 5, 0, 0, time.UTC))
	require.NoError(t, f.service.RunDue(context.Background()))

	assert.Len(t, f.ledger.entries, 3, "no further entries on the idempotent tick")
	assert.Len(t, f.client.sent, 2, "no further sends on the idempotent tick")
}

func TestRunDue_OutsideToleranceWindow(t *testing.T) {
	f := newBroadcastFixture(t)
	require.NoError(t, f.repo.Create(context.Background(), activeDailySchedule(1, "09:00")))

	// 09:00 Moscow is 06:00 UTC; 06:10 UTC is past the ±5m window.
	f.setNow(time.Date(2025, 6, 10, 6, 10, 0, 0, time.UTC))
	require.NoError(t, f.service.RunDue(context.Background()))
	assert.Empty(t, f.ledger.entries)

	// 05:50 UTC is too early.
	f.setNow(time.Date(2025, 6, 10, 5, 50, 0, 0, time.UTC))
	require.NoError(t, f.service.RunDue(context.Background()))
	assert.Empty(t, f.ledger.entries)
}

func TestRunDue_WeeklyRecurrence(t *testing.T) {
	f := newBroadcastFixture(t)
	def := activeDailySchedule(1, "09:00")
	def.IsDaily = false
	def.DayOfWeek = sql.NullInt16{Int16: 2, Valid: true} // Tuesday
	require.NoError(t, f.repo.Create(context.Background(), def))

	// 2025-06-10 is a Tuesday in Moscow.
	f.setNow(time.Date(2025, 6, 10, 6, 0, 0, 0, time.UTC))
	require.NoError(t, f.service.RunDue(context.Background()))
	assert.Len(t, f.ledger.entries, 3)

	// The following Wednesday must not match.
	f.ledger.entries = nil
	f.setNow(time.Date(2025, 6, 11, 6, 0, 0, 0, time.UTC))
	require.NoError(t, f.service.RunDue(context.Background()))
	assert.Empty(t, f.ledger.entries)
}

func TestRunDue_InactiveSchedulesSkipped(t *testing.T) {
	f := newBroadcastFixture(t)
	def := activeDailySchedule(1, "09:00")
	def.Status = schedule.StatusInactive
	require.NoError(t, f.repo.Create(context.Background(), def))

	f.setNow(time.Date(2025, 6, 10, 6, 0, 0, 0, time.UTC))
	require.NoError(t, f.service.RunDue(context.Background()))
	assert.Empty(t, f.ledger.entries)
}

func TestRunDue_FallbackTimezoneForUnknownOrg(t *testing.T) {
	f := newBroadcastFixture(t)
	f.dir.recipients[2] = testRecipients(201)
	// Org 2 has no registered timezone; the resolver falls back to UTC here.
	require.NoError(t, f.repo.Create(context.Background(), activeDailySchedule(2, "09:00")))

	f.setNow(time.Date(2025, 6, 10, 9, 1, 0, 0, time.UTC))
	require.NoError(t, f.service.RunDue(context.Background()))
	assert.Len(t, f.ledger.entries, 1)
}

func TestDeliveryStats(t *testing.T) {
	f := newBroadcastFixture(t)
	f.client.failFor[102] = errSendRefused
	require.NoError(t, f.repo.Create(context.Background(), activeDailySchedule(1, "09:00")))

	at := time.Date(2025, 6, 10, 6, 2, 0, 0, time.UTC)
	f.setNow(at)
	require.NoError(t, f.service.RunDue(context.Background()))

	def, err := f.repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	sent, failed, err := f.service.DeliveryStats(context.Background(), def, at)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, failed)
}

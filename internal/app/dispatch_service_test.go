package app

import (
	"context"
	"database/sql"
	"testing"

	"team_challenge_bot/internal/domain/delivery"
	"team_challenge_bot/internal/domain/org"
	"team_challenge_bot/internal/domain/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecipients(chatIDs ...int64) []*org.Recipient {
	out := make([]*org.Recipient, 0, len(chatIDs))
	for i, chatID := range chatIDs {
		out = append(out, &org.Recipient{
			ID:       int64(i + 1),
			OrgID:    1,
			IsActive: true,
			ChatID:   sql.NullInt64{Int64: chatID, Valid: true},
		})
	}
	return out
}

func newTestDispatcher(ledger *fakeLedger, client *fakeTelegramClient) *DispatchService {
	// Zero delays keep the pacing code on its normal path without slowing tests.
	return NewDispatchService(ledger, client, 0, 2, 0, testLogger())
}

func TestDispatch_AllSucceed(t *testing.T) {
	ledger := newFakeLedger()
	client := newFakeTelegramClient()
	dispatcher := newTestDispatcher(ledger, client)

	def := &schedule.Definition{ID: 7, OrgID: 1, Body: "Доброе утро, команда!"}
	result := dispatcher.Dispatch(context.Background(), def, testRecipients(101, 102, 103))

	assert.Equal(t, DeliveryRunResult{Attempted: 3, Sent: 3, Failed: 0}, result)
	assert.Len(t, client.sent, 3)
	require.Len(t, ledger.entries, 3)
	for _, entry := range ledger.entries {
		assert.Equal(t, delivery.OutcomeSent, entry.Outcome)
		assert.Equal(t, int64(7), entry.ScheduleID)
		assert.False(t, entry.SentAt.IsZero())
	}
}

func TestDispatch_OneFailureIsIsolated(t *testing.T) {
	ledger := newFakeLedger()
	client := newFakeTelegramClient()
	client.failFor[102] = errSendRefused
	dispatcher := newTestDispatcher(ledger, client)

	def := &schedule.Definition{ID: 7, OrgID: 1, Body: "text"}
	result := dispatcher.Dispatch(context.Background(), def, testRecipients(101, 102, 103))

	assert.Equal(t, DeliveryRunResult{Attempted: 3, Sent: 2, Failed: 1}, result)

	// Exactly one ledger entry per attempted recipient, failure included.
	require.Len(t, ledger.entries, 3)
	assert.Equal(t, delivery.OutcomeSent, ledger.entries[0].Outcome)
	assert.Equal(t, delivery.OutcomeFailed, ledger.entries[1].Outcome)
	assert.Equal(t, delivery.OutcomeSent, ledger.entries[2].Outcome)
	assert.Equal(t, errSendRefused.Error(), ledger.entries[1].ErrorText.String)

	// The failing recipient never blocks the ones after it.
	assert.Equal(t, []sentMessage{{chatID: 101, text: "text"}, {chatID: 103, text: "text"}}, client.sent)
}

func TestDispatch_LedgerWriteFailureDoesNotAbortRun(t *testing.T) {
	ledger := newFakeLedger()
	ledger.recordErr = errSendRefused
	client := newFakeTelegramClient()
	dispatcher := newTestDispatcher(ledger, client)

	def := &schedule.Definition{ID: 7, OrgID: 1, Body: "text"}
	result := dispatcher.Dispatch(context.Background(), def, testRecipients(101, 102))

	assert.Equal(t, 2, result.Attempted)
	assert.Len(t, client.sent, 2, "sends continue even when the ledger is down")
}

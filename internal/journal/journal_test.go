package journal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := New(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	require.NoError(t, j.RunMigrations())
	return j
}

func testSession() domain.PaymentSession {
	return domain.PaymentSession{GatewayOrderID: "order_ABC", AmountMinorUnits: 83000, BackendOrderID: 99}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	j := setupJournal(t)

	assert.NoError(t, j.RunMigrations())
}

func TestRecordSessionAndOutcome(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	require.NoError(t, j.RecordSession(ctx, 5, testSession()))

	s, err := j.GetSession(ctx, "order_ABC")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, s.Status)
	assert.Equal(t, int64(83000), s.AmountMinorUnits)
	assert.Equal(t, int64(5), s.UserID)
	assert.False(t, s.CreatedAt.IsZero())

	require.NoError(t, j.RecordOutcome(ctx, "order_ABC", StatusCompleted, "pay_1", ""))

	s, err = j.GetSession(ctx, "order_ABC")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, "pay_1", s.PaymentID)
}

func TestRecordOutcome_UnknownSession(t *testing.T) {
	j := setupJournal(t)

	err := j.RecordOutcome(context.Background(), "order_missing", StatusFailed, "", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = j.GetSession(context.Background(), "order_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRecordSettlementFailure_QueuesOutboxEvent(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()
	require.NoError(t, j.RecordSession(ctx, 5, testSession()))

	err := j.RecordSettlementFailure(ctx, SettlementFailure{
		GatewayOrderID: "order_ABC",
		BackendOrderID: 99,
		UserID:         5,
		PaymentID:      "pay_1",
		Status:         domain.PaymentStatusCompleted,
		Reason:         "Network error",
	})
	require.NoError(t, err)

	s, err := j.GetSession(ctx, "order_ABC")
	require.NoError(t, err)
	assert.Equal(t, StatusUnsettled, s.Status)
	assert.Equal(t, int64(83000), s.AmountMinorUnits)

	events, err := j.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "order_ABC", events[0].AggregateID)
	assert.Equal(t, EventSettlementFailed, events[0].EventType)

	var payload SettlementFailure
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, "pay_1", payload.PaymentID)
	assert.Equal(t, domain.PaymentStatusCompleted, payload.Status)
	assert.False(t, payload.OccurredAt.IsZero())

	require.NoError(t, j.MarkEventAsProcessed(ctx, events[0].ID))
	events, err = j.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecordSettlementFailure_WithoutOpenSession(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	require.NoError(t, j.RecordSettlementFailure(ctx, SettlementFailure{
		GatewayOrderID: "order_LOST",
		UserID:         5,
		Status:         domain.PaymentStatusFailed,
	}))

	s, err := j.GetSession(ctx, "order_LOST")
	require.NoError(t, err)
	assert.Equal(t, StatusUnsettled, s.Status)
}

func TestListSessions_NewestFirst(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	j.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	require.NoError(t, j.RecordSession(ctx, 5, domain.PaymentSession{GatewayOrderID: "order_1", AmountMinorUnits: 100, BackendOrderID: 1}))
	require.NoError(t, j.RecordSession(ctx, 5, domain.PaymentSession{GatewayOrderID: "order_2", AmountMinorUnits: 200, BackendOrderID: 2}))
	require.NoError(t, j.RecordSession(ctx, 6, domain.PaymentSession{GatewayOrderID: "order_3", AmountMinorUnits: 300, BackendOrderID: 3}))

	sessions, err := j.ListSessions(ctx, 5, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "order_2", sessions[0].GatewayOrderID)
	assert.Equal(t, "order_1", sessions[1].GatewayOrderID)
}

func TestGetStaleSessions(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	require.NoError(t, j.RecordSession(ctx, 5, domain.PaymentSession{GatewayOrderID: "order_old", AmountMinorUnits: 100, BackendOrderID: 1}))
	require.NoError(t, j.RecordSession(ctx, 5, domain.PaymentSession{GatewayOrderID: "order_done", AmountMinorUnits: 100, BackendOrderID: 2}))
	require.NoError(t, j.RecordOutcome(ctx, "order_done", StatusCompleted, "pay_1", ""))

	now = now.Add(time.Hour)
	require.NoError(t, j.RecordSession(ctx, 5, domain.PaymentSession{GatewayOrderID: "order_new", AmountMinorUnits: 100, BackendOrderID: 3}))

	stale, err := j.GetStaleSessions(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "order_old", stale[0].GatewayOrderID)
}

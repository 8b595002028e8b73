package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/journal"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mu            sync.Mutex
	Events        []*journal.OutboxEvent
	GetErr        error
	MarkErr       error
	Processed     []string
	Stale         []*journal.Session
	StaleCutoff   time.Time
	RecordedFails []journal.SettlementFailure
}

func (m *MockRepository) GetUnprocessedEvents(_ context.Context, limit int) ([]*journal.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if len(m.Events) > limit {
		return m.Events[:limit], nil
	}
	return m.Events, nil
}

func (m *MockRepository) MarkEventAsProcessed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.Processed = append(m.Processed, id)
	return nil
}

func (m *MockRepository) GetStaleSessions(_ context.Context, cutoff time.Time) ([]*journal.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StaleCutoff = cutoff
	return m.Stale, nil
}

func (m *MockRepository) RecordSettlementFailure(_ context.Context, f journal.SettlementFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordedFails = append(m.RecordedFails, f)
	return nil
}

func (m *MockRepository) processed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Processed...)
}

type MockWriter struct {
	mu       sync.Mutex
	Messages []kafka.Message
	FailKeys map[string]bool
	Closed   bool
}

func (w *MockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range msgs {
		if w.FailKeys[string(m.Key)] {
			return errors.New("broker unavailable")
		}
	}
	w.Messages = append(w.Messages, msgs...)
	return nil
}

func (w *MockWriter) Close() error {
	w.mu.Lock()
	w.Closed = true
	w.mu.Unlock()
	return nil
}

func TestProcessUnpublishedEvents_PublishesAndMarks(t *testing.T) {
	repo := &MockRepository{Events: []*journal.OutboxEvent{
		{ID: "e1", AggregateID: "order_1", EventType: journal.EventSettlementFailed, Payload: []byte(`{"a":1}`)},
		{ID: "e2", AggregateID: "order_2", EventType: journal.EventSettlementFailed, Payload: []byte(`{"a":2}`)},
	}}
	w := &MockWriter{}
	p := newOutboxPoller(repo, w, Config{Topic: "payment-reconciliation"})

	p.processUnpublishedEvents(context.Background())

	require.Len(t, w.Messages, 2)
	assert.Equal(t, []byte("order_1"), w.Messages[0].Key)
	assert.Equal(t, []byte(`{"a":1}`), w.Messages[0].Value)
	assert.Equal(t, "event_type", w.Messages[0].Headers[0].Key)
	assert.Equal(t, []byte(journal.EventSettlementFailed), w.Messages[0].Headers[0].Value)
	assert.Equal(t, []string{"e1", "e2"}, repo.processed())
}

func TestProcessUnpublishedEvents_PublishFailureLeavesEventUnprocessed(t *testing.T) {
	repo := &MockRepository{Events: []*journal.OutboxEvent{
		{ID: "e1", AggregateID: "order_1"},
		{ID: "e2", AggregateID: "order_2"},
	}}
	w := &MockWriter{FailKeys: map[string]bool{"order_1": true}}
	p := newOutboxPoller(repo, w, Config{})

	p.processUnpublishedEvents(context.Background())

	assert.Equal(t, []string{"e2"}, repo.processed())
}

func TestProcessUnpublishedEvents_RepositoryError(t *testing.T) {
	repo := &MockRepository{GetErr: errors.New("db locked")}
	w := &MockWriter{}
	p := newOutboxPoller(repo, w, Config{})

	p.processUnpublishedEvents(context.Background())

	assert.Empty(t, w.Messages)
}

func TestProcessUnpublishedEvents_RespectsBatchSize(t *testing.T) {
	repo := &MockRepository{Events: []*journal.OutboxEvent{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}}}
	w := &MockWriter{}
	p := newOutboxPoller(repo, w, Config{BatchSize: 2})

	p.processUnpublishedEvents(context.Background())

	assert.Len(t, w.Messages, 2)
}

func TestRecoverStaleSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &MockRepository{Stale: []*journal.Session{
		{GatewayOrderID: "order_1", BackendOrderID: 9, UserID: 5},
	}}
	p := newOutboxPoller(repo, &MockWriter{}, Config{StaleAfter: 20 * time.Minute})
	p.now = func() time.Time { return now }

	p.recoverStaleSessions(context.Background())

	assert.Equal(t, now.Add(-20*time.Minute), repo.StaleCutoff)
	require.Len(t, repo.RecordedFails, 1)
	assert.Equal(t, "order_1", repo.RecordedFails[0].GatewayOrderID)
	assert.Equal(t, domain.PaymentStatusFailed, repo.RecordedFails[0].Status)
	assert.Equal(t, staleReason, repo.RecordedFails[0].Reason)
}

func TestRun_StopsOnCancelAndClosesWriter(t *testing.T) {
	repo := &MockRepository{Events: []*journal.OutboxEvent{{ID: "e1", AggregateID: "order_1"}}}
	w := &MockWriter{}
	p := newOutboxPoller(repo, w, Config{EventTick: 5 * time.Millisecond, RecoveryTick: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(repo.processed()) > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	assert.True(t, w.Closed)
}

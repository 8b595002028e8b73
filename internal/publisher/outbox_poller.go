package publisher

import (
	"context"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/journal"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const staleReason = "No gateway callback received"

type Repository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*journal.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id string) error
	GetStaleSessions(ctx context.Context, cutoff time.Time) ([]*journal.Session, error)
	RecordSettlementFailure(ctx context.Context, f journal.SettlementFailure) error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	EventTick    time.Duration
	RecoveryTick time.Duration
	// StaleAfter is how long a session may stay open before it is handed to reconciliation.
	StaleAfter time.Duration
}

// OutboxPoller ships reconciliation events to Kafka and sweeps payment sessions
// that never received a gateway callback.
type OutboxPoller struct {
	cfg    Config
	repo   Repository
	writer MessageWriter
	now    func() time.Time
}

func NewOutboxPoller(repo Repository, cfg Config) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newOutboxPoller(repo, w, cfg)
}

func newOutboxPoller(repo Repository, w MessageWriter, cfg Config) *OutboxPoller {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.EventTick <= 0 {
		cfg.EventTick = 5 * time.Second
	}
	if cfg.RecoveryTick <= 0 {
		cfg.RecoveryTick = time.Minute
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 30 * time.Minute
	}
	return &OutboxPoller{cfg: cfg, repo: repo, writer: w, now: time.Now}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.cfg.EventTick)
	recoveryTicker := time.NewTicker(p.cfg.RecoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	defer func() {
		if err := p.writer.Close(); err != nil {
			logger.Error(err, "failed to close kafka writer", nil)
		}
	}()

	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverStaleSessions(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.cfg.BatchSize)
	if err != nil {
		logger.Error(err, "failed to fetch outbox events", nil)
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			logger.Error(err, "failed to publish event", map[string]interface{}{"event_id": event.ID})
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			logger.Error(err, "failed to mark event as processed", map[string]interface{}{"event_id": event.ID})
			continue
		}
	}
}

// recoverStaleSessions covers a process that stopped while a payment page was open:
// the bridge timer died with it, so nothing else would ever settle the session.
func (p *OutboxPoller) recoverStaleSessions(ctx context.Context) {
	sessions, err := p.repo.GetStaleSessions(ctx, p.now().Add(-p.cfg.StaleAfter))
	if err != nil {
		logger.Error(err, "failed to get stale sessions", nil)
		return
	}

	for _, s := range sessions {
		err := p.repo.RecordSettlementFailure(ctx, journal.SettlementFailure{
			GatewayOrderID: s.GatewayOrderID,
			BackendOrderID: s.BackendOrderID,
			UserID:         s.UserID,
			Status:         domain.PaymentStatusFailed,
			Reason:         staleReason,
		})
		if err != nil {
			logger.Error(err, "failed to queue stale session", map[string]interface{}{"gateway_order_id": s.GatewayOrderID})
			continue
		}
		logger.Warn("stale payment session queued for reconciliation", map[string]interface{}{"gateway_order_id": s.GatewayOrderID})
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *journal.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

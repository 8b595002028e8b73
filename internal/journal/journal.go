package journal

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const EventSettlementFailed = "payment.settlement_failed"

var ErrSessionNotFound = errors.New("payment session not found")

type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	// StatusUnsettled marks a gateway outcome the backend never accepted.
	StatusUnsettled Status = "UNSETTLED"
)

type Session struct {
	GatewayOrderID   string    `json:"gatewayOrderId"`
	BackendOrderID   int64     `json:"backendOrderId"`
	UserID           int64     `json:"userId"`
	AmountMinorUnits int64     `json:"amountMinorUnits"`
	Status           Status    `json:"status"`
	PaymentID        string    `json:"paymentId,omitempty"`
	Message          string    `json:"message,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// SettlementFailure is a gateway outcome that could not be pushed to the backend.
type SettlementFailure struct {
	GatewayOrderID string               `json:"gatewayOrderId"`
	BackendOrderID int64                `json:"backendOrderId"`
	UserID         int64                `json:"userId"`
	PaymentID      string               `json:"paymentId"`
	Status         domain.PaymentStatus `json:"status"`
	Reason         string               `json:"reason"`
	OccurredAt     time.Time            `json:"occurredAt"`
}

type OutboxEvent struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type Journal struct {
	db  *sql.DB
	now func() time.Time
}

func New(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite takes one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Journal{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (j *Journal) RunMigrations() error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(j.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) RecordSession(ctx context.Context, userID int64, s domain.PaymentSession) error {
	now := j.now()
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO payment_sessions (gateway_order_id, backend_order_id, user_id, amount_minor, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (gateway_order_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
	`, s.GatewayOrderID, s.BackendOrderID, userID, s.AmountMinorUnits, StatusOpen, now, now)
	if err != nil {
		return fmt.Errorf("failed to record payment session: %w", err)
	}
	return nil
}

func (j *Journal) RecordOutcome(ctx context.Context, gatewayOrderID string, status Status, paymentID, message string) error {
	res, err := j.db.ExecContext(ctx, `
		UPDATE payment_sessions
		SET status = ?, payment_id = ?, message = ?, updated_at = ?
		WHERE gateway_order_id = ?
	`, status, paymentID, message, j.now(), gatewayOrderID)
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RecordSettlementFailure marks the session unsettled and queues a
// reconciliation event in the same transaction.
func (j *Journal) RecordSettlementFailure(ctx context.Context, f SettlementFailure) error {
	if f.OccurredAt.IsZero() {
		f.OccurredAt = j.now()
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement failure: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := j.now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO payment_sessions (gateway_order_id, backend_order_id, user_id, amount_minor, status, payment_id, message, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?)
		ON CONFLICT (gateway_order_id) DO UPDATE SET
			status = excluded.status,
			payment_id = excluded.payment_id,
			message = excluded.message,
			updated_at = excluded.updated_at
	`, f.GatewayOrderID, f.BackendOrderID, f.UserID, StatusUnsettled, f.PaymentID, f.Reason, now, now)
	if err != nil {
		return fmt.Errorf("failed to mark session unsettled: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), f.GatewayOrderID, EventSettlementFailed, payload, now)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement failure: %w", err)
	}
	return nil
}

func (j *Journal) GetSession(ctx context.Context, gatewayOrderID string) (*Session, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT gateway_order_id, backend_order_id, user_id, amount_minor, status, payment_id, message, created_at, updated_at
		FROM payment_sessions
		WHERE gateway_order_id = ?
	`, gatewayOrderID)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (j *Journal) ListSessions(ctx context.Context, userID int64, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT gateway_order_id, backend_order_id, user_id, amount_minor, status, payment_id, message, created_at, updated_at
		FROM payment_sessions
		WHERE user_id = ?
		ORDER BY created_at DESC, gateway_order_id
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return sessions, nil
}

// GetStaleSessions returns sessions still OPEN that were created before cutoff.
func (j *Journal) GetStaleSessions(ctx context.Context, cutoff time.Time) ([]*Session, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT gateway_order_id, backend_order_id, user_id, amount_minor, status, payment_id, message, created_at, updated_at
		FROM payment_sessions
		WHERE status = ? AND created_at < ?
		ORDER BY created_at
	`, StatusOpen, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query stale sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return sessions, nil
}

func (j *Journal) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY created_at, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		e := &OutboxEvent{}
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (j *Journal) MarkEventAsProcessed(ctx context.Context, id string) error {
	_, err := j.db.ExecContext(ctx, `UPDATE outbox_events SET processed_at = ? WHERE id = ?`, j.now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	s := &Session{}
	err := row.Scan(
		&s.GatewayOrderID,
		&s.BackendOrderID,
		&s.UserID,
		&s.AmountMinorUnits,
		&s.Status,
		&s.PaymentID,
		&s.Message,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan payment session: %w", err)
	}
	return s, nil
}

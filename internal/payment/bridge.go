package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

var (
	ErrSessionNotPending = errors.New("payment session is not pending")
	ErrSessionPending    = errors.New("payment session already pending")
	ErrInvalidSession    = errors.New("invalid payment session")
)

type Config struct {
	Key             string
	Name            string
	Currency        string
	ScriptURL       string
	PublicBaseURL   string
	CallbackTimeout time.Duration
}

// ResolveFunc receives the single terminal outcome of a session.
type ResolveFunc func(ctx context.Context, s domain.PaymentSession, res Result)

// Checkout tells the embedded host what to load.
type Checkout struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	URL            string `json:"url"`
	DataURL        string `json:"dataUrl"`
}

type pendingSession struct {
	session domain.PaymentSession
	resolve ResolveFunc
	page    []byte
	timer   *time.Timer
}

// Bridge hosts gateway checkout pages and turns the page's single message (or a
// dismissal, or a timeout) into exactly one call to the session's resolver.
type Bridge struct {
	cfg     Config
	mu      sync.Mutex
	pending map[string]*pendingSession
}

func NewBridge(cfg Config) *Bridge {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &Bridge{
		cfg:     cfg,
		pending: make(map[string]*pendingSession),
	}
}

func (b *Bridge) Open(ctx context.Context, s domain.PaymentSession, resolve ResolveFunc) (Checkout, error) {
	if s.GatewayOrderID == "" || s.AmountMinorUnits <= 0 {
		return Checkout{}, fmt.Errorf("%w: order %q amount %d", ErrInvalidSession, s.GatewayOrderID, s.AmountMinorUnits)
	}
	if resolve == nil {
		return Checkout{}, fmt.Errorf("%w: nil resolver", ErrInvalidSession)
	}

	page, err := b.render(s)
	if err != nil {
		return Checkout{}, err
	}

	b.mu.Lock()
	if _, exists := b.pending[s.GatewayOrderID]; exists {
		b.mu.Unlock()
		return Checkout{}, ErrSessionPending
	}
	p := &pendingSession{session: s, resolve: resolve, page: page}
	if b.cfg.CallbackTimeout > 0 {
		id := s.GatewayOrderID
		p.timer = time.AfterFunc(b.cfg.CallbackTimeout, func() {
			_ = b.complete(context.Background(), id, Result{Success: false, Error: TimedOut}, "timeout")
		})
	}
	b.pending[s.GatewayOrderID] = p
	b.mu.Unlock()

	logger.WithContext(ctx).WithField("gateway_order_id", s.GatewayOrderID).Info("payment session opened")

	return Checkout{
		GatewayOrderID: s.GatewayOrderID,
		URL:            b.cfg.PublicBaseURL + "/pay/" + url.PathEscape(s.GatewayOrderID),
		DataURL:        dataURL(page),
	}, nil
}

// Page returns the rendered checkout document of a pending session.
func (b *Bridge) Page(gatewayOrderID string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[gatewayOrderID]
	if !ok {
		return nil, ErrSessionNotPending
	}
	return p.page, nil
}

func (b *Bridge) Pending(gatewayOrderID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[gatewayOrderID]
	return ok
}

// Deliver accepts the raw message posted by the embedded page.
func (b *Bridge) Deliver(ctx context.Context, gatewayOrderID string, raw []byte) (Result, error) {
	res, err := parseMessage(raw)
	if err != nil {
		logger.WithContext(ctx).WithError(err).WithField("gateway_order_id", gatewayOrderID).Warn("rejected gateway message")
		return Result{}, err
	}
	if err := b.complete(context.WithoutCancel(ctx), gatewayOrderID, res, "page"); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Dismiss is called by the host when the user closes the embedded page.
func (b *Bridge) Dismiss(ctx context.Context, gatewayOrderID string) error {
	return b.complete(context.WithoutCancel(ctx), gatewayOrderID, Result{Success: false, Error: CancelledByUser}, "dismiss")
}

// Close resolves every pending session as failed; used on shutdown.
func (b *Bridge) Close(ctx context.Context) {
	b.mu.Lock()
	ids := make([]string, 0, len(b.pending))
	for id := range b.pending {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	for _, id := range ids {
		_ = b.complete(ctx, id, Result{Success: false, Error: TimedOut}, "timeout")
	}
}

func (b *Bridge) complete(ctx context.Context, gatewayOrderID string, res Result, source string) error {
	b.mu.Lock()
	p, ok := b.pending[gatewayOrderID]
	if ok {
		delete(b.pending, gatewayOrderID)
	}
	b.mu.Unlock()

	if !ok {
		return ErrSessionNotPending
	}
	if p.timer != nil {
		p.timer.Stop()
	}

	metrics.GatewayCallback(source, res.Success)
	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"gateway_order_id": gatewayOrderID,
		"source":           source,
		"success":          res.Success,
	}).Info("payment session resolved")

	p.resolve(ctx, p.session, res)
	return nil
}

func (b *Bridge) callbackURL(gatewayOrderID string) string {
	return b.cfg.PublicBaseURL + "/pay/" + url.PathEscape(gatewayOrderID) + "/message"
}

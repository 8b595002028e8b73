package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/journal"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/remote"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Backend is the slice of the remote client the orchestrator drives. A
// session-bound *remote.Client satisfies it.
type Backend interface {
	GetCart(ctx context.Context, userID int64) remote.Result[domain.CartSnapshot]
	AddToCart(ctx context.Context, userID, productID int64, quantity int32) remote.Result[string]
	ChangeQuantity(ctx context.Context, cartItemID int64, action remote.QuantityAction) remote.Result[string]
	RemoveFromCart(ctx context.Context, userID, productID int64) remote.Result[string]
	ApplyPromo(ctx context.Context, userID int64, code string) remote.Result[domain.PromoResult]
	SetCartDiscount(ctx context.Context, cartID int64, discount float64) remote.Result[string]
	DeliveryCharges(ctx context.Context) remote.Result[domain.DeliveryCharges]
	ListAddresses(ctx context.Context, userID int64) remote.Result[[]domain.DeliveryAddress]
	AddAddress(ctx context.Context, userID int64, in domain.DeliveryAddress) remote.Result[domain.DeliveryAddress]
	UpdateAddress(ctx context.Context, in domain.DeliveryAddress) remote.Result[domain.DeliveryAddress]
	DeleteAddress(ctx context.Context, addressID int64) remote.Result[string]
	CreateOrder(ctx context.Context, userID, addressID int64, mode domain.PaymentMode) remote.Result[domain.PlacedOrder]
	UpdatePaymentStatus(ctx context.Context, gatewayOrderID string, status domain.PaymentStatus, paymentID string) remote.Result[string]
}

type Gateway interface {
	Open(ctx context.Context, s domain.PaymentSession, resolve payment.ResolveFunc) (payment.Checkout, error)
}

type Journal interface {
	RecordSession(ctx context.Context, userID int64, s domain.PaymentSession) error
	RecordOutcome(ctx context.Context, gatewayOrderID string, status journal.Status, paymentID, message string) error
	RecordSettlementFailure(ctx context.Context, f journal.SettlementFailure) error
}

type Destination string

const (
	DestinationHome         Destination = "home"
	DestinationCart         Destination = "cart"
	DestinationConfirmation Destination = "confirmation"
)

type Navigator interface {
	Navigate(userID int64, to Destination)
}

// Deps are shared by every orchestrator of the process.
type Deps struct {
	Gateway   Gateway
	Journal   Journal
	Cache     cache.SnapshotCache
	Navigator Navigator
	Locks     *CartLocks
}

type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	Discount       float64 `json:"discount"`
	DeliveryCharge float64 `json:"deliveryCharge"`
	Payable        float64 `json:"payable"`
	// Final is false while the delivery charge for the selected mode is unknown.
	Final bool `json:"final"`
}

// View is a consistent copy of the orchestrator state.
type View struct {
	State           domain.CheckoutState     `json:"state"`
	Cart            *domain.CartSnapshot     `json:"cart,omitempty"`
	Promo           domain.PromoState        `json:"promo"`
	Addresses       []domain.DeliveryAddress `json:"addresses"`
	SelectedAddress *domain.DeliveryAddress  `json:"selectedAddress,omitempty"`
	PaymentMode     domain.PaymentMode       `json:"paymentMode"`
	Totals          Totals                   `json:"totals"`
	Checkout        *payment.Checkout        `json:"checkout,omitempty"`
	Order           *domain.PlacedOrder      `json:"order,omitempty"`
	Error           *domain.Error            `json:"error,omitempty"`
	Navigation      Destination              `json:"navigation,omitempty"`
}

type state struct {
	snapshot   *domain.CartSnapshot
	promo      domain.PromoState
	addresses  []domain.DeliveryAddress
	selectedID int64
	mode       domain.PaymentMode
	charges    *domain.DeliveryCharges
	chargeSeq  uint64
	chargeMode domain.PaymentMode
	chargeOK   bool
	// phase is empty while resting; the resting state is derived from the data.
	phase    domain.CheckoutState
	pending  *domain.PaymentSession
	checkout *payment.Checkout
	order    *domain.PlacedOrder
	lastErr  *domain.Error
	nav      Destination
}

// Orchestrator owns one user's checkout: the derived payable total and the
// state machine from cart to settled payment.
type Orchestrator struct {
	session domain.Session
	backend Backend
	deps    Deps

	sfg singleflight.Group
	mu  sync.Mutex
	st  state
}

func New(session domain.Session, backend Backend, deps Deps) *Orchestrator {
	if deps.Locks == nil {
		deps.Locks = NewCartLocks()
	}
	return &Orchestrator{
		session: session,
		backend: backend,
		deps:    deps,
		st:      state{mode: domain.PaymentModeOnline},
	}
}

func (o *Orchestrator) Session() domain.Session {
	return o.session
}

func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewLocked()
}

func (o *Orchestrator) State() domain.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stateLocked()
}

func (o *Orchestrator) Totals() Totals {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.totalsLocked()
}

func (o *Orchestrator) viewLocked() View {
	v := View{
		State:       o.stateLocked(),
		Promo:       o.st.promo,
		Addresses:   append([]domain.DeliveryAddress(nil), o.st.addresses...),
		PaymentMode: o.st.mode,
		Totals:      o.totalsLocked(),
		Error:       o.st.lastErr,
		Navigation:  o.st.nav,
	}
	if o.st.snapshot != nil {
		snap := *o.st.snapshot
		snap.Items = append([]domain.CartItem(nil), o.st.snapshot.Items...)
		v.Cart = &snap
	}
	if addr, ok := o.selectedLocked(); ok {
		v.SelectedAddress = &addr
	}
	if o.st.checkout != nil {
		co := *o.st.checkout
		v.Checkout = &co
	}
	if o.st.order != nil {
		order := *o.st.order
		v.Order = &order
	}
	return v
}

// stateLocked derives the resting state unless a submission owns the flow.
func (o *Orchestrator) stateLocked() domain.CheckoutState {
	if o.st.phase != "" {
		return o.st.phase
	}
	return o.restingLocked()
}

func (o *Orchestrator) restingLocked() domain.CheckoutState {
	if o.st.snapshot == nil {
		return domain.CheckoutStateIdle
	}
	if _, ok := o.selectedLocked(); !ok {
		return domain.CheckoutStateAddressRequired
	}
	return domain.CheckoutStateReadyToPay
}

func (o *Orchestrator) totalsLocked() Totals {
	t := Totals{Discount: o.st.promo.DiscountAmount}
	if o.st.snapshot != nil {
		t.Subtotal = o.st.snapshot.Subtotal
	}
	fresh := o.st.chargeOK && o.st.chargeMode == o.st.mode
	if !o.st.snapshot.IsEmpty() && o.st.charges != nil && fresh {
		t.DeliveryCharge = o.st.charges.For(o.st.mode)
	}
	t.Payable = domain.PayableTotal(t.Subtotal, t.Discount, t.DeliveryCharge)
	t.Final = o.st.snapshot != nil && fresh
	return t
}

func (o *Orchestrator) selectedLocked() (domain.DeliveryAddress, bool) {
	if o.st.selectedID == 0 {
		return domain.DeliveryAddress{}, false
	}
	for _, a := range o.st.addresses {
		if a.ID == o.st.selectedID {
			return a, true
		}
	}
	return domain.DeliveryAddress{}, false
}

// setPhaseLocked moves the state machine; an empty target returns to the derived resting state.
func (o *Orchestrator) setPhaseLocked(to domain.CheckoutState) error {
	from := o.stateLocked()
	if to == "" {
		o.st.phase = ""
		return nil
	}
	if from != to && !domain.CanTransitionTo(from, to) {
		return fmt.Errorf("%w: %s -> %s", IllegalTransitionError, from, to)
	}
	o.st.phase = to
	return nil
}

func (o *Orchestrator) navigate(to Destination) {
	o.mu.Lock()
	o.st.nav = to
	o.mu.Unlock()
	if o.deps.Navigator != nil {
		o.deps.Navigator.Navigate(o.session.UserID, to)
	}
}

// beginEditLocked rejects edits while a submission owns the flow. A finished
// flow returns to the resting state derived from the data.
func (o *Orchestrator) beginEditLocked() error {
	if o.stateLocked().InFlight() {
		return validation(msgCheckoutInFlight)
	}
	if o.st.phase.IsTerminal() {
		o.st.phase = ""
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		o.mu.Lock()
		o.st.lastErr = de
		o.mu.Unlock()
	}
	logger.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
		"op":      op,
		"user_id": o.session.UserID,
	}).Warn("checkout step failed")
	return err
}

// failView records err before the view is taken so the view carries it.
func (o *Orchestrator) failView(ctx context.Context, op string, err error) (View, error) {
	err = o.fail(ctx, op, err)
	return o.View(), err
}

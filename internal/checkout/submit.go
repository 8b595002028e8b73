package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/journal"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

const submitKey = "submit"

// Submit places the order for the selected address and payment mode. Concurrent
// calls share a single order creation; a call made while a submission already
// owns the flow returns the current view without touching the backend.
//
// The shared submission does not follow any caller's cancellation. A caller whose
// context ends stops waiting, while the order already requested runs to completion.
func (o *Orchestrator) Submit(ctx context.Context) (View, error) {
	if err := ctx.Err(); err != nil {
		return o.View(), err
	}

	o.mu.Lock()
	if o.stateLocked().InFlight() && o.st.phase != domain.CheckoutStateSubmitting {
		v := o.viewLocked()
		o.mu.Unlock()
		return v, nil
	}
	o.mu.Unlock()

	ch := o.sfg.DoChan(submitKey, func() (interface{}, error) {
		return o.submit(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return o.View(), ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return o.View(), r.Err
		}
		return r.Val.(View), nil
	}
}

func (o *Orchestrator) submit(ctx context.Context) (View, error) {
	o.mu.Lock()
	if o.stateLocked().InFlight() {
		v := o.viewLocked()
		o.mu.Unlock()
		return v, nil
	}
	if o.st.snapshot.IsEmpty() {
		o.mu.Unlock()
		return View{}, o.fail(ctx, "submit", validation(msgEmptyCart))
	}
	addr, ok := o.selectedLocked()
	if !ok {
		o.mu.Unlock()
		return View{}, o.fail(ctx, "submit", validation(msgAddressRequired))
	}
	if o.st.phase == domain.CheckoutStateCompleted {
		o.st.phase = ""
	}
	if err := o.setPhaseLocked(domain.CheckoutStateSubmitting); err != nil {
		o.mu.Unlock()
		return View{}, o.fail(ctx, "submit", err)
	}
	mode := o.st.mode
	o.st.lastErr = nil
	o.st.nav = ""
	o.st.checkout = nil
	o.st.order = nil
	o.mu.Unlock()

	if !o.chargesFresh() {
		if err := o.refreshCharges(ctx); err != nil {
			return o.submitFailed(ctx, mode, err)
		}
	}
	if mode == domain.PaymentModeOnline && domain.ToMinorUnits(o.Totals().Payable) <= 0 {
		return o.submitFailed(ctx, mode, validation(msgNothingToPayOnline))
	}

	res := o.backend.CreateOrder(ctx, o.session.UserID, addr.ID, mode)
	if !res.Success {
		if err := ctx.Err(); err != nil {
			return o.submitFailed(ctx, mode, err)
		}
		return o.submitFailed(ctx, mode, res.Err())
	}
	placed := res.Data
	// The order exists on the server from here on; completion must not be cut short.
	ctx = context.WithoutCancel(ctx)

	if mode == domain.PaymentModeCashOnDelivery {
		return o.completeCashOnDelivery(ctx, placed)
	}
	return o.openGateway(ctx, placed)
}

func (o *Orchestrator) completeCashOnDelivery(ctx context.Context, placed domain.PlacedOrder) (View, error) {
	o.mu.Lock()
	_ = o.setPhaseLocked(domain.CheckoutStateCompleted)
	o.st.order = &placed
	o.resetAfterOrderLocked()
	o.mu.Unlock()

	o.invalidateCache()
	metrics.CheckoutOutcome(string(domain.PaymentModeCashOnDelivery), string(domain.CheckoutStateCompleted))
	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"user_id":  o.session.UserID,
		"order_id": placed.OrderID,
	}).Info("cash on delivery order placed")

	o.navigate(DestinationHome)
	return o.View(), nil
}

func (o *Orchestrator) openGateway(ctx context.Context, placed domain.PlacedOrder) (View, error) {
	session := placed.Session()

	if o.deps.Journal != nil {
		if err := o.deps.Journal.RecordSession(ctx, o.session.UserID, session); err != nil {
			logger.WithContext(ctx).WithError(err).WithField("gateway_order_id", session.GatewayOrderID).Error("failed to journal payment session")
		}
	}

	o.mu.Lock()
	o.st.order = &placed
	o.st.pending = &session
	_ = o.setPhaseLocked(domain.CheckoutStateAwaitingGatewayCallback)
	o.mu.Unlock()

	co, err := o.deps.Gateway.Open(ctx, session, o.settle)
	if err != nil {
		o.mu.Lock()
		o.st.pending = nil
		o.st.phase = domain.CheckoutStateSubmitting
		o.mu.Unlock()
		if o.deps.Journal != nil {
			_ = o.deps.Journal.RecordOutcome(ctx, session.GatewayOrderID, journal.StatusFailed, "", err.Error())
		}
		return o.submitFailed(ctx, domain.PaymentModeOnline, &domain.Error{Kind: domain.KindTransport, Message: "Unable to start payment"})
	}

	o.mu.Lock()
	if o.st.pending != nil && o.st.pending.GatewayOrderID == session.GatewayOrderID {
		o.st.checkout = &co
	}
	v := o.viewLocked()
	o.mu.Unlock()
	return v, nil
}

func (o *Orchestrator) submitFailed(ctx context.Context, mode domain.PaymentMode, err error) (View, error) {
	o.mu.Lock()
	_ = o.setPhaseLocked(domain.CheckoutStateFailed)
	o.mu.Unlock()

	metrics.CheckoutOutcome(string(mode), string(domain.CheckoutStateFailed))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return View{}, err
	}
	return View{}, o.fail(ctx, "submit", err)
}

// settle receives the bridge's single terminal result. The backend is told the
// outcome; a failed update is journaled for reconciliation and never blocks the user.
func (o *Orchestrator) settle(ctx context.Context, s domain.PaymentSession, res payment.Result) {
	o.mu.Lock()
	if o.st.pending == nil || o.st.pending.GatewayOrderID != s.GatewayOrderID {
		o.mu.Unlock()
		logger.WithContext(ctx).WithField("gateway_order_id", s.GatewayOrderID).Warn("ignoring result for a session that is not pending")
		return
	}
	if err := o.setPhaseLocked(domain.CheckoutStateSettling); err != nil {
		o.mu.Unlock()
		logger.WithContext(ctx).WithError(err).Warn("cannot settle payment")
		return
	}
	o.mu.Unlock()

	// An unsettled session keeps its journal mark until reconciliation clears it.
	status, persist := settlementStatus(res)
	unsettled := false
	if persist {
		if err := o.backend.UpdatePaymentStatus(ctx, s.GatewayOrderID, status, res.PaymentID).Err(); err != nil {
			o.recordSettlementFailure(ctx, s, status, res.PaymentID, err)
			unsettled = true
		}
	}
	if !unsettled {
		o.journalOutcome(ctx, s, res)
	}

	o.mu.Lock()
	o.st.pending = nil
	o.st.checkout = nil
	if res.Success {
		_ = o.setPhaseLocked(domain.CheckoutStateCompleted)
		o.resetAfterOrderLocked()
	} else {
		_ = o.setPhaseLocked(domain.CheckoutStateFailed)
		o.st.lastErr = domain.NewGatewayCancelled(res.Error)
	}
	state := o.st.phase
	o.mu.Unlock()

	metrics.CheckoutOutcome(string(domain.PaymentModeOnline), string(state))
	if res.Success {
		o.invalidateCache()
		o.navigate(DestinationConfirmation)
		return
	}
	o.navigate(DestinationCart)
}

// settlementStatus decides what, if anything, is pushed to the backend. A
// failure without a payment id never reached the gateway's ledger.
func settlementStatus(res payment.Result) (domain.PaymentStatus, bool) {
	if res.Success {
		return domain.PaymentStatusCompleted, true
	}
	if res.PaymentID != "" {
		return domain.PaymentStatusFailed, true
	}
	return "", false
}

func (o *Orchestrator) recordSettlementFailure(ctx context.Context, s domain.PaymentSession, status domain.PaymentStatus, paymentID string, cause error) {
	metrics.SettlementPersistFailure()
	logger.WithContext(ctx).WithError(cause).WithFields(map[string]interface{}{
		"gateway_order_id": s.GatewayOrderID,
		"payment_id":       paymentID,
		"status":           status,
	}).Error("failed to persist payment status")

	if o.deps.Journal == nil {
		return
	}
	err := o.deps.Journal.RecordSettlementFailure(ctx, journal.SettlementFailure{
		GatewayOrderID: s.GatewayOrderID,
		BackendOrderID: s.BackendOrderID,
		UserID:         o.session.UserID,
		PaymentID:      paymentID,
		Status:         status,
		Reason:         cause.Error(),
		OccurredAt:     time.Now().UTC(),
	})
	if err != nil {
		logger.WithContext(ctx).WithError(err).WithField("gateway_order_id", s.GatewayOrderID).Error("failed to journal settlement failure")
	}
}

func (o *Orchestrator) journalOutcome(ctx context.Context, s domain.PaymentSession, res payment.Result) {
	if o.deps.Journal == nil {
		return
	}
	status := journal.StatusFailed
	switch {
	case res.Success:
		status = journal.StatusCompleted
	case res.Error == payment.CancelledByUser:
		status = journal.StatusCancelled
	}
	err := o.deps.Journal.RecordOutcome(ctx, s.GatewayOrderID, status, res.PaymentID, res.Error)
	if err != nil && !errors.Is(err, journal.ErrSessionNotFound) {
		logger.WithContext(ctx).WithError(err).WithField("gateway_order_id", s.GatewayOrderID).Warn("failed to journal payment outcome")
	}
}

// resetAfterOrderLocked clears the cart client-side and drops the promo and
// address selection once an order went through.
func (o *Orchestrator) resetAfterOrderLocked() {
	if o.st.snapshot != nil {
		o.st.snapshot = &domain.CartSnapshot{CartID: o.st.snapshot.CartID, CapturedAt: time.Now().UTC()}
	}
	o.st.promo = domain.PromoState{}
	o.st.selectedID = 0
	o.st.lastErr = nil
}

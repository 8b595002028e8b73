package checkout

import (
	"context"

	"github.com/fjod/go_cart/storefront/domain"
)

// SetPaymentMode switches the mode and refetches the delivery charge. Until the
// refetch lands, Totals().Final is false. A cart not loaded yet is fetched first
// so the charge has a snapshot to apply to.
func (o *Orchestrator) SetPaymentMode(ctx context.Context, mode domain.PaymentMode) (View, error) {
	if mode != domain.PaymentModeOnline && mode != domain.PaymentModeCashOnDelivery {
		return o.failView(ctx, "set_payment_mode", validation("Unknown payment mode"))
	}

	o.mu.Lock()
	if err := o.beginEditLocked(); err != nil {
		o.mu.Unlock()
		return o.failView(ctx, "set_payment_mode", err)
	}
	needsLoad := o.st.snapshot == nil
	o.st.mode = mode
	o.st.chargeOK = false
	o.st.lastErr = nil
	o.mu.Unlock()

	if needsLoad {
		if err := o.loadSnapshot(ctx); err != nil {
			return o.View(), err
		}
	}
	err := o.refreshCharges(ctx)
	return o.View(), err
}

// refreshCharges fetches the fee table for the current mode. Only the newest
// request may publish its result.
func (o *Orchestrator) refreshCharges(ctx context.Context) error {
	o.mu.Lock()
	o.st.chargeSeq++
	seq := o.st.chargeSeq
	mode := o.st.mode
	o.st.chargeOK = false
	o.mu.Unlock()

	res := o.backend.DeliveryCharges(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !res.Success {
		return o.fail(ctx, "delivery_charges", res.Err())
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.st.chargeSeq {
		return nil
	}
	charges := res.Data
	o.st.charges = &charges
	o.st.chargeMode = mode
	o.st.chargeOK = true
	return nil
}

func (o *Orchestrator) chargesFresh() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.chargeOK && o.st.chargeMode == o.st.mode
}

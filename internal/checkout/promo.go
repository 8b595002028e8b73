package checkout

import (
	"context"
	"strings"

	"github.com/fjod/go_cart/storefront/domain"
)

// ApplyPromo validates the code with the backend and persists the returned
// discount against the cart. A rejected code leaves the current promo untouched.
func (o *Orchestrator) ApplyPromo(ctx context.Context, code string) (View, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return o.failView(ctx, "apply_promo", validation(msgPromoRequired))
	}

	o.mu.Lock()
	if err := o.beginEditLocked(); err != nil {
		o.mu.Unlock()
		return o.failView(ctx, "apply_promo", err)
	}
	if o.st.snapshot.IsEmpty() {
		o.mu.Unlock()
		return o.failView(ctx, "apply_promo", validation(msgEmptyCart))
	}
	cartID := o.st.snapshot.CartID
	o.st.lastErr = nil
	o.mu.Unlock()

	unlock := o.deps.Locks.Lock(cartID)
	defer unlock()

	res := o.backend.ApplyPromo(ctx, o.session.UserID, code)
	if ctx.Err() != nil {
		return o.View(), ctx.Err()
	}
	if !res.Success {
		return o.failView(ctx, "apply_promo", res.Err())
	}

	discount := res.Data.DiscountAmount
	if discount < 0 {
		discount = 0
	}
	if err := o.backend.SetCartDiscount(ctx, cartID, discount).Err(); err != nil {
		if ctx.Err() != nil {
			return o.View(), ctx.Err()
		}
		return o.failView(ctx, "set_cart_discount", err)
	}
	if ctx.Err() != nil {
		return o.View(), ctx.Err()
	}

	applied := res.Data.PromoCode
	if applied == "" {
		applied = code
	}
	o.mu.Lock()
	o.st.promo = domain.PromoState{Code: applied, DiscountAmount: discount}
	o.mu.Unlock()
	o.invalidateCache()

	return o.View(), nil
}

// RemovePromo always clears the code and persists a zero discount, whatever the
// previous discount was.
func (o *Orchestrator) RemovePromo(ctx context.Context) (View, error) {
	o.mu.Lock()
	if err := o.beginEditLocked(); err != nil {
		o.mu.Unlock()
		return o.failView(ctx, "remove_promo", err)
	}
	needsLoad := o.st.snapshot == nil
	o.st.promo = domain.PromoState{}
	o.st.lastErr = nil
	o.mu.Unlock()

	if needsLoad {
		if err := o.loadSnapshot(ctx); err != nil {
			return o.View(), err
		}
	}

	o.mu.Lock()
	cartID := o.st.snapshot.CartID
	o.mu.Unlock()

	unlock := o.deps.Locks.Lock(cartID)
	defer unlock()

	err := o.backend.SetCartDiscount(ctx, cartID, 0).Err()
	o.invalidateCache()
	if ctx.Err() != nil {
		return o.View(), ctx.Err()
	}
	if err != nil {
		return o.failView(ctx, "set_cart_discount", err)
	}
	return o.View(), nil
}

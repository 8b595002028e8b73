package checkout

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/remote"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

// Focus is screen entry: cart and addresses may have changed in another session,
// so both are fetched from the backend and a finished flow returns to rest.
func (o *Orchestrator) Focus(ctx context.Context) (View, error) {
	o.mu.Lock()
	if o.st.phase.IsTerminal() {
		o.st.phase = ""
		o.st.checkout = nil
		o.st.pending = nil
	}
	o.st.lastErr = nil
	o.st.nav = ""
	o.mu.Unlock()

	o.invalidateCache()
	if err := o.loadSnapshot(ctx); err != nil {
		return o.View(), err
	}
	if err := o.loadAddresses(ctx); err != nil {
		return o.View(), err
	}
	if err := o.refreshCharges(ctx); err != nil {
		return o.View(), err
	}
	return o.View(), nil
}

// Refresh reloads the cart through the cache along with the address list.
func (o *Orchestrator) Refresh(ctx context.Context) (View, error) {
	if err := o.loadSnapshot(ctx); err != nil {
		return o.View(), err
	}
	if err := o.loadAddresses(ctx); err != nil {
		return o.View(), err
	}
	return o.View(), nil
}

func (o *Orchestrator) AddItem(ctx context.Context, productID int64, quantity int32) (View, error) {
	if quantity < 1 {
		return o.failView(ctx, "add_item", validation(msgQuantityTooLow))
	}
	err := o.mutate(ctx, "add_item", func(ctx context.Context) (bool, error) {
		res := o.backend.AddToCart(ctx, o.session.UserID, productID, quantity)
		return res.Success, res.Err()
	})
	return o.View(), err
}

// ChangeQuantity steps a line to the requested quantity. The backend only moves
// a line one unit at a time, so each step is its own call.
func (o *Orchestrator) ChangeQuantity(ctx context.Context, cartItemID int64, quantity int32) (View, error) {
	if quantity < 1 {
		return o.failView(ctx, "change_quantity", validation(msgQuantityTooLow))
	}
	err := o.mutate(ctx, "change_quantity", func(ctx context.Context) (bool, error) {
		o.mu.Lock()
		item, ok := o.st.snapshot.Item(cartItemID)
		o.mu.Unlock()
		if !ok {
			return false, validation(msgUnknownItem)
		}

		action := remote.QuantityIncrement
		steps := quantity - item.Quantity
		if steps < 0 {
			action = remote.QuantityDecrement
			steps = -steps
		}
		for i := int32(0); i < steps; i++ {
			if err := o.backend.ChangeQuantity(ctx, cartItemID, action).Err(); err != nil {
				return i > 0, err
			}
		}
		return steps > 0, nil
	})
	return o.View(), err
}

func (o *Orchestrator) RemoveItem(ctx context.Context, productID int64) (View, error) {
	err := o.mutate(ctx, "remove_item", func(ctx context.Context) (bool, error) {
		res := o.backend.RemoveFromCart(ctx, o.session.UserID, productID)
		return res.Success, res.Err()
	})
	return o.View(), err
}

// mutate runs one cart write under the cart lock, then drops the cached snapshot
// and refetches it. write reports whether any backend call went through. Once the
// server cart changed, even by a write that failed partway, a promo validated
// against the old cart is cleared and the zero discount persisted.
func (o *Orchestrator) mutate(ctx context.Context, op string, write func(ctx context.Context) (bool, error)) error {
	o.mu.Lock()
	if err := o.beginEditLocked(); err != nil {
		o.mu.Unlock()
		return o.fail(ctx, op, err)
	}
	needsLoad := o.st.snapshot == nil
	o.mu.Unlock()

	if needsLoad {
		if err := o.loadSnapshot(ctx); err != nil {
			return err
		}
	}

	o.mu.Lock()
	prior := o.st.snapshot
	cartID := prior.CartID
	o.st.lastErr = nil
	o.mu.Unlock()

	unlock := o.deps.Locks.Lock(cartID)
	defer unlock()

	applied, writeErr := write(ctx)
	o.invalidateCache()
	if ctx.Err() != nil {
		if applied {
			o.clearPromo(context.WithoutCancel(ctx), cartID)
		}
		return ctx.Err()
	}

	loadErr := o.loadSnapshot(ctx)
	if applied || (loadErr == nil && o.cartChangedSince(prior)) {
		o.clearPromo(ctx, cartID)
	}
	if writeErr != nil {
		return o.fail(ctx, op, writeErr)
	}
	return loadErr
}

// cartChangedSince reports whether the current snapshot differs from prior in
// any line or in its subtotal.
func (o *Orchestrator) cartChangedSince(prior *domain.CartSnapshot) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	cur := o.st.snapshot
	if cur == nil || prior == nil {
		return cur != prior
	}
	if cur.Subtotal != prior.Subtotal || len(cur.Items) != len(prior.Items) {
		return true
	}
	for i := range cur.Items {
		a, b := cur.Items[i], prior.Items[i]
		if a.CartItemID != b.CartItemID || a.ProductID != b.ProductID || a.Quantity != b.Quantity {
			return true
		}
	}
	return false
}

func (o *Orchestrator) clearPromo(ctx context.Context, cartID int64) {
	o.mu.Lock()
	active := o.st.promo.Active() || o.st.promo.DiscountAmount != 0
	o.st.promo = domain.PromoState{}
	o.mu.Unlock()

	if !active {
		return
	}
	if err := o.backend.SetCartDiscount(ctx, cartID, 0).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).WithField("cart_id", cartID).Warn("failed to reset cart discount")
	}
}

// loadSnapshot fetches through the cache. Concurrent loads for the same user share one backend call.
func (o *Orchestrator) loadSnapshot(ctx context.Context) error {
	v, err, _ := o.sfg.Do(o.snapshotKey(), func() (interface{}, error) {
		if o.deps.Cache != nil {
			snap, err := o.deps.Cache.Get(ctx, o.session.UserID)
			if err == nil {
				return snap, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				logger.WithContext(ctx).WithError(err).Warn("cart cache get failed")
			}
		}

		res := o.backend.GetCart(ctx, o.session.UserID)
		if !res.Success {
			return nil, res.Err()
		}
		snap := res.Data
		snap.CapturedAt = time.Now().UTC()

		if o.deps.Cache != nil {
			setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			if err := o.deps.Cache.Set(setCtx, o.session.UserID, &snap); err != nil {
				logger.WithContext(ctx).WithError(err).Warn("cart cache set failed")
			}
			cancel()
		}
		return &snap, nil
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return o.fail(ctx, "load_cart", err)
	}

	snap := *v.(*domain.CartSnapshot)
	snap.Items = append([]domain.CartItem(nil), snap.Items...)
	o.mu.Lock()
	o.st.snapshot = &snap
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) loadAddresses(ctx context.Context) error {
	res := o.backend.ListAddresses(ctx, o.session.UserID)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !res.Success {
		return o.fail(ctx, "list_addresses", res.Err())
	}

	o.mu.Lock()
	o.st.addresses = res.Data
	if _, ok := o.selectedLocked(); !ok {
		o.st.selectedID = 0
	}
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) snapshotKey() string {
	return "cart:" + strconv.FormatInt(o.session.UserID, 10)
}

// invalidateCache drops the cached snapshot and detaches any in-flight load that
// may have read it.
func (o *Orchestrator) invalidateCache() {
	o.sfg.Forget(o.snapshotKey())
	if o.deps.Cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := o.deps.Cache.Delete(ctx, o.session.UserID); err != nil {
		logger.Warn("cart cache invalidate failed", map[string]interface{}{"user_id": o.session.UserID, "error": err.Error()})
	}
}

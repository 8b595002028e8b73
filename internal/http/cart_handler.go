package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/checkout"
)

// CartHandler drives the cart screen of the user's checkout orchestrator.
type CartHandler struct {
	registry *checkout.Registry
	timeout  time.Duration
}

func NewCartHandler(registry *checkout.Registry, timeout time.Duration) *CartHandler {
	return &CartHandler{
		registry: registry,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int32 `json:"quantity" validate:"lte=99"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int32 `json:"quantity" validate:"lte=99"`
}

type PromoRequestDTO struct {
	Code string `json:"code"`
}

type PaymentModeRequestDTO struct {
	Mode string `json:"mode" validate:"required"`
}

// orchestratorFor returns the orchestrator of the authenticated user.
func orchestratorFor(w http.ResponseWriter, r *http.Request, registry *checkout.Registry) (*checkout.Orchestrator, bool) {
	s, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return nil, false
	}
	return registry.For(s), true
}

func respondView(w http.ResponseWriter, status int, v checkout.View, err error) {
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, status, v)
}

// GET /api/v1/cart
// Screen entry: cart, addresses and delivery charge are refetched.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	v, err := o.Focus(ctx)
	respondView(w, http.StatusOK, v, err)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := o.AddItem(ctx, req.ProductID, req.Quantity)
	respondView(w, http.StatusCreated, v, err)
}

// PUT /api/v1/cart/items/{cart_item_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	cartItemID, ok := pathID(w, r, "cart_item_id")
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := o.ChangeQuantity(ctx, cartItemID, req.Quantity)
	respondView(w, http.StatusOK, v, err)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}

	v, err := o.RemoveItem(ctx, productID)
	respondView(w, http.StatusOK, v, err)
}

// POST /api/v1/cart/promo
func (h *CartHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	var req PromoRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := o.ApplyPromo(ctx, req.Code)
	respondView(w, http.StatusOK, v, err)
}

// DELETE /api/v1/cart/promo
func (h *CartHandler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	v, err := o.RemovePromo(ctx)
	respondView(w, http.StatusOK, v, err)
}

// PUT /api/v1/cart/payment-mode
func (h *CartHandler) SetPaymentMode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	var req PaymentModeRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := domain.ParsePaymentMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payment_mode", "mode must be ONLINE or CASH_ON_DELIVERY")
		return
	}

	v, err := o.SetPaymentMode(ctx, mode)
	respondView(w, http.StatusOK, v, err)
}

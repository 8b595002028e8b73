package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

type CheckoutHandler struct {
	registry *checkout.Registry
	timeout  time.Duration
}

func NewCheckoutHandler(registry *checkout.Registry, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		registry: registry,
		timeout:  timeout,
	}
}

type SelectAddressRequestDTO struct {
	AddressID int64 `json:"address_id" validate:"required,gt=0"`
}

// GET /api/v1/checkout
// Returns the current view without calling the backend; the shell polls it
// while the gateway page is open.
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, o.View())
}

// PUT /api/v1/checkout/address
func (h *CheckoutHandler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	var req SelectAddressRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := o.SelectAddress(ctx, req.AddressID)
	respondView(w, http.StatusOK, v, err)
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	v, err := o.Submit(ctx)
	if err != nil {
		handleError(w, err)
		return
	}

	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"request_id": getRequestID(r.Context()),
		"user_id":    o.Session().UserID,
		"state":      v.State,
	}).Info("checkout submitted")

	status := http.StatusOK
	if v.Order != nil {
		status = http.StatusCreated
	}
	respondJSON(w, status, v)
}

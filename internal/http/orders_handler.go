package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/remote"
)

type OrdersHandler struct {
	client  *remote.Client
	timeout time.Duration
}

func NewOrdersHandler(client *remote.Client, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		client:  client,
		timeout: timeout,
	}
}

type CancelOrderRequestDTO struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	res := h.client.WithSession(s).OrderHistory(ctx, s.UserID)
	if !res.Success {
		handleError(w, res.Err())
		return
	}

	orders := res.Data
	if orders == nil {
		orders = make([]domain.Order, 0)
	}
	respondJSON(w, http.StatusOK, orders)
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}

	var req CancelOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	res := h.client.WithSession(s).CancelOrder(ctx, orderID, strings.TrimSpace(req.Reason))
	if !res.Success {
		handleError(w, res.Err())
		return
	}

	respondJSON(w, http.StatusOK, MessageResponseDTO{Message: res.Data})
}

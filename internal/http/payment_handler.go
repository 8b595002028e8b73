package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/go-chi/chi/v5"
)

const maxGatewayMessageBytes = 32 << 10

// PaymentHost is the part of the payment bridge the embedded host talks to.
type PaymentHost interface {
	Page(gatewayOrderID string) ([]byte, error)
	Deliver(ctx context.Context, gatewayOrderID string, raw []byte) (payment.Result, error)
	Dismiss(ctx context.Context, gatewayOrderID string) error
}

// PaymentHandler serves the gateway checkout page and receives its single
// completion message. These routes carry no session; the gateway order id is the
// only key.
type PaymentHandler struct {
	bridge  PaymentHost
	timeout time.Duration
}

func NewPaymentHandler(bridge PaymentHost, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		bridge:  bridge,
		timeout: timeout,
	}
}

type GatewayAckDTO struct {
	Status  string `json:"status"`
	Success bool   `json:"success"`
}

// GET /pay/{order_id}
func (h *PaymentHandler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := h.bridge.Page(chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// POST /pay/{order_id}/message
func (h *PaymentHandler) Message(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxGatewayMessageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "message_too_large", "gateway message too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "unreadable body")
		return
	}

	res, err := h.bridge.Deliver(ctx, chi.URLParam(r, "order_id"), raw)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, GatewayAckDTO{Status: "received", Success: res.Success})
}

// POST /pay/{order_id}/dismiss
func (h *PaymentHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.bridge.Dismiss(ctx, chi.URLParam(r, "order_id")); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, GatewayAckDTO{Status: "dismissed"})
}

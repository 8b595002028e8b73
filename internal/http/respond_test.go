package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.NewValidationError("Your cart is empty"), http.StatusBadRequest, "validation_error"},
		{"rejection keeps backend status", &domain.Error{Kind: domain.KindBackendRejection, Status: http.StatusConflict, Message: "x"}, http.StatusConflict, "backend_rejection"},
		{"rejection without status", &domain.Error{Kind: domain.KindBackendRejection, Message: "x"}, http.StatusBadGateway, "backend_rejection"},
		{"transport", &domain.Error{Kind: domain.KindTransport, Status: 500, Message: domain.NetworkErrorMessage}, http.StatusBadGateway, "network_error"},
		{"gateway cancelled", domain.NewGatewayCancelled(payment.CancelledByUser), http.StatusConflict, "payment_cancelled"},
		{"no session", session.ErrNoSession, http.StatusUnauthorized, "unauthorized"},
		{"illegal transition", fmt.Errorf("%w: a -> b", checkout.IllegalTransitionError), http.StatusConflict, "illegal_state"},
		{"not pending", payment.ErrSessionNotPending, http.StatusNotFound, "session_not_pending"},
		{"malformed", fmt.Errorf("%w: empty body", payment.ErrMalformedMessage), http.StatusBadRequest, "malformed_message"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			handleError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var er ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
			assert.Equal(t, tt.code, er.Code)
		})
	}
}

func TestHandleError_DomainMessageVerbatim(t *testing.T) {
	w := httptest.NewRecorder()

	handleError(w, &domain.Error{Kind: domain.KindBackendRejection, Status: http.StatusNotFound, Message: "Cart not found"})

	var er ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
	assert.Equal(t, "Cart not found", er.Error)
}

type stubSessions struct {
	s   *domain.Session
	err error
}

func (s stubSessions) Current(context.Context) (*domain.Session, error) {
	return s.s, s.err
}

func TestAuthMiddleware(t *testing.T) {
	var seen domain.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = sessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		src    stubSessions
		status int
	}{
		{"valid", stubSessions{s: &domain.Session{UserID: 5, Token: "jwt"}}, http.StatusOK},
		{"no session", stubSessions{err: session.ErrNoSession}, http.StatusUnauthorized},
		{"empty token", stubSessions{s: &domain.Session{UserID: 5}}, http.StatusUnauthorized},
		{"store failure", stubSessions{err: errors.New("redis down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = domain.Session{}
			w := httptest.NewRecorder()

			AuthMiddleware(tt.src)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, domain.Session{UserID: 5, Token: "jwt"}, seen)
			}
		})
	}
}

func TestRequestIDMiddleware_KeepsIncomingID(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = getRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

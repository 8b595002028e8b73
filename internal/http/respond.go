package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxRequestBodyBytes = 1 << 20

var validate = validator.New()

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error(err, "failed to encode response", nil)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps a flow error onto an HTTP status. Messages of domain errors
// are shown verbatim.
func handleError(w http.ResponseWriter, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		status, code := statusForKind(de)
		respondError(w, status, code, de.Message)
		return
	}

	switch {
	case errors.Is(err, session.ErrNoSession):
		respondError(w, http.StatusUnauthorized, "unauthorized", "please log in")
	case errors.Is(err, checkout.IllegalTransitionError):
		respondError(w, http.StatusConflict, "illegal_state", err.Error())
	case errors.Is(err, payment.ErrSessionNotPending):
		respondError(w, http.StatusNotFound, "session_not_pending", "payment session is not pending")
	case errors.Is(err, payment.ErrMalformedMessage):
		respondError(w, http.StatusBadRequest, "malformed_message", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	case errors.Is(err, context.Canceled):
		respondError(w, http.StatusRequestTimeout, "cancelled", "request cancelled")
	default:
		logger.Error(err, "unhandled error", nil)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func statusForKind(e *domain.Error) (int, string) {
	switch e.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest, "validation_error"
	case domain.KindBackendRejection:
		if e.Status >= 400 && e.Status < 600 {
			return e.Status, "backend_rejection"
		}
		return http.StatusBadGateway, "backend_rejection"
	case domain.KindGatewayCancelled:
		return http.StatusConflict, "payment_cancelled"
	case domain.KindTransport:
		return http.StatusBadGateway, "network_error"
	case domain.KindSettlementPersist:
		return http.StatusBadGateway, "settlement_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads a bounded JSON body and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "invalid_request", "request body is required")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", describeValidation(err))
		return false
	}
	return true
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	return fe.Field() + " failed on " + fe.Tag()
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/remote"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

type AuthHandler struct {
	sessions *session.Manager
	client   *remote.Client
	registry *checkout.Registry
	timeout  time.Duration
}

func NewAuthHandler(sessions *session.Manager, client *remote.Client, registry *checkout.Registry, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		client:   client,
		registry: registry,
		timeout:  timeout,
	}
}

type LoginRequestDTO struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type LoginResponseDTO struct {
	UserID int64 `json:"user_id"`
}

type PhoneRequestDTO struct {
	Phone string `json:"phone" validate:"required"`
}

type VerifyOTPRequestDTO struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required,numeric"`
}

type MessageResponseDTO struct {
	Message string `json:"message"`
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.sessions.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		logger.WithContext(ctx).WithField("request_id", getRequestID(r.Context())).WithError(err).Warn("login failed")
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponseDTO{UserID: s.UserID})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.sessions.Logout(ctx); err != nil {
		handleError(w, err)
		return
	}
	h.registry.Remove(s.UserID)

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.Registration
	if !decodeJSON(w, r, &req) {
		return
	}

	res := h.client.Register(ctx, req)
	if !res.Success {
		handleError(w, res.Err())
		return
	}

	respondJSON(w, http.StatusCreated, res.Data)
}

// POST /api/v1/auth/otp/send
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	h.otp(w, r, h.client.SendOTP)
}

// POST /api/v1/auth/otp/resend
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	h.otp(w, r, h.client.ResendOTP)
}

// POST /api/v1/auth/otp/verify
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req VerifyOTPRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	res := h.client.VerifyOTP(ctx, req.Phone, req.Code)
	if !res.Success {
		handleError(w, res.Err())
		return
	}

	respondJSON(w, http.StatusOK, MessageResponseDTO{Message: res.Data})
}

func (h *AuthHandler) otp(w http.ResponseWriter, r *http.Request, send func(ctx context.Context, phone string) remote.Result[string]) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PhoneRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	res := send(ctx, req.Phone)
	if !res.Success {
		handleError(w, res.Err())
		return
	}

	respondJSON(w, http.StatusOK, MessageResponseDTO{Message: res.Data})
}

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth      *AuthHandler
	Catalog   *CatalogHandler
	Cart      *CartHandler
	Addresses *AddressHandler
	Checkout  *CheckoutHandler
	Orders    *OrdersHandler
	Payment   *PaymentHandler
}

func NewRouter(h Handlers, sessions SessionSource, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Payment bridge host, loaded by the embedded web view
	r.Route("/pay/{order_id}", func(r chi.Router) {
		r.Get("/", h.Payment.Page)
		r.Post("/message", h.Payment.Message)
		r.Post("/dismiss", h.Payment.Dismiss)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/register", h.Auth.Register)
			r.Post("/otp/send", h.Auth.SendOTP)
			r.Post("/otp/verify", h.Auth.VerifyOTP)
			r.Post("/otp/resend", h.Auth.ResendOTP)
			r.With(AuthMiddleware(sessions)).Post("/logout", h.Auth.Logout)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", h.Catalog.Categories)
			r.Get("/search", h.Catalog.Search)
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(sessions))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{cart_item_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", h.Cart.RemoveItem)
				r.Post("/promo", h.Cart.ApplyPromo)
				r.Delete("/promo", h.Cart.RemovePromo)
				r.Put("/payment-mode", h.Cart.SetPaymentMode)
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", h.Addresses.ListAddresses)
				r.Post("/", h.Addresses.AddAddress)
				r.Put("/{id}", h.Addresses.UpdateAddress)
				r.Delete("/{id}", h.Addresses.DeleteAddress)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", h.Checkout.GetCheckout)
				r.Put("/address", h.Checkout.SelectAddress)
				r.Post("/", h.Checkout.Submit)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders.ListOrders)
				r.Post("/{order_id}/cancel", h.Orders.CancelOrder)
			})
		})
	})

	return r
}

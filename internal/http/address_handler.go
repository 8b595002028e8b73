package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/checkout"
)

type AddressHandler struct {
	registry *checkout.Registry
	timeout  time.Duration
}

func NewAddressHandler(registry *checkout.Registry, timeout time.Duration) *AddressHandler {
	return &AddressHandler{
		registry: registry,
		timeout:  timeout,
	}
}

// AddressRequestDTO is validated by the orchestrator after sanitizing.
type AddressRequestDTO struct {
	Address  string `json:"address"`
	Landmark string `json:"landmark"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pin      string `json:"pin"`
	Mobile   string `json:"mobile"`
}

func (d AddressRequestDTO) toDomain(id int64) domain.DeliveryAddress {
	return domain.DeliveryAddress{
		ID:       id,
		Address:  d.Address,
		Landmark: d.Landmark,
		City:     d.City,
		State:    d.State,
		Pin:      d.Pin,
		Mobile:   d.Mobile,
	}
}

// GET /api/v1/addresses
func (h *AddressHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	v, err := o.Refresh(ctx)
	if err != nil {
		handleError(w, err)
		return
	}

	addresses := v.Addresses
	if addresses == nil {
		addresses = make([]domain.DeliveryAddress, 0)
	}
	respondJSON(w, http.StatusOK, addresses)
}

// POST /api/v1/addresses
func (h *AddressHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	var req AddressRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	added, err := o.AddAddress(ctx, req.toDomain(0))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, added)
}

// PUT /api/v1/addresses/{id}
func (h *AddressHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req AddressRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := o.UpdateAddress(ctx, req.toDomain(id))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DELETE /api/v1/addresses/{id}
func (h *AddressHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := orchestratorFor(w, r, h.registry)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	v, err := o.DeleteAddress(ctx, id)
	respondView(w, http.StatusOK, v, err)
}

package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/remote"
)

type CatalogHandler struct {
	client  *remote.Client
	timeout time.Duration
}

func NewCatalogHandler(client *remote.Client, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		client:  client,
		timeout: timeout,
	}
}

// GET /api/v1/catalog/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res := h.client.Categories(ctx)
	if !res.Success {
		handleError(w, res.Err())
		return
	}

	categories := res.Data
	if categories == nil {
		categories = make([]domain.Category, 0)
	}
	respondJSON(w, http.StatusOK, categories)
}

// GET /api/v1/catalog/search?name=&category=&min_price=&max_price=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	query := remote.SearchQuery{
		Name:     strings.TrimSpace(q.Get("name")),
		Category: strings.TrimSpace(q.Get("category")),
	}

	var ok bool
	if query.MinPrice, ok = priceParam(w, q.Get("min_price"), "min_price"); !ok {
		return
	}
	if query.MaxPrice, ok = priceParam(w, q.Get("max_price"), "max_price"); !ok {
		return
	}
	if query.MinPrice != nil && query.MaxPrice != nil && *query.MinPrice > *query.MaxPrice {
		respondError(w, http.StatusBadRequest, "invalid_price_range", "min_price must not exceed max_price")
		return
	}

	res := h.client.SearchProducts(ctx, query)
	if !res.Success {
		handleError(w, res.Err())
		return
	}

	products := res.Data
	if products == nil {
		products = make([]domain.Product, 0)
	}
	respondJSON(w, http.StatusOK, products)
}

func priceParam(w http.ResponseWriter, raw, name string) (*float64, bool) {
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		respondError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a non-negative number")
		return nil, false
	}
	return &v, true
}

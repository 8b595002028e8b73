package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/go_cart/storefront/domain"
)

type SearchQuery struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

func (q SearchQuery) values() url.Values {
	v := url.Values{}
	if q.Name != "" {
		v.Set("name", q.Name)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.MinPrice != nil {
		v.Set("minPrice", strconv.FormatFloat(*q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64))
	}
	return v
}

func (c *Client) SearchProducts(ctx context.Context, q SearchQuery) Result[[]domain.Product] {
	return call[[]domain.Product](ctx, c, "search_products", http.MethodGet, "/api/product/search", q.values(), nil)
}

func (c *Client) Categories(ctx context.Context) Result[[]domain.Category] {
	return call[[]domain.Category](ctx, c, "categories", http.MethodGet, "/api/category/all", nil, nil)
}

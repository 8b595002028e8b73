package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/go_cart/storefront/domain"
)

func (c *Client) ApplyPromo(ctx context.Context, userID int64, code string) Result[domain.PromoResult] {
	return call[domain.PromoResult](ctx, c, "apply_promo", http.MethodPost,
		fmt.Sprintf("/api/promos/apply/%d", userID),
		url.Values{"promoCode": {code}}, nil)
}

// SetCartDiscount stores the discount against the cart so the order is priced the way the user saw it.
func (c *Client) SetCartDiscount(ctx context.Context, cartID int64, discount float64) Result[string] {
	return call[string](ctx, c, "set_cart_discount", http.MethodPut,
		fmt.Sprintf("/api/v1/carts/%d/discount", cartID),
		url.Values{"discount": {strconv.FormatFloat(discount, 'f', -1, 64)}}, nil)
}

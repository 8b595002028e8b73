package remote

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/domain"
)

// The backend keeps a single fee row.
const deliveryFeePath = "/fee/delivery/1"

func (c *Client) DeliveryCharges(ctx context.Context) Result[domain.DeliveryCharges] {
	return call[domain.DeliveryCharges](ctx, c, "delivery_charges", http.MethodGet, deliveryFeePath, nil, nil)
}

package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/domain"
)

// CreateOrder places an order for the user's current cart. For ONLINE mode the
// answer carries the gateway order id and the amount the gateway will charge.
func (c *Client) CreateOrder(ctx context.Context, userID, addressID int64, mode domain.PaymentMode) Result[domain.PlacedOrder] {
	return call[domain.PlacedOrder](ctx, c, "create_order", http.MethodPost,
		fmt.Sprintf("/api/place-order/%d/%d", userID, addressID),
		url.Values{"paymentMode": {mode.String()}}, nil)
}

func (c *Client) OrderHistory(ctx context.Context, userID int64) Result[[]domain.Order] {
	return call[[]domain.Order](ctx, c, "order_history", http.MethodGet,
		fmt.Sprintf("/api/place-order/history/%d", userID), nil, nil)
}

func (c *Client) CancelOrder(ctx context.Context, orderID int64, reason string) Result[string] {
	return call[string](ctx, c, "cancel_order", http.MethodPost,
		fmt.Sprintf("/api/place-order/cancel/%d", orderID),
		url.Values{"reason": {reason}}, nil)
}

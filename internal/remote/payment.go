package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/domain"
)

// UpdatePaymentStatus pushes the terminal gateway outcome to the backend, keyed by
// the gateway order id. The backend verifies the payment with the gateway itself.
func (c *Client) UpdatePaymentStatus(ctx context.Context, gatewayOrderID string, status domain.PaymentStatus, paymentID string) Result[string] {
	return call[string](ctx, c, "update_payment_status", http.MethodPut,
		fmt.Sprintf("/payment/%s/%s/%s",
			url.PathEscape(gatewayOrderID), status, url.PathEscape(paymentID)), nil, nil)
}

package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_cart/storefront/domain"
)

func (c *Client) ListAddresses(ctx context.Context, userID int64) Result[[]domain.DeliveryAddress] {
	return call[[]domain.DeliveryAddress](ctx, c, "list_addresses", http.MethodGet,
		fmt.Sprintf("/api/delivery-address/getAll/%d", userID), nil, nil)
}

func (c *Client) GetAddress(ctx context.Context, addressID int64) Result[domain.DeliveryAddress] {
	return call[domain.DeliveryAddress](ctx, c, "get_address", http.MethodGet,
		fmt.Sprintf("/api/delivery-address/byAddressId/%d", addressID), nil, nil)
}

func (c *Client) AddAddress(ctx context.Context, userID int64, in domain.DeliveryAddress) Result[domain.DeliveryAddress] {
	in.ID = 0
	return call[domain.DeliveryAddress](ctx, c, "add_address", http.MethodPost,
		fmt.Sprintf("/api/delivery-address/%d", userID), nil, in)
}

func (c *Client) UpdateAddress(ctx context.Context, in domain.DeliveryAddress) Result[domain.DeliveryAddress] {
	return call[domain.DeliveryAddress](ctx, c, "update_address", http.MethodPut,
		fmt.Sprintf("/api/delivery-address/%d", in.ID), nil, in)
}

func (c *Client) DeleteAddress(ctx context.Context, addressID int64) Result[string] {
	return call[string](ctx, c, "delete_address", http.MethodDelete,
		fmt.Sprintf("/api/delivery-address/%d", addressID), nil, nil)
}

package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_cart/storefront/domain"
)

type QuantityAction string

const (
	QuantityIncrement QuantityAction = "add"
	QuantityDecrement QuantityAction = "dec"
)

type addToCartRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

func (c *Client) GetCart(ctx context.Context, userID int64) Result[domain.CartSnapshot] {
	res := call[domain.CartSnapshot](ctx, c, "get_cart", http.MethodGet,
		fmt.Sprintf("/api/v1/carts/%d", userID), nil, nil)
	if res.Success {
		res.Data.SortItems()
	}
	return res
}

func (c *Client) AddToCart(ctx context.Context, userID, productID int64, quantity int32) Result[string] {
	return call[string](ctx, c, "add_to_cart", http.MethodPost,
		fmt.Sprintf("/api/v1/carts/%d/add", userID), nil,
		addToCartRequest{ProductID: productID, Quantity: quantity})
}

// ChangeQuantity moves a line up or down by one unit.
func (c *Client) ChangeQuantity(ctx context.Context, cartItemID int64, action QuantityAction) Result[string] {
	return call[string](ctx, c, "change_quantity", http.MethodPut,
		fmt.Sprintf("/api/cartItem/%d/%s", cartItemID, action), nil, nil)
}

func (c *Client) RemoveFromCart(ctx context.Context, userID, productID int64) Result[string] {
	return call[string](ctx, c, "remove_from_cart", http.MethodPut,
		fmt.Sprintf("/api/v1/carts/remove/%d/%d", userID, productID), nil, nil)
}

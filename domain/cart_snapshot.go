package domain

import (
	"sort"
	"time"
)

type CartItem struct {
	CartItemID  int64   `json:"cartItemId"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	UnitPrice   float64 `json:"price"`
	Quantity    int32   `json:"quantity"`
	ImageURL    string  `json:"imageUrl"`
}

// CartSnapshot is the client-side copy of the server cart. The server owns it;
// the copy is replaced wholesale after every mutation.
type CartSnapshot struct {
	CartID     int64      `json:"cartId"`
	Items      []CartItem `json:"cartItemsDto"`
	Subtotal   float64    `json:"cartTotalPrice"`
	CapturedAt time.Time  `json:"capturedAt"`
}

func (c *CartSnapshot) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// SortItems orders lines by cart item id so the list is stable between refreshes.
func (c *CartSnapshot) SortItems() {
	sort.SliceStable(c.Items, func(i, j int) bool {
		return c.Items[i].CartItemID < c.Items[j].CartItemID
	})
}

func (c *CartSnapshot) Item(cartItemID int64) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	for _, item := range c.Items {
		if item.CartItemID == cartItemID {
			return item, true
		}
	}
	return CartItem{}, false
}

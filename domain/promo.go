package domain

// PromoState mirrors a server-validated promo code. It never exists on the server
// as such; only the resulting discount is persisted against the cart.
type PromoState struct {
	Code           string  `json:"code,omitempty"`
	DiscountAmount float64 `json:"discountAmount"`
}

func (p PromoState) Active() bool {
	return p.Code != ""
}

type PromoResult struct {
	Message        string  `json:"message"`
	DiscountAmount float64 `json:"discountAmount"`
	PromoCode      string  `json:"promoCode"`
}

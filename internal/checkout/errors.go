package checkout

import (
	"errors"

	"github.com/fjod/go_cart/storefront/domain"
)

var IllegalTransitionError = errors.New("illegal transition of checkout state")

// User-facing validation messages.
const (
	msgEmptyCart        = "Your cart is empty"
	msgAddressRequired  = "Please select a delivery address"
	msgPromoRequired    = "Please enter a promo code"
	msgQuantityTooLow   = "Quantity must be at least 1"
	msgUnknownItem      = "Item is no longer in your cart"
	msgUnknownAddress   = "Delivery address not found"
	msgCheckoutInFlight = "Checkout is already in progress"

	msgNothingToPayOnline = "Nothing to pay online, please choose Cash on Delivery"
)

func validation(msg string) error {
	return domain.NewValidationError(msg)
}

package domain

import "math"

// PayableTotal applies the discount before the delivery charge and clamps at zero.
func PayableTotal(subtotal, discount, deliveryCharge float64) float64 {
	return math.Max(0, subtotal-discount+deliveryCharge)
}

package domain

import (
	"fmt"
	"math"
	"strings"
)

type PaymentMode string

const (
	PaymentModeOnline         PaymentMode = "ONLINE"
	PaymentModeCashOnDelivery PaymentMode = "CASH_ON_DELIVERY"
)

func ParsePaymentMode(s string) (PaymentMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ONLINE":
		return PaymentModeOnline, nil
	case "CASH_ON_DELIVERY", "COD":
		return PaymentModeCashOnDelivery, nil
	default:
		return "", fmt.Errorf("unknown payment mode %q", s)
	}
}

func (m PaymentMode) String() string {
	return string(m)
}

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// DeliveryCharges is the fee table returned by the backend; the charge applied
// to a checkout depends on the selected payment mode.
type DeliveryCharges struct {
	OnCashOnDelivery float64 `json:"deliveryChargesOnCashOnDelivery"`
	OnOnline         float64 `json:"deliveryChargesOnOnlineDelivery"`
}

func (d DeliveryCharges) For(mode PaymentMode) float64 {
	if mode == PaymentModeCashOnDelivery {
		return d.OnCashOnDelivery
	}
	return d.OnOnline
}

// PaymentSession is a one-time gateway checkout created by the backend for an
// ONLINE order.
type PaymentSession struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	AmountMinorUnits int64  `json:"amountMinorUnits"`
	BackendOrderID   int64  `json:"backendOrderId"`
}

func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

package domain

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type PaymentInfo struct {
	ID             int64       `json:"id"`
	GatewayOrderID string      `json:"rozerpayId"`
	Amount         float64     `json:"paymentAmount"`
	Mode           PaymentMode `json:"paymentMode"`
	Status         string      `json:"paymentStatus"`
	RefundAmount   float64     `json:"refundAmount"`
	Notes          string      `json:"paymentNotes"`
}

type OrderItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int32   `json:"quantity"`
}

type DeliveryInfo struct {
	Status string `json:"deliveryStatus"`
}

type Order struct {
	OrderID   int64         `json:"orderId"`
	Status    OrderStatus   `json:"orderStatus"`
	OrderTime string        `json:"orderTime"`
	Items     []OrderItem   `json:"cartItemDto"`
	Payment   *PaymentInfo  `json:"paymentDto,omitempty"`
	Address   string        `json:"address"`
	City      string        `json:"city"`
	Pin       string        `json:"pin"`
	Delivery  *DeliveryInfo `json:"deliveryDto,omitempty"`
}

// Cancellable reports whether the backend still accepts a cancel request.
func (o Order) Cancellable() bool {
	return o.Status == OrderStatusPending
}

// PlacedOrder is the backend answer to order creation.
type PlacedOrder struct {
	OrderID int64       `json:"orderId"`
	Payment PaymentInfo `json:"paymentDto"`
}

// Session derives the gateway checkout session. The amount comes from the
// backend, never from the client-side total.
func (p PlacedOrder) Session() PaymentSession {
	return PaymentSession{
		GatewayOrderID:   p.Payment.GatewayOrderID,
		AmountMinorUnits: ToMinorUnits(p.Payment.Amount),
		BackendOrderID:   p.OrderID,
	}
}

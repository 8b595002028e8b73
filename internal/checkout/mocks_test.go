package checkout

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/journal"
	"github.com/fjod/go_cart/storefront/internal/remote"
)

func ok[T any](data T) remote.Result[T] {
	return remote.Result[T]{Success: true, Data: data, Status: http.StatusOK}
}

func rejected[T any](status int, msg string) remote.Result[T] {
	return remote.Result[T]{Status: status, Message: msg, Kind: domain.KindBackendRejection}
}

func networkError[T any]() remote.Result[T] {
	return remote.Result[T]{Status: http.StatusInternalServerError, Message: domain.NetworkErrorMessage, Kind: domain.KindTransport}
}

type statusUpdate struct {
	GatewayOrderID string
	Status         domain.PaymentStatus
	PaymentID      string
}

// MockBackend implements Backend against an in-memory cart.
type MockBackend struct {
	mu sync.Mutex

	Cart      domain.CartSnapshot
	Addresses []domain.DeliveryAddress
	Charges   domain.DeliveryCharges
	Promo     remote.Result[domain.PromoResult]
	Placed    domain.PlacedOrder

	CreateOrderResult *remote.Result[domain.PlacedOrder]
	ChargesResult     *remote.Result[domain.DeliveryCharges]
	UpdateStatusFails bool
	AddFails          bool
	// QuantityFailsAt rejects the nth quantity step when set.
	QuantityFailsAt int

	// ChargesGate and CreateOrderGate block the call until closed when set.
	ChargesGate     chan struct{}
	CreateOrderGate chan struct{}
	MutationDelay   time.Duration

	Calls         map[string]int
	Discounts     []float64
	StatusUpdates []statusUpdate
	Actions       []remote.QuantityAction
	OrderModes    []domain.PaymentMode

	mutating    int
	maxMutating int
}

func newMockBackend() *MockBackend {
	return &MockBackend{
		Cart: domain.CartSnapshot{
			CartID:   7,
			Subtotal: 900,
			Items: []domain.CartItem{
				{CartItemID: 1, ProductID: 10, ProductName: "Rice", UnitPrice: 300, Quantity: 2},
				{CartItemID: 2, ProductID: 11, ProductName: "Tea", UnitPrice: 300, Quantity: 1},
			},
		},
		Addresses: []domain.DeliveryAddress{
			{ID: 100, Address: "12 MG Road", City: "Pune", State: "MH", Pin: "411001", Mobile: "9876543210"},
		},
		Charges: domain.DeliveryCharges{OnCashOnDelivery: 40, OnOnline: 20},
		Promo:   ok(domain.PromoResult{Message: "Promo applied", DiscountAmount: 90, PromoCode: "SAVE10"}),
		Placed: domain.PlacedOrder{
			OrderID: 55,
			Payment: domain.PaymentInfo{ID: 1, GatewayOrderID: "order_ABC", Amount: 830},
		},
		Calls: make(map[string]int),
	}
}

func (m *MockBackend) count(op string) {
	m.mu.Lock()
	m.Calls[op]++
	m.mu.Unlock()
}

func (m *MockBackend) calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[op]
}

func (m *MockBackend) recomputeLocked() {
	total := 0.0
	for _, it := range m.Cart.Items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	m.Cart.Subtotal = total
}

func (m *MockBackend) enterMutation() func() {
	m.mu.Lock()
	m.mutating++
	if m.mutating > m.maxMutating {
		m.maxMutating = m.mutating
	}
	delay := m.MutationDelay
	m.mu.Unlock()

	time.Sleep(delay)
	return func() {
		m.mu.Lock()
		m.mutating--
		m.mu.Unlock()
	}
}

func (m *MockBackend) GetCart(_ context.Context, _ int64) remote.Result[domain.CartSnapshot] {
	m.count("get_cart")
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.Cart
	snap.Items = append([]domain.CartItem(nil), m.Cart.Items...)
	return ok(snap)
}

func (m *MockBackend) AddToCart(_ context.Context, _, productID int64, quantity int32) remote.Result[string] {
	m.count("add_to_cart")
	defer m.enterMutation()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddFails {
		return rejected[string](http.StatusConflict, "Product out of stock")
	}
	m.Cart.Items = append(m.Cart.Items, domain.CartItem{
		CartItemID: int64(len(m.Cart.Items) + 1), ProductID: productID, UnitPrice: 100, Quantity: quantity,
	})
	m.recomputeLocked()
	return ok("added")
}

func (m *MockBackend) ChangeQuantity(_ context.Context, cartItemID int64, action remote.QuantityAction) remote.Result[string] {
	m.count("change_quantity")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Actions = append(m.Actions, action)
	if m.QuantityFailsAt > 0 && len(m.Actions) == m.QuantityFailsAt {
		return rejected[string](http.StatusConflict, "Only 2 left in stock")
	}
	for i := range m.Cart.Items {
		if m.Cart.Items[i].CartItemID == cartItemID {
			if action == remote.QuantityIncrement {
				m.Cart.Items[i].Quantity++
			} else {
				m.Cart.Items[i].Quantity--
			}
		}
	}
	m.recomputeLocked()
	return ok("updated")
}

func (m *MockBackend) RemoveFromCart(_ context.Context, _, productID int64) remote.Result[string] {
	m.count("remove_from_cart")
	defer m.enterMutation()()
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.Cart.Items[:0]
	for _, it := range m.Cart.Items {
		if it.ProductID != productID {
			items = append(items, it)
		}
	}
	m.Cart.Items = items
	m.recomputeLocked()
	return ok("removed")
}

func (m *MockBackend) ApplyPromo(_ context.Context, _ int64, _ string) remote.Result[domain.PromoResult] {
	m.count("apply_promo")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Promo
}

func (m *MockBackend) SetCartDiscount(_ context.Context, _ int64, discount float64) remote.Result[string] {
	m.count("set_cart_discount")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Discounts = append(m.Discounts, discount)
	return ok("Discount updated")
}

func (m *MockBackend) DeliveryCharges(ctx context.Context) remote.Result[domain.DeliveryCharges] {
	m.count("delivery_charges")
	m.mu.Lock()
	gate := m.ChargesGate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return networkError[domain.DeliveryCharges]()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ChargesResult != nil {
		return *m.ChargesResult
	}
	return ok(m.Charges)
}

func (m *MockBackend) ListAddresses(_ context.Context, _ int64) remote.Result[[]domain.DeliveryAddress] {
	m.count("list_addresses")
	m.mu.Lock()
	defer m.mu.Unlock()
	return ok(append([]domain.DeliveryAddress(nil), m.Addresses...))
}

func (m *MockBackend) AddAddress(_ context.Context, _ int64, in domain.DeliveryAddress) remote.Result[domain.DeliveryAddress] {
	m.count("add_address")
	m.mu.Lock()
	defer m.mu.Unlock()
	in.ID = int64(200 + len(m.Addresses))
	m.Addresses = append(m.Addresses, in)
	return ok(in)
}

func (m *MockBackend) UpdateAddress(_ context.Context, in domain.DeliveryAddress) remote.Result[domain.DeliveryAddress] {
	m.count("update_address")
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Addresses {
		if m.Addresses[i].ID == in.ID {
			m.Addresses[i] = in
			return ok(in)
		}
	}
	return rejected[domain.DeliveryAddress](http.StatusNotFound, "Address not found")
}

func (m *MockBackend) DeleteAddress(_ context.Context, addressID int64) remote.Result[string] {
	m.count("delete_address")
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Addresses[:0]
	for _, a := range m.Addresses {
		if a.ID != addressID {
			kept = append(kept, a)
		}
	}
	m.Addresses = kept
	return ok("deleted")
}

func (m *MockBackend) CreateOrder(ctx context.Context, _, _ int64, mode domain.PaymentMode) remote.Result[domain.PlacedOrder] {
	m.count("create_order")
	m.mu.Lock()
	m.OrderModes = append(m.OrderModes, mode)
	gate := m.CreateOrderGate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return networkError[domain.PlacedOrder]()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateOrderResult != nil {
		return *m.CreateOrderResult
	}
	return ok(m.Placed)
}

func (m *MockBackend) UpdatePaymentStatus(_ context.Context, gatewayOrderID string, status domain.PaymentStatus, paymentID string) remote.Result[string] {
	m.count("update_payment_status")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusUpdates = append(m.StatusUpdates, statusUpdate{gatewayOrderID, status, paymentID})
	if m.UpdateStatusFails {
		return networkError[string]()
	}
	return ok("Payment updated")
}

type MockJournal struct {
	mu       sync.Mutex
	Sessions []domain.PaymentSession
	Outcomes map[string]journal.Status
	Failures []journal.SettlementFailure
}

func newMockJournal() *MockJournal {
	return &MockJournal{Outcomes: make(map[string]journal.Status)}
}

func (j *MockJournal) RecordSession(_ context.Context, _ int64, s domain.PaymentSession) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Sessions = append(j.Sessions, s)
	return nil
}

func (j *MockJournal) RecordOutcome(_ context.Context, id string, status journal.Status, _, _ string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Outcomes[id] = status
	return nil
}

func (j *MockJournal) RecordSettlementFailure(_ context.Context, f journal.SettlementFailure) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Failures = append(j.Failures, f)
	return nil
}

type RecordingNavigator struct {
	mu    sync.Mutex
	Moves []Destination
}

func (n *RecordingNavigator) Navigate(_ int64, to Destination) {
	n.mu.Lock()
	n.Moves = append(n.Moves, to)
	n.mu.Unlock()
}

func (n *RecordingNavigator) last() Destination {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Moves) == 0 {
		return ""
	}
	return n.Moves[len(n.Moves)-1]
}

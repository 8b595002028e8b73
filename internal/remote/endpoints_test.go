package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartMutations_Paths(t *testing.T) {
	var seen []string
	record := func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		_, _ = io.WriteString(w, "ok")
	}
	var added addToCartRequest
	client := newBackend(t, func(r chi.Router) {
		r.Post("/api/v1/carts/{userID}/add", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&added))
			record(w, r)
		})
		r.Put("/api/cartItem/{cartItemID}/{action}", record)
		r.Put("/api/v1/carts/remove/{userID}/{productID}", record)
	})
	ctx := context.Background()

	res := client.AddToCart(ctx, 5, 10, 2)
	require.True(t, res.Success)
	assert.Equal(t, "ok", res.Data)
	assert.True(t, client.ChangeQuantity(ctx, 3, QuantityDecrement).Success)
	assert.True(t, client.RemoveFromCart(ctx, 5, 10).Success)

	assert.Equal(t, addToCartRequest{ProductID: 10, Quantity: 2}, added)
	assert.Equal(t, []string{
		"POST /api/v1/carts/5/add",
		"PUT /api/cartItem/3/dec",
		"PUT /api/v1/carts/remove/5/10",
	}, seen)
}

func TestPromo_ApplyAndPersistDiscount(t *testing.T) {
	var promoCode, discount string
	client := newBackend(t, func(r chi.Router) {
		r.Post("/api/promos/apply/{userID}", func(w http.ResponseWriter, r *http.Request) {
			promoCode = r.URL.Query().Get("promoCode")
			writeJSON(w, http.StatusOK, map[string]any{"message": "Applied", "discountAmount": 90, "promoCode": "SAVE10"})
		})
		r.Put("/api/v1/carts/{cartID}/discount", func(w http.ResponseWriter, r *http.Request) {
			discount = r.URL.Query().Get("discount")
			writeJSON(w, http.StatusOK, "Discount updated")
		})
	})
	ctx := context.Background()

	res := client.ApplyPromo(ctx, 1, "SAVE10")
	require.True(t, res.Success)
	assert.Equal(t, 90.0, res.Data.DiscountAmount)
	assert.Equal(t, "SAVE10", promoCode)

	ack := client.SetCartDiscount(ctx, 7, 0)
	require.True(t, ack.Success)
	assert.Equal(t, "Discount updated", ack.Data)
	assert.Equal(t, "0", discount)
}

func TestCreateOrder_Online(t *testing.T) {
	var mode string
	client := newBackend(t, func(r chi.Router) {
		r.Post("/api/place-order/{userID}/{addressID}", func(w http.ResponseWriter, r *http.Request) {
			mode = r.URL.Query().Get("paymentMode")
			writeJSON(w, http.StatusOK, map[string]any{
				"orderId":    99,
				"paymentDto": map[string]any{"id": 5, "rozerpayId": "order_XYZ", "paymentAmount": 830},
			})
		})
	})

	res := client.CreateOrder(context.Background(), 1, 2, domain.PaymentModeOnline)

	require.True(t, res.Success)
	assert.Equal(t, "ONLINE", mode)
	s := res.Data.Session()
	assert.Equal(t, "order_XYZ", s.GatewayOrderID)
	assert.Equal(t, int64(83000), s.AmountMinorUnits)
	assert.Equal(t, int64(99), s.BackendOrderID)
}

func TestUpdatePaymentStatus_Path(t *testing.T) {
	var path string
	client := newBackend(t, func(r chi.Router) {
		r.Put("/payment/{orderID}/{status}/{paymentID}", func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			_, _ = io.WriteString(w, "updated")
		})
	})

	res := client.UpdatePaymentStatus(context.Background(), "order_XYZ", domain.PaymentStatusCompleted, "pay_123")

	require.True(t, res.Success)
	assert.Equal(t, "/payment/order_XYZ/COMPLETED/pay_123", path)
}

func TestOrders_HistoryAndCancel(t *testing.T) {
	var reason string
	client := newBackend(t, func(r chi.Router) {
		r.Get("/api/place-order/history/{userID}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]any{
				{"orderId": 1, "orderStatus": "PENDING", "paymentDto": map[string]any{"paymentMode": "CASH_ON_DELIVERY"}},
				{"orderId": 2, "orderStatus": "DELIVERED"},
			})
		})
		r.Post("/api/place-order/cancel/{orderID}", func(w http.ResponseWriter, r *http.Request) {
			reason = r.URL.Query().Get("reason")
			_, _ = io.WriteString(w, "Order cancelled")
		})
	})
	ctx := context.Background()

	history := client.OrderHistory(ctx, 1)
	require.True(t, history.Success)
	require.Len(t, history.Data, 2)
	assert.True(t, history.Data[0].Cancellable())
	assert.False(t, history.Data[1].Cancellable())
	assert.Equal(t, domain.PaymentModeCashOnDelivery, history.Data[0].Payment.Mode)

	assert.True(t, client.CancelOrder(ctx, 1, "Changed my mind").Success)
	assert.Equal(t, "Changed my mind", reason)
}

func TestAddresses_CRUD(t *testing.T) {
	var created domain.DeliveryAddress
	var sentID int64
	client := newBackend(t, func(r chi.Router) {
		r.Get("/api/delivery-address/getAll/{userID}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []domain.DeliveryAddress{{ID: 1, City: "Pune"}})
		})
		r.Get("/api/delivery-address/byAddressId/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, domain.DeliveryAddress{ID: 1, City: "Pune"})
		})
		r.Post("/api/delivery-address/{userID}", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			sentID = created.ID
			created.ID = 2
			writeJSON(w, http.StatusCreated, created)
		})
		r.Put("/api/delivery-address/{id}", func(w http.ResponseWriter, r *http.Request) {
			var in domain.DeliveryAddress
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			writeJSON(w, http.StatusOK, in)
		})
		r.Delete("/api/delivery-address/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	ctx := context.Background()

	list := client.ListAddresses(ctx, 1)
	require.True(t, list.Success)
	assert.Len(t, list.Data, 1)

	one := client.GetAddress(ctx, 1)
	require.True(t, one.Success)
	assert.Equal(t, "Pune", one.Data.City)

	added := client.AddAddress(ctx, 1, domain.DeliveryAddress{ID: 55, City: "Goa"})
	require.True(t, added.Success)
	assert.Equal(t, int64(2), added.Data.ID)
	assert.Equal(t, int64(0), sentID)

	updated := client.UpdateAddress(ctx, domain.DeliveryAddress{ID: 2, City: "Mumbai"})
	require.True(t, updated.Success)
	assert.Equal(t, "Mumbai", updated.Data.City)

	deleted := client.DeleteAddress(ctx, 2)
	assert.True(t, deleted.Success)
	assert.Equal(t, http.StatusNoContent, deleted.Status)
}

func TestAuth_NormalizesMobileNumbers(t *testing.T) {
	var login loginRequest
	var registered domain.Registration
	var otpTo string
	client := newBackend(t, func(r chi.Router) {
		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&login))
			writeJSON(w, http.StatusOK, map[string]any{"jwtToken": "jwt", "user": map[string]any{"id": 3}})
		})
		r.Post("/api/users/", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&registered))
			writeJSON(w, http.StatusCreated, map[string]any{"id": 4})
		})
		r.Post("/sms/sendOtp", func(w http.ResponseWriter, r *http.Request) {
			otpTo = r.URL.Query().Get("to")
			_, _ = io.WriteString(w, "OTP sent")
		})
	})
	ctx := context.Background()

	res := client.Login(ctx, " 9876543210 ", "secret")
	require.True(t, res.Success)
	assert.Equal(t, "+919876543210", login.Email)
	assert.Equal(t, "jwt", res.Data.JWTToken)
	assert.Equal(t, int64(3), res.Data.User.ID)

	reg := client.Register(ctx, domain.Registration{Name: "A", Email: "a@b.c", Password: "pw1", PhoneNumber: "9876543210"})
	require.True(t, reg.Success)
	assert.Equal(t, "CUSTOMER", registered.Role)
	assert.Equal(t, "+919876543210", registered.PhoneNumber)

	assert.True(t, client.SendOTP(ctx, "9876543210").Success)
	assert.Equal(t, "+919876543210", otpTo)
}

func TestNormalizeIdentifier(t *testing.T) {
	assert.Equal(t, "+919123456789", NormalizeIdentifier("9123456789"))
	assert.Equal(t, "5123456789", NormalizeIdentifier("5123456789"))
	assert.Equal(t, "user@example.com", NormalizeIdentifier(" user@example.com "))
}

func TestSearchProducts_Query(t *testing.T) {
	var query map[string][]string
	client := newBackend(t, func(r chi.Router) {
		r.Get("/api/product/search", func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.Query()
			writeJSON(w, http.StatusOK, []domain.Product{{ID: 1, Name: "Tea", Price: 120}})
		})
	})
	minPrice := 100.0

	res := client.SearchProducts(context.Background(), SearchQuery{Name: "tea", MinPrice: &minPrice})

	require.True(t, res.Success)
	assert.Len(t, res.Data, 1)
	assert.Equal(t, []string{"tea"}, query["name"])
	assert.Equal(t, []string{"100"}, query["minPrice"])
	assert.NotContains(t, query, "maxPrice")
}

func TestCategories(t *testing.T) {
	client := newBackend(t, func(r chi.Router) {
		r.Get("/api/category/all", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Grains"}, {"id": 2, "name": "Spices"}})
		})
	})

	res := client.Categories(context.Background())

	require.True(t, res.Success)
	assert.Equal(t, []domain.Category{{ID: 1, Name: "Grains"}, {ID: 2, Name: "Spices"}}, res.Data)
}

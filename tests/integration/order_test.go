//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func placeOrder(t *testing.T, token string, req orderRequest) orderResponse {
	t.Helper()

	resp := doPostAuth(t, "/api/orders", req, token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: expected 201, got %d", resp.StatusCode)
	}

	return decodeJSON[orderResponse](t, resp)
}

func TestPlaceOrder_NoAuth(t *testing.T) {
	resp := doPost(t, "/api/orders", testOrder())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	sess := registerCustomer(t, "emptycart")

	req := testOrder()
	req.Items = nil

	resp := doPostAuth(t, "/api/orders", req, sess.Token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_NoCoupon(t *testing.T) {
	sess := registerCustomer(t, "plain")

	order := placeOrder(t, sess.Token, testOrder())

	if !uuidPattern.MatchString(order.ID) {
		t.Errorf("order ID %q is not a valid UUID", order.ID)
	}
	if !order.Subtotal.Equal(decimal.NewFromInt(490)) {
		t.Errorf("subtotal: got %s, want 490", order.Subtotal)
	}
	if !order.Discount.IsZero() {
		t.Errorf("discount: got %s, want 0", order.Discount)
	}
	if !order.Total.Equal(decimal.NewFromInt(490)) {
		t.Errorf("total: got %s, want 490", order.Total)
	}
	if order.Status != "Order Placed" {
		t.Errorf("status: got %q, want %q", order.Status, "Order Placed")
	}
	if order.PaymentMethod != "cash_on_delivery" {
		t.Errorf("payment method: got %q, want %q", order.PaymentMethod, "cash_on_delivery")
	}
	if order.PaymentStatus != "pending" {
		t.Errorf("payment status: got %q, want %q", order.PaymentStatus, "pending")
	}
}

func TestPlaceOrder_PercentageCoupon(t *testing.T) {
	sess := registerCustomer(t, "welcome")

	req := testOrder()
	req.CouponCode = "WELCOME20"

	order := placeOrder(t, sess.Token, req)

	// 20% of 490.00 is 98.00, under the 100.00 cap.
	if !order.Discount.Equal(decimal.NewFromInt(98)) {
		t.Errorf("discount: got %s, want 98", order.Discount)
	}
	if !order.Total.Equal(decimal.NewFromInt(392)) {
		t.Errorf("total: got %s, want 392", order.Total)
	}
	if order.CouponCode != "WELCOME20" {
		t.Errorf("coupon code: got %q, want %q", order.CouponCode, "WELCOME20")
	}
}

func TestPlaceOrder_FixedCoupon(t *testing.T) {
	sess := registerCustomer(t, "flat")

	req := testOrder()
	req.CouponCode = "FLAT50"

	order := placeOrder(t, sess.Token, req)

	if !order.Discount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("discount: got %s, want 50", order.Discount)
	}
	if !order.Total.Equal(decimal.NewFromInt(440)) {
		t.Errorf("total: got %s, want 440", order.Total)
	}
}

func TestPlaceOrder_BelowMinimum(t *testing.T) {
	sess := registerCustomer(t, "smallcart")

	req := testOrder()
	req.Items = []orderItemRequest{
		{Garment: "Shirt", Quantity: 1, UnitPrice: decimal.NewFromInt(150), ServiceType: "Wash & Iron"},
	}
	req.CouponCode = "WELCOME20" // requires a 200.00 minimum

	resp := doPostAuth(t, "/api/orders", req, sess.Token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_UnknownCoupon(t *testing.T) {
	sess := registerCustomer(t, "nocoupon")

	req := testOrder()
	req.CouponCode = "NONEXISTENT"

	resp := doPostAuth(t, "/api/orders", req, sess.Token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetOrder_And_List(t *testing.T) {
	sess := registerCustomer(t, "lister")

	placed := placeOrder(t, sess.Token, testOrder())

	resp := doGetAuth(t, "/api/orders/"+placed.ID, sess.Token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d", resp.StatusCode)
	}
	got := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if got.ID != placed.ID {
		t.Errorf("order id: got %q, want %q", got.ID, placed.ID)
	}
	if len(got.Items) != 2 {
		t.Errorf("items: got %d, want 2", len(got.Items))
	}

	resp = doGetAuth(t, "/api/orders", sess.Token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list orders: expected 200, got %d", resp.StatusCode)
	}
	list := decodeJSON[[]orderResponse](t, resp)
	if len(list) != 1 {
		t.Fatalf("expected 1 order, got %d", len(list))
	}
}

func TestGetOrder_OtherCustomer(t *testing.T) {
	owner := registerCustomer(t, "owner")
	stranger := registerCustomer(t, "stranger")

	placed := placeOrder(t, owner.Token, testOrder())

	resp := doGetAuth(t, "/api/orders/"+placed.ID, stranger.Token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestOrderHistory(t *testing.T) {
	sess := registerCustomer(t, "history")

	placed := placeOrder(t, sess.Token, testOrder())

	resp := doGetAuth(t, "/api/orders/"+placed.ID+"/history", sess.Token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	history := decodeJSON[[]statusChangeResponse](t, resp)
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].Status != "Order Placed" {
		t.Errorf("status: got %q, want %q", history[0].Status, "Order Placed")
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	sess := registerCustomer(t, "lifecycle")
	adminToken := loginAdmin(t)

	placed := placeOrder(t, sess.Token, testOrder())
	statusBody := func(s string) map[string]string { return map[string]string{"status": s} }

	// Customers cannot drive the lifecycle.
	resp := doPutAuth(t, "/api/admin/orders/"+placed.ID+"/status", statusBody("Picked Up"), sess.Token)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("customer update: expected 403, got %d", resp.StatusCode)
	}

	// Skipping ahead is allowed under the forward policy.
	resp = doPutAuth(t, "/api/admin/orders/"+placed.ID+"/status", statusBody("Out for Delivery"), adminToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("skip ahead: expected 200, got %d", resp.StatusCode)
	}
	updated := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()
	if updated.Status != "Out for Delivery" {
		t.Errorf("status: got %q, want %q", updated.Status, "Out for Delivery")
	}

	// Backward moves are rejected.
	resp = doPutAuth(t, "/api/admin/orders/"+placed.ID+"/status", statusBody("Washing"), adminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("backward: expected 422, got %d", resp.StatusCode)
	}

	resp = doPutAuth(t, "/api/admin/orders/"+placed.ID+"/status", statusBody("Delivered"), adminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deliver: expected 200, got %d", resp.StatusCode)
	}

	// Delivered is terminal.
	resp = doPutAuth(t, "/api/admin/orders/"+placed.ID+"/status", statusBody("Out for Delivery"), adminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("after delivered: expected 422, got %d", resp.StatusCode)
	}

	resp = doGetAuth(t, "/api/orders/"+placed.ID+"/history", sess.Token)
	defer resp.Body.Close()
	history := decodeJSON[[]statusChangeResponse](t, resp)
	if len(history) != 3 {
		t.Errorf("expected 3 history entries, got %d", len(history))
	}
}

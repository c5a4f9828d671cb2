package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dhobighat/dhobighat/internal/domain/auth"
	"github.com/dhobighat/dhobighat/internal/domain/coupon"
)

// fakeStore is an in-memory order Repository. Like the real store it
// consumes a coupon usage slot atomically with order creation.
type fakeStore struct {
	mu      sync.Mutex
	orders  map[string]*Order
	history map[string][]StatusChange
	coupons map[string]*coupon.Coupon
}

func newFakeStore(coupons ...*coupon.Coupon) *fakeStore {
	s := &fakeStore{
		orders:  make(map[string]*Order),
		history: make(map[string][]StatusChange),
		coupons: make(map[string]*coupon.Coupon),
	}
	for _, c := range coupons {
		s.coupons[coupon.NormalizeCode(c.Code)] = c
	}
	return s
}

func (s *fakeStore) Create(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.CouponCode != "" {
		c, ok := s.coupons[o.CouponCode]
		if !ok || !c.Active {
			return coupon.ErrUsageExhausted
		}
		if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
			return coupon.ErrUsageExhausted
		}
		c.UsedCount++
	}

	cp := *o
	s.orders[o.ID] = &cp
	s.history[o.ID] = []StatusChange{{Status: o.Status, ActorID: o.CustomerID, ChangedAt: o.CreatedAt}}
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) List(_ context.Context, f Filter) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Order
	for _, o := range s.orders {
		if f.CustomerID != "" && o.CustomerID != f.CustomerID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id string, from, to Status, actorID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	if o.Status != from {
		return nil, &InvalidTransitionError{From: o.Status, To: to}
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	s.history[id] = append(s.history[id], StatusChange{Status: to, ActorID: actorID, ChangedAt: o.UpdatedAt})
	cp := *o
	return &cp, nil
}

func (s *fakeStore) History(_ context.Context, id string) ([]StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StatusChange(nil), s.history[id]...), nil
}

// storeValidator validates against the coupons held by a fakeStore,
// mirroring the read-only production validator.
type storeValidator struct {
	store *fakeStore
}

func (v storeValidator) Validate(_ context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	v.store.mu.Lock()
	c, ok := v.store.coupons[coupon.NormalizeCode(code)]
	if ok {
		cp := *c
		c = &cp
	}
	v.store.mu.Unlock()

	if !ok {
		return decimal.Zero, coupon.ErrNotFound
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return decimal.Zero, coupon.ErrUsageExhausted
	}
	return c.Discount(subtotal)
}

func activeCoupon(code string, limit int) *coupon.Coupon {
	return &coupon.Coupon{
		Code:       code,
		Kind:       coupon.KindFixed,
		Value:      dec("50"),
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		UsageLimit: limit,
		Active:     true,
	}
}

func placeReq(customerID, couponCode string) PlaceOrderRequest {
	return PlaceOrderRequest{
		CustomerID: customerID,
		Items:      []Item{item("shirt", 2, "60.00"), item("saree", 1, "120.00")},
		Address:    Address{Street: "12 MG Road", City: "Pune"},
		Pickup:     Schedule{Date: time.Now().AddDate(0, 0, 1), Slot: "9AM-11AM"},
		Delivery:   Schedule{Date: time.Now().AddDate(0, 0, 3), Slot: "5PM-7PM"},
		CouponCode: couponCode,
	}
}

func admin() auth.Actor { return auth.Actor{CustomerID: "admin-1", Role: auth.RoleAdmin} }

func cust(id string) auth.Actor { return auth.Actor{CustomerID: id, Role: auth.RoleCustomer} }

func TestPlaceOrder(t *testing.T) {
	store := newFakeStore(activeCoupon("FLAT50", 0))
	svc := NewService(storeValidator{store}, store, PolicyForward)

	o, err := svc.PlaceOrder(context.Background(), placeReq("cust-1", "flat50"))
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, StatusPlaced, o.Status)
	assert.Equal(t, PaymentCashOnDelivery, o.PaymentMethod)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, "FLAT50", o.CouponCode)
	assert.True(t, dec("240.00").Equal(o.Subtotal), "subtotal %s", o.Subtotal)
	assert.True(t, dec("50.00").Equal(o.Discount), "discount %s", o.Discount)
	assert.True(t, dec("190.00").Equal(o.Total), "total %s", o.Total)

	// The initial status is recorded in history.
	hist, err := svc.History(context.Background(), o.ID, cust("cust-1"))
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, StatusPlaced, hist[0].Status)
}

func TestPlaceOrder_NoCoupon(t *testing.T) {
	store := newFakeStore()
	svc := NewService(storeValidator{store}, store, PolicyForward)

	o, err := svc.PlaceOrder(context.Background(), placeReq("cust-1", ""))
	require.NoError(t, err)

	assert.Empty(t, o.CouponCode)
	assert.True(t, o.Discount.IsZero())
	assert.True(t, o.Subtotal.Equal(o.Total))
}

func TestPlaceOrder_InvalidCart(t *testing.T) {
	store := newFakeStore()
	svc := NewService(storeValidator{store}, store, PolicyForward)

	req := placeReq("cust-1", "")
	req.Items = nil

	_, err := svc.PlaceOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmptyItems)
	assert.Empty(t, store.orders, "no order must be created")
}

func TestPlaceOrder_ExhaustedCoupon(t *testing.T) {
	c := activeCoupon("ONESHOT", 1)
	c.UsedCount = 1
	store := newFakeStore(c)
	svc := NewService(storeValidator{store}, store, PolicyForward)

	_, err := svc.PlaceOrder(context.Background(), placeReq("cust-1", "ONESHOT"))
	assert.ErrorIs(t, err, coupon.ErrUsageExhausted)
	assert.Empty(t, store.orders)
}

// TestPlaceOrder_ConcurrentLastSlot drives more concurrent checkouts than
// the coupon has usage slots. Exactly UsageLimit orders must succeed; the
// rest must fail with ErrUsageExhausted and leave no order behind.
func TestPlaceOrder_ConcurrentLastSlot(t *testing.T) {
	const (
		limit    = 5
		attempts = limit + 3
	)

	store := newFakeStore(activeCoupon("LIMITED", limit))
	svc := NewService(storeValidator{store}, store, PolicyForward)

	var (
		mu        sync.Mutex
		succeeded int
		exhausted int
	)

	g, ctx := errgroup.WithContext(context.Background())
	for i := range attempts {
		customerID := []string{"a", "b", "c", "d", "e", "f", "g", "h"}[i]
		g.Go(func() error {
			_, err := svc.PlaceOrder(ctx, placeReq(customerID, "LIMITED"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, coupon.ErrUsageExhausted):
				exhausted++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, limit, succeeded)
	assert.Equal(t, attempts-limit, exhausted)
	assert.Len(t, store.orders, limit)
	assert.Equal(t, limit, store.coupons["LIMITED"].UsedCount)
}

func TestGetOrder_Visibility(t *testing.T) {
	store := newFakeStore()
	svc := NewService(storeValidator{store}, store, PolicyForward)

	o, err := svc.PlaceOrder(context.Background(), placeReq("cust-1", ""))
	require.NoError(t, err)

	// Owner sees their order.
	got, err := svc.GetOrder(context.Background(), o.ID, cust("cust-1"))
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	// Another customer gets not-found, not forbidden.
	_, err = svc.GetOrder(context.Background(), o.ID, cust("cust-2"))
	assert.ErrorIs(t, err, ErrNotFound)

	// Admins see everything.
	_, err = svc.GetOrder(context.Background(), o.ID, admin())
	assert.NoError(t, err)
}

func TestListOrders_CustomerScoped(t *testing.T) {
	store := newFakeStore()
	svc := NewService(storeValidator{store}, store, PolicyForward)

	_, err := svc.PlaceOrder(context.Background(), placeReq("cust-1", ""))
	require.NoError(t, err)
	_, err = svc.PlaceOrder(context.Background(), placeReq("cust-2", ""))
	require.NoError(t, err)

	// A customer asking for someone else's orders still only gets their own.
	got, err := svc.ListOrders(context.Background(), Filter{CustomerID: "cust-2"}, cust("cust-1"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cust-1", got[0].CustomerID)

	// Admin with no filter sees all.
	got, err = svc.ListOrders(context.Background(), Filter{}, admin())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAdvanceStatus(t *testing.T) {
	store := newFakeStore()
	svc := NewService(storeValidator{store}, store, PolicyForward)

	o, err := svc.PlaceOrder(context.Background(), placeReq("cust-1", ""))
	require.NoError(t, err)

	// Customers may not change status.
	_, err = svc.AdvanceStatus(context.Background(), o.ID, StatusPickedUp, cust("cust-1"))
	assert.ErrorIs(t, err, auth.ErrForbidden)

	// Admin skips ahead under the forward policy.
	got, err := svc.AdvanceStatus(context.Background(), o.ID, StatusReady, admin())
	require.NoError(t, err)
	assert.Equal(t, StatusReady, got.Status)

	// Self move is rejected.
	_, err = svc.AdvanceStatus(context.Background(), o.ID, StatusReady, admin())
	var transErr *InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, StatusReady, transErr.From)

	// Backward move is rejected.
	_, err = svc.AdvanceStatus(context.Background(), o.ID, StatusWashing, admin())
	assert.ErrorAs(t, err, &transErr)

	// Delivered is terminal.
	_, err = svc.AdvanceStatus(context.Background(), o.ID, StatusDelivered, admin())
	require.NoError(t, err)
	_, err = svc.AdvanceStatus(context.Background(), o.ID, StatusOutForDelivery, admin())
	assert.ErrorAs(t, err, &transErr)

	hist, err := svc.History(context.Background(), o.ID, admin())
	require.NoError(t, err)
	assert.Len(t, hist, 3)
}

func TestAdvanceStatus_StrictPolicy(t *testing.T) {
	store := newFakeStore()
	svc := NewService(storeValidator{store}, store, PolicyStrict)

	o, err := svc.PlaceOrder(context.Background(), placeReq("cust-1", ""))
	require.NoError(t, err)

	// Skipping a stage fails under strict.
	_, err = svc.AdvanceStatus(context.Background(), o.ID, StatusProcessing, admin())
	var transErr *InvalidTransitionError
	assert.ErrorAs(t, err, &transErr)

	// The immediate next stage works.
	got, err := svc.AdvanceStatus(context.Background(), o.ID, StatusPickedUp, admin())
	require.NoError(t, err)
	assert.Equal(t, StatusPickedUp, got.Status)
}

func TestAdvanceStatus_UnknownTarget(t *testing.T) {
	store := newFakeStore()
	svc := NewService(storeValidator{store}, store, PolicyForward)

	o, err := svc.PlaceOrder(context.Background(), placeReq("cust-1", ""))
	require.NoError(t, err)

	_, err = svc.AdvanceStatus(context.Background(), o.ID, Status("Folded"), admin())
	var transErr *InvalidTransitionError
	assert.ErrorAs(t, err, &transErr)
}

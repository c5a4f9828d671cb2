package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/dhobighat/dhobighat/internal/domain/auth"
	"github.com/dhobighat/dhobighat/internal/domain/coupon"
)

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	CustomerID    string
	Items         []Item
	Address       Address
	Pickup        Schedule
	Delivery      Schedule
	PaymentMethod PaymentMethod
	CouponCode    string
}

// Service encapsulates order placement and lifecycle business logic.
type Service struct {
	coupons coupon.Validator
	orders  Repository
	policy  TransitionPolicy
	now     func() time.Time
}

// NewService creates an order Service. The transition policy controls
// whether administrators may skip lifecycle stages.
func NewService(coupons coupon.Validator, orders Repository, policy TransitionPolicy) *Service {
	return &Service{
		coupons: coupons,
		orders:  orders,
		policy:  policy,
		now:     time.Now,
	}
}

// PlaceOrder prices the cart, applies the coupon when present, and
// persists the order with its initial status. Coupon usage is consumed by
// the store inside the same transaction as the order insert, so a lost
// race on the last usage slot surfaces as coupon.ErrUsageExhausted and no
// order is created.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	q, err := price(ctx, s.coupons, req.Items, req.CouponCode)
	if err != nil {
		return nil, err
	}

	method := req.PaymentMethod
	if method == "" {
		method = PaymentCashOnDelivery
	}

	now := s.now()
	o := &Order{
		ID:            uuid.NewString(),
		CustomerID:    req.CustomerID,
		Items:         append([]Item(nil), req.Items...),
		Subtotal:      q.Subtotal,
		Discount:      q.Discount,
		Total:         q.Total,
		CouponCode:    coupon.NormalizeCode(req.CouponCode),
		Status:        StatusPlaced,
		Pickup:        req.Pickup,
		Delivery:      req.Delivery,
		Address:       req.Address,
		PaymentMethod: method,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.CouponCode == "" {
		o.CouponCode = ""
	}

	if err := s.orders.Create(ctx, o); err != nil {
		if errors.Is(err, coupon.ErrUsageExhausted) {
			return nil, coupon.ErrUsageExhausted
		}
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// Quote prices a cart without persisting anything. Used by the coupon
// preview endpoint so customers can check a code before checkout.
func (s *Service) Quote(ctx context.Context, items []Item, couponCode string) (Quote, error) {
	return price(ctx, s.coupons, items, couponCode)
}

// GetOrder fetches an order. Customers may only see their own orders;
// administrators see everything.
func (s *Service) GetOrder(ctx context.Context, id string, actor auth.Actor) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && o.CustomerID != actor.CustomerID {
		// Hide existence of other customers' orders.
		return nil, ErrNotFound
	}
	return o, nil
}

// ListOrders returns orders visible to the actor. Customers are always
// scoped to their own orders regardless of the requested filter.
func (s *Service) ListOrders(ctx context.Context, f Filter, actor auth.Actor) ([]Order, error) {
	if !actor.IsAdmin() {
		f.CustomerID = actor.CustomerID
	}
	return s.orders.List(ctx, f)
}

// History returns the status history of an order visible to the actor.
func (s *Service) History(ctx context.Context, id string, actor auth.Actor) ([]StatusChange, error) {
	if _, err := s.GetOrder(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.orders.History(ctx, id)
}

// AdvanceStatus moves an order to a later lifecycle status. Only
// administrators may call this; customer clients are read-only with
// respect to status.
func (s *Service) AdvanceStatus(ctx context.Context, id string, target Status, actor auth.Actor) (*Order, error) {
	if !actor.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	if !target.IsValid() {
		return nil, &InvalidTransitionError{To: target}
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.policy.Allows(o.Status, target) {
		return nil, &InvalidTransitionError{From: o.Status, To: target}
	}

	return s.orders.UpdateStatus(ctx, id, o.Status, target, actor.CustomerID)
}

package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhobighat/dhobighat/internal/domain/order"
)

type memReviews struct {
	reviews []Review
	byOrder map[string]bool
}

func newMemReviews() *memReviews {
	return &memReviews{byOrder: make(map[string]bool)}
}

func (m *memReviews) Create(_ context.Context, r *Review) error {
	if m.byOrder[r.OrderID] {
		return ErrAlreadyReviewed
	}
	m.byOrder[r.OrderID] = true
	m.reviews = append(m.reviews, *r)
	return nil
}

func (m *memReviews) List(context.Context) ([]Review, error) {
	return append([]Review(nil), m.reviews...), nil
}

// orderStub serves fixed orders to the review service.
type orderStub struct {
	orders map[string]*order.Order
}

func (s *orderStub) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (s *orderStub) Create(context.Context, *order.Order) error { return nil }
func (s *orderStub) List(context.Context, order.Filter) ([]order.Order, error) {
	return nil, nil
}
func (s *orderStub) UpdateStatus(context.Context, string, order.Status, order.Status, string) (*order.Order, error) {
	return nil, nil
}
func (s *orderStub) History(context.Context, string) ([]order.StatusChange, error) {
	return nil, nil
}

func fixtureOrders() *orderStub {
	return &orderStub{orders: map[string]*order.Order{
		"delivered-1": {ID: "delivered-1", CustomerID: "cust-1", Status: order.StatusDelivered},
		"washing-1":   {ID: "washing-1", CustomerID: "cust-1", Status: order.StatusWashing},
	}}
}

func TestCreateReview(t *testing.T) {
	svc := NewService(newMemReviews(), fixtureOrders())

	r, err := svc.Create(context.Background(), "cust-1", "delivered-1", 5, "crisp and on time")
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, 5, r.Rating)
	assert.WithinDuration(t, time.Now(), r.CreatedAt, time.Minute)

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCreateReview_RatingBounds(t *testing.T) {
	svc := NewService(newMemReviews(), fixtureOrders())

	for _, rating := range []int{0, -1, 6} {
		_, err := svc.Create(context.Background(), "cust-1", "delivered-1", rating, "")
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
	}

	for _, rating := range []int{1, 5} {
		svc := NewService(newMemReviews(), fixtureOrders())
		_, err := svc.Create(context.Background(), "cust-1", "delivered-1", rating, "")
		assert.NoError(t, err, "rating %d", rating)
	}
}

func TestCreateReview_NotDelivered(t *testing.T) {
	svc := NewService(newMemReviews(), fixtureOrders())

	_, err := svc.Create(context.Background(), "cust-1", "washing-1", 4, "")
	assert.ErrorIs(t, err, ErrNotDelivered)
}

func TestCreateReview_NotOwnOrder(t *testing.T) {
	svc := NewService(newMemReviews(), fixtureOrders())

	// Someone else's order reads as not found, hiding its existence.
	_, err := svc.Create(context.Background(), "cust-2", "delivered-1", 4, "")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestCreateReview_AlreadyReviewed(t *testing.T) {
	svc := NewService(newMemReviews(), fixtureOrders())

	_, err := svc.Create(context.Background(), "cust-1", "delivered-1", 4, "")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "cust-1", "delivered-1", 5, "")
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

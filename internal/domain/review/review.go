// Package review holds post-delivery customer reviews.
package review

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/dhobighat/dhobighat/internal/domain/order"
)

// Sentinel errors for review submission.
var (
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrNotDelivered    = errors.New("order has not been delivered yet")
	ErrAlreadyReviewed = errors.New("order already reviewed")
)

// Review is a customer's rating of a delivered order.
type Review struct {
	ID         string
	OrderID    string
	CustomerID string
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

// Repository defines persistence for reviews.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	List(ctx context.Context) ([]Review, error)
}

// Service gates review creation on order state: only the customer who
// placed an order may review it, and only once it reaches Delivered.
type Service struct {
	reviews Repository
	orders  order.Repository
	now     func() time.Time
}

// NewService creates a review Service.
func NewService(reviews Repository, orders order.Repository) *Service {
	return &Service{reviews: reviews, orders: orders, now: time.Now}
}

// Create validates and persists a review for a delivered order.
func (s *Service) Create(ctx context.Context, customerID, orderID string, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, order.ErrNotFound
	}
	if o.Status != order.StatusDelivered {
		return nil, ErrNotDelivered
	}

	r := &Review{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		CustomerID: customerID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  s.now(),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, errors.Wrap(err, "create review")
	}
	return r, nil
}

// List returns all reviews, newest first.
func (s *Service) List(ctx context.Context) ([]Review, error) {
	return s.reviews.List(ctx)
}

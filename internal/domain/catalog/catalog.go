// Package catalog holds the laundry service offerings customers order
// from: a garment category plus a per-piece price.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a service lookup misses.
var ErrNotFound = errors.New("service not found")

// Service is one orderable laundry offering, for example "Wash & Fold"
// for shirts at a fixed per-piece price.
type Service struct {
	ID          string
	Name        string
	Category    string
	Price       decimal.Decimal
	Description string
	Icon        string
	Active      bool
}

// Repository defines persistence for the service catalog. Delete
// deactivates rather than removing the row, so existing orders keep a
// resolvable service reference.
type Repository interface {
	List(ctx context.Context, includeInactive bool) ([]Service, error)
	GetByID(ctx context.Context, id string) (*Service, error)
	Create(ctx context.Context, s *Service) error
	Update(ctx context.Context, s *Service) error
	Deactivate(ctx context.Context, id string) error
}

package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for order validation and lookup.
var (
	ErrNotFound   = errors.New("order not found")
	ErrEmptyItems = errors.New("items required")
)

// InvalidQuantityError indicates a line item has a quantity below one.
type InvalidQuantityError struct {
	Garment string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1 for %s", e.Garment)
}

// InvalidPriceError indicates a line item has a negative unit price.
type InvalidPriceError struct {
	Garment string
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("unit price must not be negative for %s", e.Garment)
}

// Item is a single garment line in an order. Items are frozen once the
// order is created; amendments require a new order.
type Item struct {
	Garment     string          `json:"garment"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	ServiceType string          `json:"serviceType"`
}

// LineTotal returns quantity times unit price.
func (it Item) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Address is the delivery address snapshot embedded in an order at
// creation time, decoupled from the customer's live address book.
type Address struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

// PaymentMethod enumerates how an order is paid.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentOnline         PaymentMethod = "online"
)

// PaymentStatus tracks settlement of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Schedule is a pickup or delivery appointment: a date plus a time slot
// label such as "9AM-11AM".
type Schedule struct {
	Date time.Time
	Slot string
}

// Order is a priced, scheduled laundry order. Items and the address
// snapshot are immutable after creation; only Status, PaymentStatus, and
// UpdatedAt change afterwards.
type Order struct {
	ID            string
	CustomerID    string
	Items         []Item
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	CouponCode    string
	Status        Status
	Pickup        Schedule
	Delivery      Schedule
	Address       Address
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StatusChange is one entry in an order's status history.
type StatusChange struct {
	Status    Status
	ActorID   string
	ChangedAt time.Time
}

// Filter narrows order listings.
type Filter struct {
	CustomerID string
	Status     Status
}

// Repository defines persistence for orders.
//
// Create must be atomic with coupon usage consumption: when the order
// carries a coupon code, the store increments the coupon's used_count
// with a conditional update inside the same transaction as the order
// insert, and fails with coupon.ErrUsageExhausted when no usage slot
// remains. Either both effects commit or neither does.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	// UpdateStatus moves the order from one status to another, appending
	// a history entry. The update is conditional on the current status so
	// concurrent admin updates cannot interleave.
	UpdateStatus(ctx context.Context, id string, from, to Status, actorID string) (*Order, error)
	History(ctx context.Context, id string) ([]StatusChange, error)
}

package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountKind enumerates the supported coupon discount strategies.
type DiscountKind string

const (
	// KindPercentage applies a percentage of the order subtotal,
	// optionally capped by MaxDiscount.
	KindPercentage DiscountKind = "percentage"
	// KindFixed applies a fixed monetary discount capped at the subtotal.
	KindFixed DiscountKind = "fixed"
)

// Sentinel errors for coupon validation.
var (
	ErrNotFound       = errors.New("coupon not found")
	ErrInactive       = errors.New("coupon is inactive")
	ErrExpired        = errors.New("coupon expired")
	ErrUsageExhausted = errors.New("coupon usage limit reached")
)

// BelowMinimumError indicates the order subtotal does not reach the
// coupon's minimum order amount.
type BelowMinimumError struct {
	Minimum decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("minimum order amount is %s", e.Minimum.StringFixed(2))
}

// Coupon defines a discount rule and its eligibility constraints.
// MaxDiscount applies only to percentage coupons. A UsageLimit of zero
// means unlimited uses. UsedCount is advanced by the order store at
// commit time and never decremented.
type Coupon struct {
	Code        string
	Kind        DiscountKind
	Value       decimal.Decimal
	MinOrder    decimal.Decimal
	MaxDiscount *decimal.Decimal
	ValidFrom   time.Time
	ValidUntil  time.Time
	UsageLimit  int
	UsedCount   int
	Active      bool
	Description string
}

// NormalizeCode returns the canonical upper-case form of a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Repository provides lookup and administration of coupons. Usage
// consumption is deliberately absent here: it is a store-level concern
// executed inside the order-commit transaction (see order.Repository) so
// two concurrent checkouts cannot both take the last usage slot.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context, includeInactive bool) ([]Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Deactivate(ctx context.Context, code string) error
}

package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator decides whether a coupon code applies to an order subtotal and
// computes the resulting discount. Implementations are read-only: the
// usage counter is advanced only when an order actually commits.
type Validator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error)
}

// RepoValidator implements Validator by looking up coupons from a
// Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the coupon for the given code and checks, in order:
// existence, active flag, validity window, minimum order amount, and
// remaining usage slots. On success it returns the discount amount.
//
// The exhaustion check here is advisory: the authoritative check is the
// conditional used_count increment inside the order-commit transaction,
// which closes the race between concurrent checkouts.
func (v *RepoValidator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	c, err := v.repo.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, errors.Wrap(err, "lookup coupon")
	}

	if !c.Active {
		return decimal.Zero, ErrInactive
	}

	now := v.now()
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return decimal.Zero, ErrExpired
	}

	if subtotal.LessThan(c.MinOrder) {
		return decimal.Zero, &BelowMinimumError{Minimum: c.MinOrder}
	}

	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return decimal.Zero, ErrUsageExhausted
	}

	return c.Discount(subtotal)
}

package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount calculates the discount amount the coupon yields for the given
// order subtotal. Eligibility (active, window, minimum, usage) is checked
// by the Validator; this is pure arithmetic.
//
// The result is rounded to two decimal places half-up and is never larger
// than the subtotal, preserving the total >= 0 invariant downstream.
func (c *Coupon) Discount(subtotal decimal.Decimal) (decimal.Decimal, error) {
	switch c.Kind {
	case KindPercentage:
		amount := subtotal.Mul(c.Value).Div(hundred)
		if c.MaxDiscount != nil && amount.GreaterThan(*c.MaxDiscount) {
			amount = *c.MaxDiscount
		}
		return clampToSubtotal(amount, subtotal).Round(2), nil
	case KindFixed:
		return clampToSubtotal(c.Value, subtotal).Round(2), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported discount kind: %q", c.Kind)
	}
}

// clampToSubtotal bounds amount to [0, subtotal].
func clampToSubtotal(amount, subtotal decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}

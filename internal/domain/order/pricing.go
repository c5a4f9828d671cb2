package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/dhobighat/dhobighat/internal/domain/coupon"
)

// Quote is the pricing breakdown for a cart.
type Quote struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Subtotal sums the line totals of all items using exact decimal
// arithmetic. It rejects empty carts, quantities below one, and negative
// unit prices.
func Subtotal(items []Item) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, ErrEmptyItems
	}

	sum := decimal.Zero
	for _, it := range items {
		if it.Quantity < 1 {
			return decimal.Zero, &InvalidQuantityError{Garment: it.Garment}
		}
		if it.UnitPrice.IsNegative() {
			return decimal.Zero, &InvalidPriceError{Garment: it.Garment}
		}
		sum = sum.Add(it.LineTotal())
	}
	return sum, nil
}

// price computes the full quote for a cart, delegating coupon validation
// when a code is present. Any coupon error fails the whole quote: checkout
// must not silently proceed with a zero discount.
func price(ctx context.Context, v coupon.Validator, items []Item, couponCode string) (Quote, error) {
	subtotal, err := Subtotal(items)
	if err != nil {
		return Quote{}, err
	}

	discount := decimal.Zero
	if couponCode != "" {
		discount, err = v.Validate(ctx, couponCode, subtotal)
		if err != nil {
			return Quote{}, errors.Wrap(err, "validate coupon")
		}
	}

	// The validator already clamps the discount to the subtotal; the floor
	// here is unreachable in practice.
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Quote{
		Subtotal: subtotal.Round(2),
		Discount: discount.Round(2),
		Total:    total.Round(2),
	}, nil
}

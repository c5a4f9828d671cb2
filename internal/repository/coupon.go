package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dhobighat/dhobighat/internal/domain/coupon"
)

const (
	couponColumns = `code, discount_kind, value, min_order, max_discount,
		valid_from, valid_until, usage_limit, used_count, active, description`

	getCouponByCodeSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE code = $1`

	listCouponsSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE active OR $1 ORDER BY code`

	insertCouponSQL = `INSERT INTO coupons
		(code, discount_kind, value, min_order, max_discount,
		 valid_from, valid_until, usage_limit, active, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	updateCouponSQL = `UPDATE coupons SET discount_kind = $2, value = $3,
		min_order = $4, max_discount = $5, valid_from = $6, valid_until = $7,
		usage_limit = $8, active = $9, description = $10
		WHERE code = $1`

	upsertCouponSQL = insertCouponSQL + `
		ON CONFLICT (code) DO UPDATE SET discount_kind = EXCLUDED.discount_kind,
			value = EXCLUDED.value, min_order = EXCLUDED.min_order,
			max_discount = EXCLUDED.max_discount, valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until, usage_limit = EXCLUDED.usage_limit,
			active = EXCLUDED.active, description = EXCLUDED.description`

	deactivateCouponSQL = `UPDATE coupons SET active = FALSE WHERE code = $1`

	// consumeCouponUsageSQL takes one usage slot if and only if one
	// remains. Checking and incrementing in a single statement is what
	// makes the near-exhausted-coupon race safe.
	consumeCouponUsageSQL = `UPDATE coupons
		SET used_count = used_count + 1
		WHERE code = $1 AND active
		  AND (usage_limit = 0 OR used_count < usage_limit)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
// Codes are stored upper-case; callers normalize before lookup.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its normalized code.
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, coupon.NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	return &c, nil
}

// List returns coupons ordered by code, optionally including inactive ones.
func (r *CouponRepository) List(ctx context.Context, includeInactive bool) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Create inserts a new coupon definition.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, insertCouponSQL,
		coupon.NormalizeCode(c.Code), string(c.Kind), c.Value, c.MinOrder,
		maxDiscountParam(c), c.ValidFrom, c.ValidUntil, c.UsageLimit,
		c.Active, c.Description,
	)
	if err != nil {
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Upsert inserts a coupon or rewrites its definition if the code already
// exists. Used by the bulk ingest and seed tools; the usage counter of an
// existing coupon is preserved.
func (r *CouponRepository) Upsert(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, upsertCouponSQL,
		coupon.NormalizeCode(c.Code), string(c.Kind), c.Value, c.MinOrder,
		maxDiscountParam(c), c.ValidFrom, c.ValidUntil, c.UsageLimit,
		c.Active, c.Description,
	)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update rewrites a coupon definition. The usage counter is untouched:
// it only moves through the order-commit transaction.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	tag, err := r.pool.Exec(ctx, updateCouponSQL,
		coupon.NormalizeCode(c.Code), string(c.Kind), c.Value, c.MinOrder,
		maxDiscountParam(c), c.ValidFrom, c.ValidUntil, c.UsageLimit,
		c.Active, c.Description,
	)
	if err != nil {
		return fmt.Errorf("updating coupon %q: %w", c.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a coupon. Rows are never removed while orders
// may still reference the code.
func (r *CouponRepository) Deactivate(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, deactivateCouponSQL, coupon.NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("deactivating coupon %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func maxDiscountParam(c *coupon.Coupon) any {
	if c.MaxDiscount == nil {
		return nil
	}
	return *c.MaxDiscount
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c           coupon.Coupon
		kind        string
		maxDiscount *decimal.Decimal
		usageLimit  int32
		usedCount   int32
	)
	err := row.Scan(
		&c.Code, &kind, &c.Value, &c.MinOrder, &maxDiscount,
		&c.ValidFrom, &c.ValidUntil, &usageLimit, &usedCount,
		&c.Active, &c.Description,
	)
	c.Kind = coupon.DiscountKind(kind)
	c.MaxDiscount = maxDiscount
	c.UsageLimit = int(usageLimit)
	c.UsedCount = int(usedCount)
	return c, err
}

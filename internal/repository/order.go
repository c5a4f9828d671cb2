package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dhobighat/dhobighat/internal/domain/coupon"
	"github.com/dhobighat/dhobighat/internal/domain/order"
)

const (
	orderColumns = `id, customer_id, items, subtotal, discount, total, coupon_code,
		status, pickup_date, pickup_slot, delivery_date, delivery_slot,
		address, payment_method, payment_status, created_at, updated_at`

	insertOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1 = '' OR customer_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`

	updateOrderStatusSQL = `UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`

	insertStatusHistorySQL = `INSERT INTO order_status_history (order_id, status, actor_id)
		VALUES ($1, $2, $3)`

	getStatusHistorySQL = `SELECT status, actor_id, changed_at
		FROM order_status_history WHERE order_id = $1 ORDER BY changed_at, id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order in a single transaction: the order row, its
// initial status-history entry, and, when a coupon is attached, one usage
// slot of that coupon. The conditional used_count update is the
// authoritative exhaustion check; losing that race rolls back the whole
// order and surfaces coupon.ErrUsageExhausted.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	addressJSON, err := json.Marshal(o.Address)
	if err != nil {
		return fmt.Errorf("marshaling order address: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if o.CouponCode != "" {
		tag, err := tx.Exec(ctx, consumeCouponUsageSQL, o.CouponCode)
		if err != nil {
			return fmt.Errorf("consuming coupon %q: %w", o.CouponCode, err)
		}
		if tag.RowsAffected() == 0 {
			return coupon.ErrUsageExhausted
		}
	}

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.CustomerID, itemsJSON, o.Subtotal, o.Discount, o.Total,
		o.CouponCode, string(o.Status),
		o.Pickup.Date, o.Pickup.Slot, o.Delivery.Date, o.Delivery.Slot,
		addressJSON, string(o.PaymentMethod), string(o.PaymentStatus),
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	if _, err := tx.Exec(ctx, insertStatusHistorySQL, o.ID, string(o.Status), o.CustomerID); err != nil {
		return fmt.Errorf("recording initial status for order %q: %w", o.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order. Returns order.ErrNotFound on a miss.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, f.CustomerID, string(f.Status))
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateStatus moves the order to a new status and appends a history
// entry, both in one transaction. The update is conditional on the
// expected current status, so a concurrent admin update makes this a
// no-op instead of silently overwriting.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to order.Status, actorID string) (*order.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning status tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, updateOrderStatusSQL, id, string(from), string(to))
	if err != nil {
		return nil, fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the order vanished or its status moved under us.
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &order.InvalidTransitionError{From: current.Status, To: to}
	}

	if _, err := tx.Exec(ctx, insertStatusHistorySQL, id, string(to), actorID); err != nil {
		return nil, fmt.Errorf("recording status of order %q: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing status of order %q: %w", id, err)
	}

	return r.GetByID(ctx, id)
}

// History returns the status history of an order, oldest first.
func (r *OrderRepository) History(ctx context.Context, id string) ([]order.StatusChange, error) {
	rows, err := r.pool.Query(ctx, getStatusHistorySQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting history of order %q: %w", id, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.StatusChange, error) {
		var (
			sc     order.StatusChange
			status string
		)
		err := row.Scan(&status, &sc.ActorID, &sc.ChangedAt)
		sc.Status = order.Status(status)
		return sc, err
	})
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		itemsJSON     []byte
		addressJSON   []byte
		status        string
		paymentMethod string
		paymentStatus string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &itemsJSON, &o.Subtotal, &o.Discount, &o.Total,
		&o.CouponCode, &status,
		&o.Pickup.Date, &o.Pickup.Slot, &o.Delivery.Date, &o.Delivery.Slot,
		&addressJSON, &paymentMethod, &paymentStatus,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling items of order %q: %w", o.ID, err)
	}
	if err := json.Unmarshal(addressJSON, &o.Address); err != nil {
		return o, fmt.Errorf("unmarshaling address of order %q: %w", o.ID, err)
	}

	o.Status = order.Status(status)
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	o.PaymentStatus = order.PaymentStatus(paymentStatus)
	return o, nil
}

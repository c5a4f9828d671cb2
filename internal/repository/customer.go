package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dhobighat/dhobighat/internal/domain/auth"
	"github.com/dhobighat/dhobighat/internal/domain/customer"
)

const (
	insertCustomerSQL = `INSERT INTO customers (id, name, email, phone, password, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	getCustomerByIDSQL = `SELECT id, name, email, phone, password, role, created_at
		FROM customers WHERE id = $1`

	getCustomerByEmailSQL = `SELECT id, name, email, phone, password, role, created_at
		FROM customers WHERE email = $1`

	listAddressesSQL = `SELECT id, label, street, city, state, postal_code, is_default
		FROM addresses WHERE customer_id = $1 ORDER BY is_default DESC, label`

	clearDefaultAddressSQL = `UPDATE addresses SET is_default = FALSE
		WHERE customer_id = $1 AND is_default`

	insertAddressSQL = `INSERT INTO addresses
		(id, customer_id, label, street, city, state, postal_code, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Create inserts a new customer account.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	_, err := r.pool.Exec(ctx, insertCustomerSQL,
		c.ID, c.Name, c.Email, c.Phone, c.PasswordHash, string(c.Role), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating customer %q: %w", c.ID, err)
	}
	return nil
}

// GetByID returns a customer with their address book.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	return r.get(ctx, getCustomerByIDSQL, id)
}

// GetByEmail returns a customer with their address book, looked up by
// lower-cased email.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	return r.get(ctx, getCustomerByEmailSQL, email)
}

func (r *CustomerRepository) get(ctx context.Context, query, arg string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer: %w", err)
	}

	addrRows, err := r.pool.Query(ctx, listAddressesSQL, c.ID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses of %q: %w", c.ID, err)
	}
	c.Addresses, err = pgx.CollectRows(addrRows, scanAddress)
	if err != nil {
		return nil, fmt.Errorf("listing addresses of %q: %w", c.ID, err)
	}
	return &c, nil
}

// AddAddress appends an address. When the new address is the default, the
// previous default is cleared in the same transaction so the one-default
// invariant holds.
func (r *CustomerRepository) AddAddress(ctx context.Context, customerID string, addr *customer.Address) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning address tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if addr.Default {
		if _, err := tx.Exec(ctx, clearDefaultAddressSQL, customerID); err != nil {
			return fmt.Errorf("clearing default address of %q: %w", customerID, err)
		}
	}

	_, err = tx.Exec(ctx, insertAddressSQL,
		addr.ID, customerID, addr.Label, addr.Street, addr.City,
		addr.State, addr.PostalCode, addr.Default,
	)
	if err != nil {
		return fmt.Errorf("adding address for %q: %w", customerID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing address for %q: %w", customerID, err)
	}
	return nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var (
		c    customer.Customer
		role string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.PasswordHash, &role, &c.CreatedAt)
	c.Role = auth.Role(role)
	return c, err
}

func scanAddress(row pgx.CollectableRow) (customer.Address, error) {
	var a customer.Address
	err := row.Scan(&a.ID, &a.Label, &a.Street, &a.City, &a.State, &a.PostalCode, &a.Default)
	return a, err
}

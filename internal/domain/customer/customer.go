// Package customer holds customer accounts and their address books.
package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/dhobighat/dhobighat/internal/domain/auth"
)

// Sentinel errors for customer operations.
var (
	ErrNotFound    = errors.New("customer not found")
	ErrEmailTaken  = errors.New("email already registered")
	ErrBadPassword = errors.New("invalid credentials")
)

// Address is one entry in a customer's address book. At most one address
// per customer has Default set; the repository enforces this when an
// address is added or promoted.
type Address struct {
	ID         string
	Label      string
	Street     string
	City       string
	State      string
	PostalCode string
	Default    bool
}

// Customer is a registered account. PasswordHash stores the bcrypt-style
// digest, never the raw password.
type Customer struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         auth.Role
	Addresses    []Address
	CreatedAt    time.Time
}

// Repository defines persistence for customers and their addresses.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	// AddAddress appends an address; when addr.Default is set, any
	// previous default for the customer is cleared in the same
	// transaction.
	AddAddress(ctx context.Context, customerID string, addr *Address) error
}

package customer

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dhobighat/dhobighat/internal/domain/auth"
)

// Account wraps the customer repository with registration and login.
type Account struct {
	repo Repository
	now  func() time.Time
}

// NewAccount creates an Account service backed by the given repository.
func NewAccount(repo Repository) *Account {
	return &Account{repo: repo, now: time.Now}
}

// RegisterRequest holds the input for creating a customer account.
type RegisterRequest struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Register creates a customer account with a hashed password.
func (a *Account) Register(ctx context.Context, req RegisterRequest) (*Customer, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := a.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	c := &Customer{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         auth.RoleCustomer,
		CreatedAt:    a.now(),
	}
	if err := a.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create customer")
	}
	return c, nil
}

// Login verifies credentials and returns the matching customer.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (a *Account) Login(ctx context.Context, email, password string) (*Customer, error) {
	c, err := a.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBadPassword
		}
		return nil, errors.Wrap(err, "lookup customer")
	}

	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadPassword
	}
	return c, nil
}

// Get fetches a customer by ID.
func (a *Account) Get(ctx context.Context, id string) (*Customer, error) {
	return a.repo.GetByID(ctx, id)
}

// AddAddress adds an address to the customer's book, generating its ID.
func (a *Account) AddAddress(ctx context.Context, customerID string, addr Address) (*Address, error) {
	addr.ID = uuid.NewString()
	if err := a.repo.AddAddress(ctx, customerID, &addr); err != nil {
		return nil, errors.Wrap(err, "add address")
	}
	return &addr, nil
}

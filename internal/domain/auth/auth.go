// Package auth provides actor identity, roles, and session tokens.
//
// The original deployment kept sessions in a process-wide map; here tokens
// are random, stored only as an HMAC-SHA256 hash in the session store, and
// carry an explicit expiry so they survive restarts and cannot be recovered
// from a leaked database.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-faster/errors"
)

// tokenBytes is the entropy of a raw session token before hex encoding.
const tokenBytes = 32

// Role distinguishes customer-facing actors from administrators.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Sentinel errors for authentication and authorization.
var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("admin access required")
)

// Actor identifies who is performing an operation.
type Actor struct {
	CustomerID string
	Role       Role
}

// IsAdmin reports whether the actor may perform administrative operations.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Session is a persisted login session, keyed by the token hash.
type Session struct {
	TokenHash  string
	CustomerID string
	Role       Role
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// SessionRepository persists sessions keyed by token hash. FindByHash
// returns ErrUnauthorized when no session matches; any other error is a
// store failure.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	FindByHash(ctx context.Context, hash string) (*Session, error)
	Delete(ctx context.Context, hash string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Sessions issues and resolves login tokens. The raw token is returned to
// the client exactly once; only its HMAC-SHA256 hash is stored.
type Sessions struct {
	repo   SessionRepository
	pepper []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a session manager with the given repository, HMAC
// pepper, and session lifetime.
func NewSessions(repo SessionRepository, pepper []byte, ttl time.Duration) *Sessions {
	return &Sessions{repo: repo, pepper: pepper, ttl: ttl, now: time.Now}
}

// HashToken computes the HMAC-SHA256 hex digest of a raw token.
func (s *Sessions) HashToken(token string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Issue creates a new session for the given customer and returns the raw
// token to hand to the client.
func (s *Sessions) Issue(ctx context.Context, customerID string, role Role) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "token entropy")
	}
	token := hex.EncodeToString(buf)

	sess := &Session{
		TokenHash:  s.HashToken(token),
		CustomerID: customerID,
		Role:       role,
		ExpiresAt:  s.now().Add(s.ttl),
		CreatedAt:  s.now(),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", errors.Wrap(err, "create session")
	}
	return token, nil
}

// Resolve maps a raw token to the acting identity. Unknown and expired
// tokens both yield ErrUnauthorized; store failures surface as such so
// they are not mistaken for a bad credential.
func (s *Sessions) Resolve(ctx context.Context, token string) (Actor, error) {
	if token == "" {
		return Actor{}, ErrUnauthorized
	}

	sess, err := s.repo.FindByHash(ctx, s.HashToken(token))
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return Actor{}, ErrUnauthorized
		}
		return Actor{}, errors.Wrap(err, "find session")
	}
	if s.now().After(sess.ExpiresAt) {
		return Actor{}, ErrUnauthorized
	}

	return Actor{CustomerID: sess.CustomerID, Role: sess.Role}, nil
}

// Revoke deletes the session for the given raw token, if any.
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	return s.repo.Delete(ctx, s.HashToken(token))
}

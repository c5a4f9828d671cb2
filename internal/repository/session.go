package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dhobighat/dhobighat/internal/domain/auth"
)

const (
	insertSessionSQL = `INSERT INTO sessions (token_hash, customer_id, role, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	getSessionByHashSQL = `SELECT token_hash, customer_id, role, expires_at, created_at
		FROM sessions WHERE token_hash = $1`

	deleteSessionSQL = `DELETE FROM sessions WHERE token_hash = $1`

	deleteExpiredSessionsSQL = `DELETE FROM sessions WHERE expires_at < $1`
)

var _ auth.SessionRepository = (*SessionRepository)(nil)

// SessionRepository implements auth.SessionRepository backed by PostgreSQL.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a SessionRepository that uses the given pool.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a session row.
func (r *SessionRepository) Create(ctx context.Context, s *auth.Session) error {
	_, err := r.pool.Exec(ctx, insertSessionSQL,
		s.TokenHash, s.CustomerID, string(s.Role), s.ExpiresAt, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// FindByHash looks up a session by its token hash.
func (r *SessionRepository) FindByHash(ctx context.Context, hash string) (*auth.Session, error) {
	rows, err := r.pool.Query(ctx, getSessionByHashSQL, hash)
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (auth.Session, error) {
		var (
			s    auth.Session
			role string
		)
		err := row.Scan(&s.TokenHash, &s.CustomerID, &role, &s.ExpiresAt, &s.CreatedAt)
		s.Role = auth.Role(role)
		return s, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUnauthorized
		}
		return nil, fmt.Errorf("finding session: %w", err)
	}
	return &s, nil
}

// Delete removes a session row, if present.
func (r *SessionRepository) Delete(ctx context.Context, hash string) error {
	if _, err := r.pool.Exec(ctx, deleteSessionSQL, hash); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions whose expiry is before the given time
// and returns how many were removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteExpiredSessionsSQL, before)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

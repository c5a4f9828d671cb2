package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dhobighat/dhobighat/internal/domain/review"
)

const (
	insertReviewSQL = `INSERT INTO reviews (id, order_id, customer_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	listReviewsSQL = `SELECT id, order_id, customer_id, rating, comment, created_at
		FROM reviews ORDER BY created_at DESC`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a review. The unique constraint on order_id turns a
// duplicate submission into review.ErrAlreadyReviewed.
func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	_, err := r.pool.Exec(ctx, insertReviewSQL,
		rv.ID, rv.OrderID, rv.CustomerID, rv.Rating, rv.Comment, rv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return review.ErrAlreadyReviewed
		}
		return fmt.Errorf("creating review %q: %w", rv.ID, err)
	}
	return nil
}

// List returns all reviews, newest first.
func (r *ReviewRepository) List(ctx context.Context) ([]review.Review, error) {
	rows, err := r.pool.Query(ctx, listReviewsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (review.Review, error) {
		var rv review.Review
		err := row.Scan(&rv.ID, &rv.OrderID, &rv.CustomerID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
		return rv, err
	})
}

package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dhobighat/dhobighat/internal/domain/catalog"
)

const (
	serviceColumns = `id, name, category, price, description, icon, active`

	listServicesSQL = `SELECT ` + serviceColumns + ` FROM services
		WHERE active OR $1 ORDER BY category, name`

	getServiceByIDSQL = `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	insertServiceSQL = `INSERT INTO services (id, name, category, price, description, icon, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	updateServiceSQL = `UPDATE services SET name = $2, category = $3, price = $4,
		description = $5, icon = $6, active = $7 WHERE id = $1`

	deactivateServiceSQL = `UPDATE services SET active = FALSE WHERE id = $1`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns catalog services, optionally including inactive ones.
func (r *CatalogRepository) List(ctx context.Context, includeInactive bool) ([]catalog.Service, error) {
	rows, err := r.pool.Query(ctx, listServicesSQL, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	return pgx.CollectRows(rows, scanService)
}

// GetByID returns a single service. Returns catalog.ErrNotFound on a miss.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Service, error) {
	rows, err := r.pool.Query(ctx, getServiceByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting service %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanService)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting service %q: %w", id, err)
	}
	return &s, nil
}

// Create inserts a new catalog service.
func (r *CatalogRepository) Create(ctx context.Context, s *catalog.Service) error {
	_, err := r.pool.Exec(ctx, insertServiceSQL,
		s.ID, s.Name, s.Category, s.Price, s.Description, s.Icon, s.Active,
	)
	if err != nil {
		return fmt.Errorf("creating service %q: %w", s.ID, err)
	}
	return nil
}

// Update rewrites a catalog service.
func (r *CatalogRepository) Update(ctx context.Context, s *catalog.Service) error {
	tag, err := r.pool.Exec(ctx, updateServiceSQL,
		s.ID, s.Name, s.Category, s.Price, s.Description, s.Icon, s.Active,
	)
	if err != nil {
		return fmt.Errorf("updating service %q: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a service so existing orders keep a resolvable
// reference.
func (r *CatalogRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deactivateServiceSQL, id)
	if err != nil {
		return fmt.Errorf("deactivating service %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func scanService(row pgx.CollectableRow) (catalog.Service, error) {
	var s catalog.Service
	err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Description, &s.Icon, &s.Active)
	return s, err
}

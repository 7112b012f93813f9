package product

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"storefront-auth/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("product_repo")}
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	const q = `
SELECT id, category_id, name, COALESCE(description, ''), list_price_in_cents
FROM products
WHERE id = $1
`
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.ListPriceInCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("product not found", zap.Int64("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get product", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

// Upsert inserts p or updates the product with the same name.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (category_id, name, description, list_price_in_cents)
VALUES ($1, $2, NULLIF($3, ''), $4)
ON CONFLICT (name) DO UPDATE SET
    category_id = EXCLUDED.category_id,
    description = EXCLUDED.description,
    list_price_in_cents = EXCLUDED.list_price_in_cents
RETURNING id
`
	res := p
	if err := r.pool.QueryRow(ctx, q, p.CategoryID, p.Name, p.Description, p.ListPriceInCents).Scan(&res.ID); err != nil {
		r.logger.Error("upsert product", zap.String("name", p.Name), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("upserted product", zap.String("name", res.Name), zap.Int64("id", res.ID))
	return &res, nil
}

package product

import (
	"context"

	"storefront-auth/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

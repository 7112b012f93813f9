package user

import (
	"context"

	"storefront-auth/internal/domain"
)

type Repository interface {
	GetByName(ctx context.Context, name string) (*domain.User, error)
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	Upsert(ctx context.Context, u domain.User) (*domain.User, error)
}

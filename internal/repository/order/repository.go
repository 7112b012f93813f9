package order

import (
	"context"

	"storefront-auth/internal/domain"
)

type Repository interface {
	CreateOrder(ctx context.Context, o domain.Order) (int64, error)
	CreateOrderItem(ctx context.Context, item domain.OrderItem) (*domain.OrderItem, error)
	ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
}

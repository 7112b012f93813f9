package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
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
	return &postgresRepo{pool: pool, logger: logger.Named("order_repo")}
}

func (r *postgresRepo) CreateOrder(ctx context.Context, o domain.Order) (int64, error) {
	placedAt, err := time.Parse(time.RFC3339, o.Time)
	if err != nil {
		return 0, fmt.Errorf("%w: order time %q", domain.ErrInvalidInput, o.Time)
	}
	const q = `
INSERT INTO orders (
    user_id, placed_at, total_price_in_cents, address_name, address1, address2,
    credit_card_company, credit_card_number, credit_card_expiry_date
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id
`
	var id int64
	err = r.pool.QueryRow(ctx, q,
		o.UserID,
		placedAt,
		o.TotalPriceInCents,
		o.AddressName,
		o.Address1,
		o.Address2,
		o.CreditCardCompany,
		o.CreditCardNumber,
		o.CreditCardExpiryDate,
	).Scan(&id)
	if err != nil {
		r.logger.Error("create order", zap.Int64("user_id", o.UserID), zap.Error(err))
		return 0, mapError(err)
	}
	r.logger.Info("order created", zap.Int64("id", id), zap.Int64("user_id", o.UserID))
	return id, nil
}

func (r *postgresRepo) CreateOrderItem(ctx context.Context, item domain.OrderItem) (*domain.OrderItem, error) {
	if item.OrderID == nil {
		return nil, fmt.Errorf("%w: order item without order id", domain.ErrInvalidInput)
	}
	const q = `
INSERT INTO order_items (order_id, product_id, quantity, unit_price_in_cents)
VALUES ($1, $2, $3, $4)
RETURNING id
`
	var id int64
	if err := r.pool.QueryRow(ctx, q, *item.OrderID, item.ProductID, item.Quantity, item.UnitPriceInCents).Scan(&id); err != nil {
		r.logger.Error("create order item",
			zap.Int64("order_id", *item.OrderID),
			zap.Int64("product_id", item.ProductID),
			zap.Error(err),
		)
		return nil, mapError(err)
	}
	out := item
	out.ID = &id
	return &out, nil
}

func (r *postgresRepo) ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	const q = `
SELECT id, order_id, product_id, quantity, unit_price_in_cents
FROM order_items
WHERE order_id = $1
ORDER BY id
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.OrderItem
	for rows.Next() {
		var (
			it          domain.OrderItem
			id, ownerID int64
		)
		if err := rows.Scan(&id, &ownerID, &it.ProductID, &it.Quantity, &it.UnitPriceInCents); err != nil {
			return nil, err
		}
		it.ID, it.OrderID = &id, &ownerID
		result = append(result, it)
	}
	return result, rows.Err()
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return domain.ErrAlreadyExists
		case "23503", "23514":
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, pgErr.ConstraintName)
		}
	}
	return err
}

package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"storefront-auth/internal/domain"
	"storefront-auth/internal/service/customer"
)

// DemoPassword is the plaintext password of every seeded user.
const DemoPassword = "password"

type productWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type userWriter interface {
	Upsert(ctx context.Context, u domain.User) (*domain.User, error)
}

var demoProducts = []domain.Product{
	{CategoryID: 1, Name: "Earl Grey (loose)", Description: "Black tea with bergamot", ListPriceInCents: 795},
	{CategoryID: 1, Name: "Assam (loose)", Description: "Strong malty black tea", ListPriceInCents: 650},
	{CategoryID: 2, Name: "Sencha (loose)", Description: "Steamed Japanese green tea", ListPriceInCents: 895},
	{CategoryID: 2, Name: "Gunpowder (loose)", Description: "Rolled Chinese green tea", ListPriceInCents: 499},
	{CategoryID: 3, Name: "Rooibos (loose)", Description: "Caffeine free red bush", ListPriceInCents: 550},
	{CategoryID: 4, Name: "Glass Teapot 1l", Description: "Heat resistant teapot", ListPriceInCents: 2499},
}

// Apply upserts demo products and the users user1 to user5. It is idempotent.
func Apply(ctx context.Context, products productWriter, users userWriter, bcryptCost int, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, p := range demoProducts {
		saved, err := products.Upsert(ctx, p)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
		logger.Debug("seeded product", zap.Int64("id", saved.ID), zap.String("name", saved.Name))
	}

	for i := 1; i <= 5; i++ {
		hash, err := customer.HashPassword(DemoPassword, bcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u := domain.User{
			UserName: fmt.Sprintf("user%d", i),
			Password: hash,
			RealName: fmt.Sprintf("Demo User %d", i),
			Email:    fmt.Sprintf("user%d@storefront.test", i),
		}
		saved, err := users.Upsert(ctx, u)
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", u.UserName, err)
		}
		logger.Debug("seeded user", zap.Int64("id", saved.ID), zap.String("user_name", saved.UserName))
	}

	logger.Info("seed applied", zap.Int("products", len(demoProducts)), zap.Int("users", 5))
	return nil
}

package cart

import (
	"fmt"

	"storefront-auth/internal/domain"
)

// Add puts one unit of productID into the cart. An existing line is
// incremented and keeps its price snapshot; a new line is priced at catalogPrice.
// Repeating Add is not idempotent: each call is one unit.
func Add(items []domain.OrderItem, productID, catalogPrice int64) ([]domain.OrderItem, error) {
	out := domain.CloneItems(items)
	if i := indexOf(out, productID); i >= 0 {
		if out[i].Quantity >= domain.MaxQuantity {
			return nil, fmt.Errorf("%w: quantity cannot exceed %d", domain.ErrInvalidInput, domain.MaxQuantity)
		}
		out[i].Quantity++
		return out, nil
	}
	return append(out, domain.OrderItem{
		ProductID:        productID,
		Quantity:         1,
		UnitPriceInCents: catalogPrice,
	}), nil
}

// Remove deletes the line for productID.
func Remove(items []domain.OrderItem, productID int64) ([]domain.OrderItem, error) {
	i := indexOf(items, productID)
	if i < 0 {
		return nil, fmt.Errorf("cart item %d: %w", productID, domain.ErrNotFound)
	}
	out := domain.CloneItems(items[:i])
	return append(out, domain.CloneItems(items[i+1:])...), nil
}

// SetQuantity replaces the quantity of the line for productID.
func SetQuantity(items []domain.OrderItem, productID int64, quantity int) ([]domain.OrderItem, error) {
	if quantity < 1 || quantity > domain.MaxQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrInvalidInput, domain.MaxQuantity)
	}
	i := indexOf(items, productID)
	if i < 0 {
		return nil, fmt.Errorf("cart item %d: %w", productID, domain.ErrNotFound)
	}
	out := domain.CloneItems(items)
	out[i].Quantity = quantity
	return out, nil
}

func indexOf(items []domain.OrderItem, productID int64) int {
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

package cart

import (
	"context"
	"errors"
	"fmt"

	"storefront-auth/internal/domain"
	"storefront-auth/internal/service/session"
)

// Service applies cart mutations to the cookie-held session record.
//
// Two concurrent requests from the same browser each start from the same
// cookie, so one increment can be lost when the later Set-Cookie wins. There
// is no server-side cart to lock.
type Service struct {
	guard    *session.Guard
	products productLookup
}

type productLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

func New(guard *session.Guard, products productLookup) *Service {
	return &Service{guard: guard, products: products}
}

// View returns the validated record, or the anonymous one. The advisory
// message is not signed, so it is never echoed back.
func (s *Service) View(rec domain.SessionRecord) domain.SessionRecord {
	valid, _ := s.guard.Validate(rec)
	valid.Message = ""
	return valid
}

// AddProduct snapshots the current catalog price and adds one unit.
func (s *Service) AddProduct(ctx context.Context, rec domain.SessionRecord, productID int64) (domain.SessionRecord, error) {
	if productID <= 0 {
		return domain.SessionRecord{}, fmt.Errorf("%w: productid must be positive", domain.ErrInvalidInput)
	}
	if s.products == nil {
		return domain.SessionRecord{}, errors.New("product lookup unavailable")
	}
	base := s.trusted(rec)
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("lookup product %d: %w", productID, err)
	}
	items, err := Add(base.OrderItems, p.ID, p.ListPriceInCents)
	if err != nil {
		return domain.SessionRecord{}, err
	}
	base.OrderItems = items
	return s.guard.Secure(base), nil
}

// RemoveProduct deletes the line for productID.
func (s *Service) RemoveProduct(rec domain.SessionRecord, productID int64) (domain.SessionRecord, error) {
	base := s.trusted(rec)
	items, err := Remove(base.OrderItems, productID)
	if err != nil {
		return domain.SessionRecord{}, err
	}
	base.OrderItems = items
	return s.guard.Secure(base), nil
}

// UpdateQuantity sets the quantity of the line for productID.
func (s *Service) UpdateQuantity(rec domain.SessionRecord, productID int64, quantity int) (domain.SessionRecord, error) {
	base := s.trusted(rec)
	items, err := SetQuantity(base.OrderItems, productID, quantity)
	if err != nil {
		return domain.SessionRecord{}, err
	}
	base.OrderItems = items
	return s.guard.Secure(base), nil
}

// trusted returns a mutable copy of the validated record. Records that fail
// validation are replaced by the anonymous one before any field is read.
func (s *Service) trusted(rec domain.SessionRecord) domain.SessionRecord {
	valid, ok := s.guard.Validate(rec)
	if !ok {
		return domain.AnonymousSession()
	}
	out := valid.Clone()
	out.Message = ""
	return out
}

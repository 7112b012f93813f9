package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"storefront-auth/internal/domain"
	"storefront-auth/internal/service/session"
)

// ErrPartialPlacement is returned when the order header was stored but at
// least one line item was not. Nothing is rolled back.
var ErrPartialPlacement = errors.New("order placed partially")

type orderStore interface {
	CreateOrder(ctx context.Context, o domain.Order) (int64, error)
	CreateOrderItem(ctx context.Context, item domain.OrderItem) (*domain.OrderItem, error)
}

// Service turns a validated cart into a persisted order.
type Service struct {
	guard  *session.Guard
	store  orderStore
	now    func() time.Time
	logger *zap.Logger
}

func New(guard *session.Guard, store orderStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{guard: guard, store: store, now: time.Now, logger: logger}
}

// Result is the outcome of a successful placement.
type Result struct {
	Session domain.SessionRecord
	Order   domain.Order
	Items   []domain.OrderItem
}

// Place stores the order header and one line per cart item, then returns the
// session with an empty cart and cleared draft. Invalid, anonymous or empty
// sessions yield domain.ErrNotFound. When details is zero the saved draft is used.
func (s *Service) Place(ctx context.Context, rec domain.SessionRecord, details domain.CheckoutDetails) (Result, error) {
	valid, ok := s.guard.Validate(rec)
	if !ok || valid.IsAnonymous() || len(valid.OrderItems) == 0 {
		return Result{}, fmt.Errorf("cart: %w", domain.ErrNotFound)
	}
	if details.IsZero() {
		details = domain.DetailsFromDraft(valid.Order)
	}
	if err := checkText(details); err != nil {
		return Result{}, err
	}
	if missing := details.Missing(); len(missing) > 0 {
		return Result{}, fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	total, err := domain.TotalInCents(valid.OrderItems)
	if err != nil {
		return Result{}, err
	}

	o := domain.Order{
		UserID:               *valid.UserID,
		Time:                 s.now().UTC().Format(time.RFC3339),
		TotalPriceInCents:    total,
		AddressName:          details.AddressName,
		Address1:             details.Address1,
		Address2:             details.Address2,
		CreditCardCompany:    details.CreditCardCompany,
		CreditCardNumber:     details.CreditCardNumber,
		CreditCardExpiryDate: details.CreditCardExpiryDate,
	}
	orderID, err := s.store.CreateOrder(ctx, o)
	if err != nil {
		return Result{}, unavailable("create order", err)
	}
	o.ID = orderID

	created := make([]domain.OrderItem, 0, len(valid.OrderItems))
	for _, it := range domain.CloneItems(valid.OrderItems) {
		id := orderID
		it.ID = nil
		it.OrderID = &id
		stored, err := s.store.CreateOrderItem(ctx, it)
		if err != nil {
			s.logger.Error("order item creation failed",
				zap.Int64("order_id", orderID),
				zap.Int64("product_id", it.ProductID),
				zap.Int("stored_items", len(created)),
				zap.Int("cart_items", len(valid.OrderItems)),
				zap.Error(err),
			)
			return Result{}, fmt.Errorf("%w: order %d, product %d: %v", ErrPartialPlacement, orderID, it.ProductID, err)
		}
		created = append(created, *stored)
	}

	out := valid.Clone()
	out.OrderItems = []domain.OrderItem{}
	out.Order = domain.EmptyDraft()
	out.Message = ""
	s.logger.Info("order placed",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", o.UserID),
		zap.Int64("total_cents", o.TotalPriceInCents),
		zap.Int("items", len(created)),
	)
	return Result{Session: s.guard.Secure(out), Order: o, Items: created}, nil
}

// SaveDraft stores checkout fields in the session so a later Place can use them.
func (s *Service) SaveDraft(rec domain.SessionRecord, details domain.CheckoutDetails) (domain.SessionRecord, error) {
	valid, ok := s.guard.Validate(rec)
	if !ok || valid.IsAnonymous() {
		return domain.SessionRecord{}, fmt.Errorf("session: %w", domain.ErrNotFound)
	}
	if details.IsZero() {
		return domain.SessionRecord{}, fmt.Errorf("%w: no checkout fields supplied", domain.ErrInvalidInput)
	}
	if err := checkText(details); err != nil {
		return domain.SessionRecord{}, err
	}
	out := valid.Clone()
	out.Order = details.Draft()
	out.Message = ""
	return s.guard.Secure(out), nil
}

func checkText(details domain.CheckoutDetails) error {
	if bad := details.NotUTF8(); len(bad) > 0 {
		return fmt.Errorf("%w: %s not valid UTF-8", domain.ErrInvalidInput, strings.Join(bad, ", "))
	}
	return nil
}

func unavailable(op string, err error) error {
	if errors.Is(err, domain.ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
}

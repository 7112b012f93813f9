package order

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront-auth/internal/domain"
	"storefront-auth/internal/service/session"
)

type memoryStore struct {
	orders     []domain.Order
	items      []domain.OrderItem
	nextID     int64
	orderErr   error
	failItemAt int
}

func (m *memoryStore) CreateOrder(_ context.Context, o domain.Order) (int64, error) {
	if m.orderErr != nil {
		return 0, m.orderErr
	}
	m.nextID++
	o.ID = m.nextID
	m.orders = append(m.orders, o)
	return o.ID, nil
}

func (m *memoryStore) CreateOrderItem(_ context.Context, it domain.OrderItem) (*domain.OrderItem, error) {
	if m.failItemAt > 0 && len(m.items)+1 == m.failItemAt {
		return nil, domain.ErrUnavailable
	}
	id := int64(len(m.items) + 100)
	it.ID = &id
	m.items = append(m.items, it)
	return &it, nil
}

var fixedNow = time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))

func newTestService(t *testing.T) (*Service, *session.Guard, *memoryStore) {
	t.Helper()
	g, err := session.NewGuard([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	store := &memoryStore{}
	svc := New(g, store, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, g, store
}

func loggedInCart(g *session.Guard, items ...domain.OrderItem) domain.SessionRecord {
	uid := int64(7)
	rec := domain.AnonymousSession()
	rec.UserID = &uid
	rec.SessionID = "sid"
	rec.OrderItems = items
	return g.Secure(rec)
}

func validDetails() domain.CheckoutDetails {
	return domain.CheckoutDetails{
		AddressName:          "Jon Doe",
		Address1:             "Main St 1",
		CreditCardCompany:    "Visa",
		CreditCardNumber:     "4111111111111111",
		CreditCardExpiryDate: "12/30",
	}
}

func TestPlace_Success(t *testing.T) {
	svc, g, store := newTestService(t)
	rec := loggedInCart(g,
		domain.OrderItem{ProductID: 5, Quantity: 2, UnitPriceInCents: 250},
		domain.OrderItem{ProductID: 6, Quantity: 1, UnitPriceInCents: 399},
	)

	res, err := svc.Place(context.Background(), rec, validDetails())
	require.NoError(t, err)

	require.Len(t, store.orders, 1)
	o := store.orders[0]
	assert.Equal(t, int64(899), o.TotalPriceInCents)
	assert.Equal(t, int64(7), o.UserID)
	assert.Equal(t, "2024-03-01T11:30:00Z", o.Time)
	assert.Equal(t, "Jon Doe", o.AddressName)
	assert.Equal(t, int64(1), res.Order.ID)

	require.Len(t, store.items, 2)
	for _, it := range store.items {
		require.NotNil(t, it.OrderID)
		assert.Equal(t, int64(1), *it.OrderID)
	}
	assert.Len(t, res.Items, 2)

	assert.Empty(t, res.Session.OrderItems)
	assert.Equal(t, domain.EmptyDraft(), res.Session.Order)
	assert.Equal(t, "sid", res.Session.SessionID)
	_, ok := g.Validate(res.Session)
	assert.True(t, ok)
}

func TestPlace_EditedPriceInvalidatesCart(t *testing.T) {
	svc, g, store := newTestService(t)
	rec := loggedInCart(g, domain.OrderItem{ProductID: 5, Quantity: 3, UnitPriceInCents: 250})
	// client edits the price after stamping
	rec.OrderItems[0].UnitPriceInCents = 1

	_, err := svc.Place(context.Background(), rec, validDetails())
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, store.orders)
}

func TestPlace_RejectsUnusableSessions(t *testing.T) {
	svc, g, store := newTestService(t)

	anonymous := domain.AnonymousSession()
	anonymous.OrderItems = []domain.OrderItem{{ProductID: 5, Quantity: 1, UnitPriceInCents: 250}}

	cases := map[string]domain.SessionRecord{
		"anonymous":  g.Secure(anonymous),
		"empty cart": loggedInCart(g),
		"unsigned": func() domain.SessionRecord {
			r := loggedInCart(g, domain.OrderItem{ProductID: 5, Quantity: 1, UnitPriceInCents: 250})
			r.Token = ""
			return r
		}(),
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Place(context.Background(), rec, validDetails())
			require.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
	assert.Empty(t, store.orders)
}

func TestPlace_MissingDetails(t *testing.T) {
	svc, g, store := newTestService(t)
	rec := loggedInCart(g, domain.OrderItem{ProductID: 5, Quantity: 1, UnitPriceInCents: 250})

	d := validDetails()
	d.CreditCardNumber = " "
	_, err := svc.Place(context.Background(), rec, d)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "creditCardNumber")

	_, err = svc.Place(context.Background(), rec, domain.CheckoutDetails{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, store.orders)
}

func TestPlace_FallsBackToSavedDraft(t *testing.T) {
	svc, g, store := newTestService(t)
	rec := loggedInCart(g, domain.OrderItem{ProductID: 5, Quantity: 1, UnitPriceInCents: 250})

	rec, err := svc.SaveDraft(rec, validDetails())
	require.NoError(t, err)
	assert.Equal(t, domain.DraftOpen, rec.Order.State)

	res, err := svc.Place(context.Background(), rec, domain.CheckoutDetails{})
	require.NoError(t, err)
	assert.Equal(t, "Main St 1", store.orders[0].Address1)
	assert.True(t, res.Session.Order.IsEmpty())
}

func TestPlace_OrderStoreFailure(t *testing.T) {
	svc, g, store := newTestService(t)
	store.orderErr = errors.New("connection refused")
	rec := loggedInCart(g, domain.OrderItem{ProductID: 5, Quantity: 1, UnitPriceInCents: 250})

	_, err := svc.Place(context.Background(), rec, validDetails())
	require.ErrorIs(t, err, domain.ErrUnavailable)
	assert.NotErrorIs(t, err, ErrPartialPlacement)
}

func TestPlace_NotFoundFromOrderStoreIsUnavailable(t *testing.T) {
	svc, g, store := newTestService(t)
	store.orderErr = domain.ErrNotFound
	rec := loggedInCart(g, domain.OrderItem{ProductID: 5, Quantity: 1, UnitPriceInCents: 250})

	_, err := svc.Place(context.Background(), rec, validDetails())
	require.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestPlace_PartialPlacement(t *testing.T) {
	svc, g, store := newTestService(t)
	store.failItemAt = 2
	rec := loggedInCart(g,
		domain.OrderItem{ProductID: 5, Quantity: 1, UnitPriceInCents: 250},
		domain.OrderItem{ProductID: 6, Quantity: 1, UnitPriceInCents: 399},
		domain.OrderItem{ProductID: 8, Quantity: 1, UnitPriceInCents: 100},
	)

	_, err := svc.Place(context.Background(), rec, validDetails())
	require.ErrorIs(t, err, ErrPartialPlacement)
	assert.Len(t, store.orders, 1)
	assert.Len(t, store.items, 1)
}

func TestSaveDraft(t *testing.T) {
	svc, g, _ := newTestService(t)

	_, err := svc.SaveDraft(g.Secure(domain.AnonymousSession()), validDetails())
	require.ErrorIs(t, err, domain.ErrNotFound)

	rec := loggedInCart(g)
	_, err = svc.SaveDraft(rec, domain.CheckoutDetails{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	partial := domain.CheckoutDetails{AddressName: "Jon Doe"}
	out, err := svc.SaveDraft(rec, partial)
	require.NoError(t, err)
	assert.Equal(t, partial.Draft(), out.Order)
	_, ok := g.Validate(out)
	assert.True(t, ok)
}

func TestSaveDraft_RejectsInvalidUTF8(t *testing.T) {
	svc, g, _ := newTestService(t)
	rec := loggedInCart(g, domain.OrderItem{ProductID: 5, Quantity: 1, UnitPriceInCents: 250})

	d := validDetails()
	d.AddressName = "A\xffB"
	_, err := svc.SaveDraft(rec, d)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "addressName")
}

func TestPlace_RejectsInvalidUTF8(t *testing.T) {
	svc, g, store := newTestService(t)
	rec := loggedInCart(g, domain.OrderItem{ProductID: 5, Quantity: 1, UnitPriceInCents: 250})

	d := validDetails()
	d.CreditCardCompany = "Vi\xc3"
	_, err := svc.Place(context.Background(), rec, d)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, store.orders)
}

func TestPlace_TotalOverflow(t *testing.T) {
	svc, g, store := newTestService(t)
	rec := loggedInCart(g,
		domain.OrderItem{ProductID: 5, Quantity: domain.MaxQuantity, UnitPriceInCents: math.MaxInt64 / 1000},
	)

	_, err := svc.Place(context.Background(), rec, validDetails())
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, store.orders, "nothing persisted")
}

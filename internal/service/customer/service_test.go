package customer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"storefront-auth/internal/domain"
	"storefront-auth/internal/service/session"
)

// memoryRepo is a lightweight in-memory credential store for tests.
type memoryRepo struct {
	byName map[string]domain.User
	err    error
}

func newMemoryRepo(t *testing.T, users ...domain.User) *memoryRepo {
	t.Helper()
	r := &memoryRepo{byName: make(map[string]domain.User)}
	for _, u := range users {
		hashed, err := HashPassword(u.Password, bcrypt.MinCost)
		require.NoError(t, err)
		u.Password = hashed
		r.byName[u.UserName] = u
	}
	return r
}

func (r *memoryRepo) GetByName(_ context.Context, name string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := u
	return &clone, nil
}

func testGuard(t *testing.T) *session.Guard {
	t.Helper()
	g, err := session.NewGuard([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return g
}

func newTestService(t *testing.T) (*Service, *session.Guard) {
	t.Helper()
	g := testGuard(t)
	repo := newMemoryRepo(t, domain.User{ID: 3, UserName: "user1", Password: "password"})
	return New(repo, g, nil), g
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPassword("correct", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("correct", "not-a-bcrypt-hash"))
}

func TestHashPassword_FreshSalt(t *testing.T) {
	a, err := HashPassword("correct", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassword("correct", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, CheckPassword("correct", a))
	assert.True(t, CheckPassword("correct", b))
}

func TestHashPassword_InvalidCostFallsBack(t *testing.T) {
	hash, err := HashPassword("correct", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestLogin_Success(t *testing.T) {
	svc, g := newTestService(t)

	rec, err := svc.Login(context.Background(), domain.AnonymousSession(), "user1", "password")
	require.NoError(t, err)
	require.NotNil(t, rec.UserID)
	assert.Equal(t, int64(3), *rec.UserID)
	assert.NotEmpty(t, rec.SessionID)

	_, ok := g.Validate(rec)
	assert.True(t, ok)

	_, loggedIn := svc.IsLoggedIn(rec)
	assert.True(t, loggedIn)
}

func TestLogin_FreshSessionIDEachTime(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, domain.AnonymousSession(), "user1", "password")
	require.NoError(t, err)
	second, err := svc.Login(ctx, first, "user1", "password")
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestLogin_CarriesValidatedCart(t *testing.T) {
	svc, g := newTestService(t)
	cart := domain.AnonymousSession()
	cart.OrderItems = []domain.OrderItem{{ProductID: 5, Quantity: 2, UnitPriceInCents: 250}}
	cart = g.Secure(cart)

	rec, err := svc.Login(context.Background(), cart, "user1", "password")
	require.NoError(t, err)
	assert.Equal(t, cart.OrderItems, rec.OrderItems)
}

func TestLogin_DropsTamperedCart(t *testing.T) {
	svc, g := newTestService(t)
	cart := domain.AnonymousSession()
	cart.OrderItems = []domain.OrderItem{{ProductID: 5, Quantity: 2, UnitPriceInCents: 250}}
	cart = g.Secure(cart)
	cart.OrderItems[0].UnitPriceInCents = 1

	rec, err := svc.Login(context.Background(), cart, "user1", "password")
	require.NoError(t, err)
	assert.Empty(t, rec.OrderItems)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, domain.AnonymousSession(), "user1", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.AnonymousSession(), "missing", "password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_MissingParameters(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Login(context.Background(), domain.AnonymousSession(), "  ", "password")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin_StoreFailure(t *testing.T) {
	g := testGuard(t)
	repo := &memoryRepo{err: errors.Join(domain.ErrUnavailable, errors.New("timeout"))}
	svc := New(repo, g, nil)

	_, err := svc.Login(context.Background(), domain.AnonymousSession(), "user1", "password")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_IssuerFailure(t *testing.T) {
	svc, _ := newTestService(t)
	svc.newID = func() (string, error) { return "", errors.New("entropy exhausted") }

	_, err := svc.Login(context.Background(), domain.AnonymousSession(), "user1", "password")
	assert.Error(t, err)
}

func TestIsLoggedIn_RejectsAnonymousAndTampered(t *testing.T) {
	svc, g := newTestService(t)

	_, ok := svc.IsLoggedIn(g.Secure(domain.AnonymousSession()))
	assert.False(t, ok)

	rec, err := svc.Login(context.Background(), domain.AnonymousSession(), "user1", "password")
	require.NoError(t, err)
	other := int64(4)
	rec.UserID = &other
	_, ok = svc.IsLoggedIn(rec)
	assert.False(t, ok)
}

func TestLogout_ReturnsAnonymous(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t, domain.AnonymousSession(), svc.Logout())
}

func TestIsLoggedIn_DropsUnsignedMessage(t *testing.T) {
	svc, _ := newTestService(t)
	rec, err := svc.Login(context.Background(), domain.AnonymousSession(), "user1", "password")
	require.NoError(t, err)

	rec.Message = "Please re-enter your card"
	out, ok := svc.IsLoggedIn(rec)
	require.True(t, ok)
	assert.Empty(t, out.Message)
	assert.Equal(t, rec.SessionID, out.SessionID)
}

package collaborator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront-auth/internal/domain"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveCollaboratorCall(_, _, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func newSender(t *testing.T, h http.Handler, obs CallObserver) *HTTPSender {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	s, err := NewHTTPSender(SenderConfig{BaseURL: srv.URL + "/rest", Protocol: ProtocolHTTP1, Timeout: time.Second, Observer: obs}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestParseProtocol(t *testing.T) {
	for in, want := range map[string]Protocol{"": ProtocolHTTP1, "http1": ProtocolHTTP1, "http2": ProtocolHTTP2, "http3": ProtocolHTTP3} {
		got, err := ParseProtocol(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseProtocol("spdy")
	assert.ErrorIs(t, err, ErrUnknownProtocol)
}

func TestNewTransport(t *testing.T) {
	for _, p := range []Protocol{ProtocolHTTP1, ProtocolHTTP2, ProtocolHTTP3} {
		rt, err := NewTransport(p)
		require.NoError(t, err, p)
		assert.NotNil(t, rt)
	}
	_, err := NewTransport("gopher")
	assert.ErrorIs(t, err, ErrUnknownProtocol)
}

func TestNewHTTPSender_RejectsBadBaseURL(t *testing.T) {
	_, err := NewHTTPSender(SenderConfig{BaseURL: "not a url"}, nil)
	assert.Error(t, err)
}

func TestCatalog_GetByID(t *testing.T) {
	var gotPath, gotQuery string
	s := newSender(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(domain.Product{ID: 5, Name: "Green Tea", ListPriceInCents: 250})
	}), nil)

	p, err := NewCatalog(s).GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "/rest/products", gotPath)
	assert.Equal(t, "id=5", gotQuery)
	assert.Equal(t, int64(250), p.ListPriceInCents)
}

func TestSender_StatusMapping(t *testing.T) {
	obs := &recordingObserver{}
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	s := newSender(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
	}), obs)
	c := NewCatalog(s)

	_, err := c.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	status.Store(http.StatusInternalServerError)
	_, err = c.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	status.Store(http.StatusBadRequest)
	_, err = c.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{"not_found", "error", "error"}, obs.outcomes)
}

func TestSender_MalformedBodyIsUnavailable(t *testing.T) {
	s := newSender(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	}), nil)
	_, err := NewCredentials(s).GetByName(context.Background(), "user1")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestSender_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s, err := NewHTTPSender(SenderConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	require.NoError(t, err)
	_, err = NewCatalog(s).GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestSender_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s, err := NewHTTPSender(SenderConfig{BaseURL: url, Timeout: time.Second}, nil)
	require.NoError(t, err)
	_, err = NewCatalog(s).GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestCredentials_GetByName(t *testing.T) {
	var gotQuery string
	s := newSender(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("name")
		assert.Equal(t, "/rest/users/name", r.URL.Path)
		_ = json.NewEncoder(w).Encode(domain.User{ID: 3, UserName: "user 1", Password: "$2a$hash"})
	}), nil)

	u, err := NewCredentials(s).GetByName(context.Background(), "user 1")
	require.NoError(t, err)
	assert.Equal(t, "user 1", gotQuery)
	assert.Equal(t, int64(3), u.ID)
}

func TestOrders_CreateOrder(t *testing.T) {
	t.Run("id in body", func(t *testing.T) {
		var got domain.Order
		s := newSender(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":42}`)
		}), nil)

		id, err := NewOrders(s).CreateOrder(context.Background(), domain.Order{UserID: 7, TotalPriceInCents: 500})
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.Equal(t, int64(500), got.TotalPriceInCents)
	})

	t.Run("id in location", func(t *testing.T) {
		s := newSender(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Location", "http://persistence/rest/orders/17")
			w.WriteHeader(http.StatusCreated)
		}), nil)

		id, err := NewOrders(s).CreateOrder(context.Background(), domain.Order{UserID: 7})
		require.NoError(t, err)
		assert.Equal(t, int64(17), id)
	})

	t.Run("no id", func(t *testing.T) {
		s := newSender(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}), nil)

		_, err := NewOrders(s).CreateOrder(context.Background(), domain.Order{UserID: 7})
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})
}

func TestOrders_CreateOrderItem(t *testing.T) {
	s := newSender(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/orderitems", r.URL.Path)
		var in domain.OrderItem
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		id := int64(9)
		in.ID = &id
		_ = json.NewEncoder(w).Encode(in)
	}), nil)

	oid := int64(42)
	out, err := NewOrders(s).CreateOrderItem(context.Background(), domain.OrderItem{ProductID: 5, OrderID: &oid, Quantity: 2, UnitPriceInCents: 250})
	require.NoError(t, err)
	require.NotNil(t, out.ID)
	assert.Equal(t, int64(9), *out.ID)
	assert.Equal(t, int64(42), *out.OrderID)
}

func TestRequestIsValue(t *testing.T) {
	a, err := Post("/orders", map[string]int{"x": 1})
	require.NoError(t, err)
	b := a
	b.body = []byte("changed")
	assert.Equal(t, `{"x":1}`, string(a.body))
	assert.Equal(t, http.MethodPost, a.Method())
	assert.Equal(t, "/orders", a.Path())
}

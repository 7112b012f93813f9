package collaborator

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"

	"storefront-auth/internal/domain"
)

// Catalog reads products from the persistence service.
type Catalog struct {
	sender Sender
}

func NewCatalog(s Sender) *Catalog {
	return &Catalog{sender: s}
}

// GetByID fetches one product; unknown ids return domain.ErrNotFound.
func (c *Catalog) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	resp, err := c.sender.Send(ctx, Get("/products", url.Values{"id": {strconv.FormatInt(id, 10)}}))
	if err != nil {
		return nil, err
	}
	var p domain.Product
	if err := resp.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Credentials reads user records for login.
type Credentials struct {
	sender Sender
}

func NewCredentials(s Sender) *Credentials {
	return &Credentials{sender: s}
}

func (c *Credentials) GetByName(ctx context.Context, name string) (*domain.User, error) {
	resp, err := c.sender.Send(ctx, Get("/users/name", url.Values{"name": {name}}))
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Orders writes order headers and line items.
type Orders struct {
	sender Sender
}

func NewOrders(s Sender) *Orders {
	return &Orders{sender: s}
}

// CreateOrder stores o and returns the assigned id, taken from the response
// body or, when the body carries none, from the Location header.
func (c *Orders) CreateOrder(ctx context.Context, o domain.Order) (int64, error) {
	req, err := Post("/orders", o)
	if err != nil {
		return 0, err
	}
	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		return 0, err
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if len(resp.Body) > 0 && resp.Decode(&created) == nil && created.ID > 0 {
		return created.ID, nil
	}
	if loc := resp.Header.Get("Location"); loc != "" {
		if id, err := strconv.ParseInt(path.Base(loc), 10, 64); err == nil && id > 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: order created without id", domain.ErrUnavailable)
}

// CreateOrderItem stores one line item. The stored copy is returned; an empty
// reply body echoes the input.
func (c *Orders) CreateOrderItem(ctx context.Context, item domain.OrderItem) (*domain.OrderItem, error) {
	req, err := Post("/orderitems", item)
	if err != nil {
		return nil, err
	}
	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	out := item
	if len(resp.Body) > 0 {
		if err := resp.Decode(&out); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

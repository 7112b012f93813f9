package domain

import (
	"fmt"
	"math"
	"math/bits"
	"unicode/utf8"
)

// MaxQuantity bounds a single cart line.
const MaxQuantity = 10000

// SessionRecord is the complete client-held session and cart state. It is
// round-tripped through the SessionData cookie and never stored server-side.
type SessionRecord struct {
	UserID     *int64      `json:"userId,omitempty"`
	SessionID  string      `json:"sessionId,omitempty"`
	Token      string      `json:"token,omitempty"`
	Order      OrderDraft  `json:"order"`
	OrderItems []OrderItem `json:"orderItems"`
	Message    string      `json:"message,omitempty"`
}

// AnonymousSession is the logged-out, empty-cart record.
func AnonymousSession() SessionRecord {
	return SessionRecord{
		Order:      EmptyDraft(),
		OrderItems: []OrderItem{},
	}
}

// IsAnonymous reports whether the record carries no identity.
func (r SessionRecord) IsAnonymous() bool {
	return r.UserID == nil
}

// Clone returns a deep copy so callers can mutate without aliasing the original items.
func (r SessionRecord) Clone() SessionRecord {
	out := r
	if r.UserID != nil {
		uid := *r.UserID
		out.UserID = &uid
	}
	out.OrderItems = CloneItems(r.OrderItems)
	return out
}

// CloneItems deep-copies a slice of line items.
func CloneItems(items []OrderItem) []OrderItem {
	out := make([]OrderItem, 0, len(items))
	for _, it := range items {
		c := it
		if it.ID != nil {
			id := *it.ID
			c.ID = &id
		}
		if it.OrderID != nil {
			oid := *it.OrderID
			c.OrderID = &oid
		}
		out = append(out, c)
	}
	return out
}

// WellFormed checks the structural invariants: one line per product id and
// quantities between 1 and MaxQuantity.
func (r SessionRecord) WellFormed() bool {
	seen := make(map[int64]struct{}, len(r.OrderItems))
	for _, it := range r.OrderItems {
		if it.Quantity < 1 || it.Quantity > MaxQuantity {
			return false
		}
		if _, dup := seen[it.ProductID]; dup {
			return false
		}
		seen[it.ProductID] = struct{}{}
	}
	return true
}

// ValidText reports whether every string field is valid UTF-8. JSON encoding
// would silently rewrite anything else, breaking the signed bytes.
func (r SessionRecord) ValidText() bool {
	d := r.Order
	for _, v := range []string{r.SessionID, r.Token, r.Message, string(d.State),
		d.AddressName, d.Address1, d.Address2,
		d.CreditCardCompany, d.CreditCardNumber, d.CreditCardExpiryDate} {
		if !utf8.ValidString(v) {
			return false
		}
	}
	return true
}

// TotalInCents sums quantity times unit price over the cart. Negative
// quantities or prices and totals beyond int64 are rejected.
func TotalInCents(items []OrderItem) (int64, error) {
	var total int64
	for _, it := range items {
		if it.Quantity < 1 || it.UnitPriceInCents < 0 {
			return 0, fmt.Errorf("%w: product %d has quantity %d at %d cents",
				ErrInvalidInput, it.ProductID, it.Quantity, it.UnitPriceInCents)
		}
		hi, line := bits.Mul64(uint64(it.Quantity), uint64(it.UnitPriceInCents))
		if hi != 0 || line > math.MaxInt64 || int64(line) > math.MaxInt64-total {
			return 0, fmt.Errorf("%w: cart total overflows", ErrInvalidInput)
		}
		total += int64(line)
	}
	return total, nil
}

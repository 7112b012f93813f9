package domain

import (
	"strings"
	"unicode/utf8"
)

// DraftState tags whether a checkout is in progress.
type DraftState string

const (
	DraftEmpty DraftState = "empty"
	DraftOpen  DraftState = "draft"
)

// OrderDraft carries checkout fields between requests. The zero value and
// EmptyDraft() both mean no checkout is in progress.
type OrderDraft struct {
	State                DraftState `json:"state"`
	AddressName          string     `json:"addressName,omitempty"`
	Address1             string     `json:"address1,omitempty"`
	Address2             string     `json:"address2,omitempty"`
	CreditCardCompany    string     `json:"creditCardCompany,omitempty"`
	CreditCardNumber     string     `json:"creditCardNumber,omitempty"`
	CreditCardExpiryDate string     `json:"creditCardExpiryDate,omitempty"`
}

// EmptyDraft returns the cleared checkout state.
func EmptyDraft() OrderDraft {
	return OrderDraft{State: DraftEmpty}
}

// IsEmpty reports whether no checkout is in progress.
func (d OrderDraft) IsEmpty() bool {
	return d.State != DraftOpen
}

// Order is the persisted order header. TotalPriceInCents is always computed
// server-side from the cart.
type Order struct {
	ID                   int64  `json:"id,omitempty"`
	UserID               int64  `json:"userId"`
	Time                 string `json:"time"`
	TotalPriceInCents    int64  `json:"totalPriceInCents"`
	AddressName          string `json:"addressName"`
	Address1             string `json:"address1"`
	Address2             string `json:"address2"`
	CreditCardCompany    string `json:"creditCardCompany"`
	CreditCardNumber     string `json:"creditCardNumber"`
	CreditCardExpiryDate string `json:"creditCardExpiryDate"`
}

// OrderItem is one cart line. UnitPriceInCents is the catalog price captured
// when the product was first added.
type OrderItem struct {
	ID               *int64 `json:"id,omitempty"`
	ProductID        int64  `json:"productId"`
	OrderID          *int64 `json:"orderId,omitempty"`
	Quantity         int    `json:"quantity"`
	UnitPriceInCents int64  `json:"unitPriceInCents"`
}

// CheckoutDetails are the shipping and payment display fields supplied by the client.
type CheckoutDetails struct {
	AddressName          string `json:"addressName" form:"addressName"`
	Address1             string `json:"address1" form:"address1"`
	Address2             string `json:"address2" form:"address2"`
	CreditCardCompany    string `json:"creditCardCompany" form:"creditCardCompany"`
	CreditCardNumber     string `json:"creditCardNumber" form:"creditCardNumber"`
	CreditCardExpiryDate string `json:"creditCardExpiryDate" form:"creditCardExpiryDate"`
}

// IsZero reports whether no field was supplied.
func (d CheckoutDetails) IsZero() bool {
	return d == CheckoutDetails{}
}

// Missing lists the required fields left blank. Address2 is optional.
func (d CheckoutDetails) Missing() []string {
	var out []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	check("addressName", d.AddressName)
	check("address1", d.Address1)
	check("creditCardCompany", d.CreditCardCompany)
	check("creditCardNumber", d.CreditCardNumber)
	check("creditCardExpiryDate", d.CreditCardExpiryDate)
	return out
}

// NotUTF8 lists the fields that are not valid UTF-8.
func (d CheckoutDetails) NotUTF8() []string {
	var out []string
	check := func(name, v string) {
		if !utf8.ValidString(v) {
			out = append(out, name)
		}
	}
	check("addressName", d.AddressName)
	check("address1", d.Address1)
	check("address2", d.Address2)
	check("creditCardCompany", d.CreditCardCompany)
	check("creditCardNumber", d.CreditCardNumber)
	check("creditCardExpiryDate", d.CreditCardExpiryDate)
	return out
}

// Draft converts the details into an open checkout draft.
func (d CheckoutDetails) Draft() OrderDraft {
	return OrderDraft{
		State:                DraftOpen,
		AddressName:          d.AddressName,
		Address1:             d.Address1,
		Address2:             d.Address2,
		CreditCardCompany:    d.CreditCardCompany,
		CreditCardNumber:     d.CreditCardNumber,
		CreditCardExpiryDate: d.CreditCardExpiryDate,
	}
}

// DetailsFromDraft is the inverse of CheckoutDetails.Draft.
func DetailsFromDraft(d OrderDraft) CheckoutDetails {
	if d.IsEmpty() {
		return CheckoutDetails{}
	}
	return CheckoutDetails{
		AddressName:          d.AddressName,
		Address1:             d.Address1,
		Address2:             d.Address2,
		CreditCardCompany:    d.CreditCardCompany,
		CreditCardNumber:     d.CreditCardNumber,
		CreditCardExpiryDate: d.CreditCardExpiryDate,
	}
}

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
	"storefront-auth/internal/domain"
)

// MinSecretBytes is the shortest accepted HMAC key.
const MinSecretBytes = 16

// canonicalVersion prefixes every digest input so the field schema can evolve.
const canonicalVersion = 1

// Field numbers of the canonical encoding. They must never be reused.
const (
	fieldVersion   protowire.Number = 15
	fieldUserID    protowire.Number = 1
	fieldSessionID protowire.Number = 2
	fieldOrder     protowire.Number = 3
	fieldItem      protowire.Number = 4

	draftState       protowire.Number = 1
	draftAddressName protowire.Number = 2
	draftAddress1    protowire.Number = 3
	draftAddress2    protowire.Number = 4
	draftCardCompany protowire.Number = 5
	draftCardNumber  protowire.Number = 6
	draftCardExpiry  protowire.Number = 7

	itemProductID protowire.Number = 1
	itemQuantity  protowire.Number = 2
	itemUnitPrice protowire.Number = 3
	itemID        protowire.Number = 4
	itemOrderID   protowire.Number = 5
)

// Strict rejects tokens whose unused trailing bits are set.
var tokenEncoding = base64.RawURLEncoding.Strict()

// ErrWeakSecret is returned by NewGuard for keys shorter than MinSecretBytes.
var ErrWeakSecret = errors.New("session secret too short")

// Guard stamps and verifies the integrity token of a SessionRecord with
// HMAC-SHA256. The advisory Message field is not covered.
type Guard struct {
	key []byte
}

// NewGuard builds a Guard keyed with secret.
func NewGuard(secret []byte) (*Guard, error) {
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrWeakSecret, MinSecretBytes, len(secret))
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Guard{key: key}, nil
}

// Secure returns a copy of r with Token set to the digest of its canonical encoding.
func (g *Guard) Secure(r domain.SessionRecord) domain.SessionRecord {
	out := r.Clone()
	out.Token = tokenEncoding.EncodeToString(g.sum(out))
	return out
}

// Validate returns r unchanged when its token matches. Any mismatch, missing or
// undecodable token yields the anonymous record and false.
func (g *Guard) Validate(r domain.SessionRecord) (domain.SessionRecord, bool) {
	if r.Token == "" {
		return domain.AnonymousSession(), false
	}
	got, err := tokenEncoding.DecodeString(r.Token)
	if err != nil {
		return domain.AnonymousSession(), false
	}
	if !hmac.Equal(got, g.sum(r)) {
		return domain.AnonymousSession(), false
	}
	return r, true
}

func (g *Guard) sum(r domain.SessionRecord) []byte {
	mac := hmac.New(sha256.New, g.key)
	mac.Write(canonical(r))
	return mac.Sum(nil)
}

// canonical encodes every field except Token and Message with a fixed
// protobuf wire schema. Items are ordered by product id.
func canonical(r domain.SessionRecord) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, canonicalVersion)

	if r.UserID != nil {
		b = protowire.AppendTag(b, fieldUserID, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(*r.UserID))
	}
	if r.SessionID != "" {
		b = protowire.AppendTag(b, fieldSessionID, protowire.BytesType)
		b = protowire.AppendString(b, r.SessionID)
	}

	b = protowire.AppendTag(b, fieldOrder, protowire.BytesType)
	b = protowire.AppendBytes(b, canonicalDraft(r.Order))

	items := domain.CloneItems(r.OrderItems)
	sort.SliceStable(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	for _, it := range items {
		b = protowire.AppendTag(b, fieldItem, protowire.BytesType)
		b = protowire.AppendBytes(b, canonicalItem(it))
	}
	return b
}

func canonicalDraft(d domain.OrderDraft) []byte {
	state := d.State
	if state == "" {
		state = domain.DraftEmpty
	}
	var b []byte
	for _, f := range []struct {
		num protowire.Number
		val string
	}{
		{draftState, string(state)},
		{draftAddressName, d.AddressName},
		{draftAddress1, d.Address1},
		{draftAddress2, d.Address2},
		{draftCardCompany, d.CreditCardCompany},
		{draftCardNumber, d.CreditCardNumber},
		{draftCardExpiry, d.CreditCardExpiryDate},
	} {
		b = protowire.AppendTag(b, f.num, protowire.BytesType)
		b = protowire.AppendString(b, f.val)
	}
	return b
}

func canonicalItem(it domain.OrderItem) []byte {
	var b []byte
	b = protowire.AppendTag(b, itemProductID, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(it.ProductID))
	b = protowire.AppendTag(b, itemQuantity, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(it.Quantity)))
	b = protowire.AppendTag(b, itemUnitPrice, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(it.UnitPriceInCents))
	if it.ID != nil {
		b = protowire.AppendTag(b, itemID, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(*it.ID))
	}
	if it.OrderID != nil {
		b = protowire.AppendTag(b, itemOrderID, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(*it.OrderID))
	}
	return b
}

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"storefront-auth/internal/domain"
)

const (
	// CookieName is the cookie carrying the encoded SessionRecord.
	CookieName = "SessionData"
	// MaxCookieBytes caps the encoded value; browsers drop larger cookies.
	MaxCookieBytes = 4096
)

// ErrCookieTooLarge is returned by Encode when the cart no longer fits in a cookie.
var ErrCookieTooLarge = errors.New("session cookie too large")

// Encode serializes r to JSON and percent-encodes it for cookie transport.
// Records holding invalid UTF-8 are refused since JSON cannot carry them byte-for-byte.
func Encode(r domain.SessionRecord) (string, error) {
	r = normalize(r)
	if !r.ValidText() {
		return "", fmt.Errorf("%w: session text is not valid UTF-8", domain.ErrInvalidInput)
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	value := url.QueryEscape(string(raw))
	if len(value) > MaxCookieBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrCookieTooLarge, len(value))
	}
	return value, nil
}

// Decode is the inverse of Encode. Missing or malformed values are the normal
// logged-out state: the anonymous record is returned with ok=false.
func Decode(value string) (domain.SessionRecord, bool) {
	if value == "" || len(value) > MaxCookieBytes {
		return domain.AnonymousSession(), false
	}
	raw, err := url.QueryUnescape(value)
	if err != nil {
		return domain.AnonymousSession(), false
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	var r domain.SessionRecord
	if err := dec.Decode(&r); err != nil {
		return domain.AnonymousSession(), false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return domain.AnonymousSession(), false
	}

	if !r.WellFormed() {
		return domain.AnonymousSession(), false
	}
	// Only the exact bytes Encode would produce are accepted, so case-folded
	// keys or alternative escapes cannot smuggle an equivalent record past the guard.
	if again, err := Encode(r); err != nil || again != value {
		return domain.AnonymousSession(), false
	}
	return r, true
}

func normalize(r domain.SessionRecord) domain.SessionRecord {
	if r.OrderItems == nil {
		r.OrderItems = []domain.OrderItem{}
	}
	if r.Order.State == "" {
		r.Order.State = domain.DraftEmpty
	}
	return r
}

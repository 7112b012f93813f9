package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// sessionIDBytes gives 256 bits of entropy per identifier.
const sessionIDBytes = 32

// IDIssuer produces session identifiers.
type IDIssuer func() (string, error)

// NewSessionID draws a fresh identifier from the system CSPRNG.
func NewSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RandomSecret returns a key suitable for NewGuard when none is configured.
func RandomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	return b, nil
}

package customer

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// CheckPassword reports whether plaintext matches the stored bcrypt hash.
// Malformed hashes never match.
func CheckPassword(plaintext, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}

// HashPassword returns a salted bcrypt hash. Out-of-range costs fall back to bcrypt.DefaultCost.
func HashPassword(plaintext string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

var (
	decoyOnce sync.Once
	decoy     string
)

// decoyHash is compared against when the user does not exist, so unknown
// names cost the same bcrypt work as wrong passwords.
func decoyHash() string {
	decoyOnce.Do(func() {
		h, err := HashPassword("decoy-password", bcrypt.DefaultCost)
		if err == nil {
			decoy = h
		}
	})
	return decoy
}

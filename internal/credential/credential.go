package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrHashUnavailable means credentials could not be hashed. Callers treat it as fatal.
var ErrHashUnavailable = errors.New("credential hashing unavailable")

// HashPassword returns the hex SHA-256 digest of password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Hasher builds credential stores. The zero value uses bcrypt.DefaultCost.
type Hasher struct {
	Cost int
}

// Store is the hashed password and PIN of one account.
type Store struct {
	passwordHash string
	pinHash      []byte
}

// New hashes password and pin into a Store.
func (h Hasher) New(password, pin string) (Store, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	pinHash, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return Store{}, fmt.Errorf("%w: %v", ErrHashUnavailable, err)
	}
	return Store{passwordHash: HashPassword(password), pinHash: pinHash}, nil
}

// Verify reports whether password and pin both match exactly.
func (s Store) Verify(password, pin string) bool {
	if len(s.pinHash) == 0 {
		return false
	}
	digest := HashPassword(password)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(s.passwordHash)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword(s.pinHash, []byte(pin)) == nil
}

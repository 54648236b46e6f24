package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords using bcrypt.
// The cost factor is fixed at construction time; the produced hash is
// self-describing (algorithm version, cost and salt are embedded), so the
// cost can be raised later without invalidating existing hashes.
type Hasher struct {
	cost int
}

// New creates a Hasher with the given bcrypt cost.
// Out-of-range costs fall back to bcrypt.DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a salted bcrypt hash from the plaintext password.
// A fresh random salt is generated on every call.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether the plaintext matches the stored hash.
// A mismatch is (false, nil); an error is returned only when the stored
// hash is structurally malformed.
func (h *Hasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

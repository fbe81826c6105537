package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor for stored account passwords.
const DefaultBcryptCost = 10

// MaxPasswordBytes is the longest password bcrypt accepts. Anything longer
// is rejected at registration instead of being truncated.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned by Hash for passwords over MaxPasswordBytes.
var ErrPasswordTooLong = fmt.Errorf("auth: password longer than %d bytes", MaxPasswordBytes)

// PasswordHasher hashes account passwords with bcrypt at a fixed cost.
// Salt and cost travel inside the hash string, so users.password is the
// only column involved.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using the given bcrypt cost. Tests
// pass bcrypt.MinCost; production uses DefaultBcryptCost or BCRYPT_COST.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordHasher{cost: cost}, nil
}

// Hash returns the bcrypt hash to store for plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Matches reports whether plaintext is the password behind a stored hash.
// A wrong password is (false, nil); an error means the stored hash is
// unusable.
func (h *PasswordHasher) Matches(hash, plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("auth: comparing password hash: %w", err)
	}
}

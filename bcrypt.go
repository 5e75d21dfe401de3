package identity

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the work factor the service has always used.
// Raise it via Config when hardware allows.
const DefaultBcryptCost = 10

// HashPassword will generate a salted password hash. Two calls with the same
// input produce different outputs.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. A malformed stored hash reports as a mismatch rather
// than a distinct failure.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		// malformed hashes land here too, deliberately indistinct
		return ErrMismatchedHashAndPassword
	}
	return nil
}

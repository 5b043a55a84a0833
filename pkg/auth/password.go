package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

// HashPassword derives a bcrypt hash from a plaintext password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", catalog.InvalidInputf("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against a stored hash.
// A mismatch is an authentication failure, not an internal error.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return catalog.Unauthorizedf("invalid credentials")
	}
	return nil
}

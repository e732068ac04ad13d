// Package auth covers credential handling for the API: bcrypt password
// hashing and the JWT bearer tokens the HTTP layer resolves identities from.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword derives the bcrypt digest stored in users.password_hash.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt generate failed: %w", err)
	}
	return string(digest), nil
}

// CheckPasswordHash reports whether password matches the stored digest.
// Any bcrypt error, including a malformed digest, counts as a mismatch.
func CheckPasswordHash(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

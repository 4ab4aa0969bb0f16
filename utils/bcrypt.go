package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash of the password at the default cost.
func HashPassword(s string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
}

// ComparePassword checks the plain password against a stored bcrypt hash and
// returns bcrypt's mismatch error when they differ.
func ComparePassword(hashed string, normal string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(normal))
}

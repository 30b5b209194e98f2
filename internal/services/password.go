package services

import "golang.org/x/crypto/bcrypt"

// maxPasswordBytes is the longest input bcrypt reads.
const maxPasswordBytes = 72

// HashPassword hashes password with bcrypt at the given cost. Input past
// the first 72 bytes is dropped; CompareHashAndPassword ignores the same
// tail, so a long password still verifies against its hash.
func HashPassword(password string, cost int) ([]byte, error) {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return bcrypt.GenerateFromPassword(b, cost)
}

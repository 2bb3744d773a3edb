package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// SecureTokenLength is the byte length of reset and verification tokens.
const SecureTokenLength = 32

// GenerateSecureToken returns a hex-encoded random token with 256 bits of
// entropy, used for password reset and email verification.
func GenerateSecureToken() (string, error) {
	bytes := make([]byte, SecureTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

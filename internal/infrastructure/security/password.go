package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"golang.org/x/crypto/argon2"
)

const (
	saltLength = 16
	keyLength  = 32
)

// PasswordHashingService hashes passwords with Argon2id. The encoded form is
// base64 of salt followed by key.
type PasswordHashingService struct{}

var _ outbound.PasswordHasher = (*PasswordHashingService)(nil)

// NewPasswordHashingService creates password hashing service
func NewPasswordHashingService() *PasswordHashingService {
	return &PasswordHashingService{}
}

// Hash hashes a password with a fresh random salt
func (p *PasswordHashingService) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := derive(password, salt)
	return base64.StdEncoding.EncodeToString(append(salt, hash...)), nil
}

// Verify verifies a password against an encoded hash
func (p *PasswordHashingService) Verify(password, encoded string) (bool, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}
	if len(decoded) != saltLength+keyLength {
		return false, fmt.Errorf("invalid hash format")
	}

	salt, hash := decoded[:saltLength], decoded[saltLength:]
	return subtle.ConstantTimeCompare(hash, derive(password, salt)) == 1, nil
}

func derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, keyLength)
}

// Package crypto provides password hashing and security-stamp generation.
package crypto

import (
	"github.com/identra/identra/util/random"

	"golang.org/x/crypto/bcrypt"
)

const securityStampLength = 32

// HashPasswordAsBcrypt generates a bcrypt hash of the given password.
func HashPasswordAsBcrypt(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPasswordHash verifies if the given password matches the bcrypt hash.
func CheckPasswordHash(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NewSecurityStamp returns a fresh opaque token. A user's stamp changes
// whenever credentials change, which invalidates outstanding sessions.
func NewSecurityStamp() string {
	return random.Seq(securityStampLength)
}

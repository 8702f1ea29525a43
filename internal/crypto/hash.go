package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

var (
	ErrInvalidHashFormat = errors.New("invalid stored credential format")
)

const (
	SaltLength = 16
	KeyLength  = 64
	Iterations = 100000
)

// Credential is the stored form of a password: hex salt and hex derived key.
type Credential struct {
	Salt string
	Hash string
}

// HashPassword derives a credential from a plaintext password using
// PBKDF2-HMAC-SHA512 with a fresh random salt.
func HashPassword(password string) (Credential, error) {
	return hashWith(rand.Reader, password)
}

func hashWith(r io.Reader, password string) (Credential, error) {
	raw := make([]byte, SaltLength)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Credential{}, fmt.Errorf("generating salt: %w", err)
	}
	salt := hex.EncodeToString(raw)

	return Credential{
		Salt: salt,
		Hash: hex.EncodeToString(deriveKey(password, salt)),
	}, nil
}

// VerifyPassword checks a plaintext password against a stored salt and hash.
// Uses constant-time comparison to prevent timing attacks.
func VerifyPassword(password, salt, hash string) (bool, error) {
	stored, err := hex.DecodeString(hash)
	if err != nil || salt == "" {
		return false, ErrInvalidHashFormat
	}

	candidate := deriveKey(password, salt)

	// ConstantTimeCompare returns 0 for slices of differing length.
	return subtle.ConstantTimeCompare(stored, candidate) == 1, nil
}

// deriveKey keys the KDF with the hex salt string itself, not its decoded
// bytes, so credentials written by earlier deployments stay valid.
func deriveKey(password, salt string) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), Iterations, KeyLength, sha512.New)
}

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrInvalidKeySize       = errors.New("invalid AES key size (must be 16, 24, or 32 bytes)")
	ErrInvalidCiphertext    = errors.New("ciphertext is not in ciphertext.iv form")
	ErrAuthenticationFailed = errors.New("ciphertext authentication failed")
	ErrMissingSecret        = errors.New("signing secret is empty")
)

// NewAESGCM creates a new AES-GCM cipher block based on the key size.
func NewAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		// aes.NewCipher checks key size (16, 24, 32 bytes)
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeySize, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return aead, nil
}

// DeriveKey hashes the server signing secret into a 256-bit AES key.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:], nil
}

// Encrypt encrypts plaintext using AES-GCM with a random nonce and returns
// "base64(ciphertext).base64(nonce)". The GCM tag is appended to the ciphertext.
func Encrypt(aead cipher.AEAD, plaintext []byte) (string, error) {
	// Never use more than 2^32 random nonces with a given key because of the risk of repeat.
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(ciphertext) + "." + base64.StdEncoding.EncodeToString(nonce), nil
}

// Decrypt reverses Encrypt.
func Decrypt(aead cipher.AEAD, sealed string) ([]byte, error) {
	ciphertext, nonce, ok := splitSealed(sealed, aead.NonceSize())
	if !ok {
		return nil, ErrInvalidCiphertext
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		// Common error here is "cipher: message authentication failed"
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	return plaintext, nil
}

// IsSealed reports whether s has the two-part base64 "ciphertext.iv" shape.
func IsSealed(s string, nonceSize int) bool {
	_, _, ok := splitSealed(s, nonceSize)
	return ok
}

func splitSealed(s string, nonceSize int) (ciphertext, nonce []byte, ok bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, nil, false
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, false
	}
	nonce, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(nonce) != nonceSize {
		return nil, nil, false
	}
	return ciphertext, nonce, true
}

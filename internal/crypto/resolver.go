package crypto

import (
	"crypto/cipher"
	"fmt"
)

// KeyResolver turns stored provider API keys into usable plaintext keys.
type KeyResolver struct {
	aead cipher.AEAD
}

// NewKeyResolver builds a resolver keyed by the server signing secret.
func NewKeyResolver(secret string) (*KeyResolver, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	aead, err := NewAESGCM(key)
	if err != nil {
		return nil, err
	}
	return &KeyResolver{aead: aead}, nil
}

// Resolve decrypts raw when it is ciphertext-shaped and returns it unchanged
// otherwise. An empty raw resolves to an empty key; callers fall back to the
// server default in that case.
func (r *KeyResolver) Resolve(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if !IsSealed(raw, r.aead.NonceSize()) {
		return raw, nil
	}
	plain, err := Decrypt(r.aead, raw)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt api key: %w", err)
	}
	return string(plain), nil
}

// Seal encrypts a plaintext key into the stored form.
func (r *KeyResolver) Seal(plain string) (string, error) {
	return Encrypt(r.aead, []byte(plain))
}

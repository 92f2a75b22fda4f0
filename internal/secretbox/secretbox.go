// Package secretbox encrypts short secrets (third-party OAuth tokens) before
// they are written to the database.
//
// Ciphertext format: base64url( nonce || XChaCha20-Poly1305(plaintext) ).
// The 24-byte nonce is random per Seal, so sealing the same token twice
// yields different strings.
package secretbox

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrMalformed is returned by Open for input that was not produced by Seal.
var ErrMalformed = errors.New("secretbox: malformed ciphertext")

// Box seals and opens secrets with one key.
type Box struct {
	aead cipher.AEAD
}

// New builds a Box from a 64-character hex key (32 bytes).
//
// An empty key returns a passthrough Box that stores secrets as-is; the
// caller is expected to log a warning.
func New(hexKey string) (*Box, error) {
	if hexKey == "" {
		return &Box{}, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("secretbox: decoding key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("secretbox: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: creating cipher: %w", err)
	}
	return &Box{aead: aead}, nil
}

// Passthrough reports whether the Box stores secrets unencrypted.
func (b *Box) Passthrough() bool {
	return b.aead == nil
}

// Seal encrypts plaintext. The empty string stays empty.
func (b *Box) Seal(plaintext string) (string, error) {
	if b.aead == nil || plaintext == "" {
		return plaintext, nil
	}
	nonce := make([]byte, b.aead.NonceSize(), b.aead.NonceSize()+len(plaintext)+b.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secretbox: reading nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (b *Box) Open(ciphertext string) (string, error) {
	if b.aead == nil || ciphertext == "" {
		return ciphertext, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrMalformed
	}
	if len(raw) < b.aead.NonceSize()+b.aead.Overhead() {
		return "", ErrMalformed
	}
	nonce, body := raw[:b.aead.NonceSize()], raw[b.aead.NonceSize():]
	plain, err := b.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox: opening: %w", err)
	}
	return string(plain), nil
}

// Package secrets seals small values for at-rest storage so the bearer
// token never hits disk in the clear.
package secrets

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrEmptySecret = errors.New("state secret must not be empty")
	// ErrCannotOpen covers tampered ciphertext and wrong-key decryption
	// alike; callers treat both as corrupt state.
	ErrCannotOpen = errors.New("cannot open sealed value")
)

const keyInfo = "banking-client state encryption"

// Box seals and opens values with a key derived from the configured
// state secret and the per-install salt.
type Box struct {
	aead cipher.AEAD
}

// NewBox derives an encryption key from secret and salt via
// HKDF-SHA256 and returns a ready Box.
func NewBox(secret, salt string) (*Box, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte(keyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	return &Box{aead: aead}, nil
}

// Seal encrypts plaintext and returns a base64 string of nonce||ciphertext.
func (b *Box) Seal(plaintext []byte) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := b.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (b *Box) Open(encoded string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrCannotOpen
	}

	nonceSize := b.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, ErrCannotOpen
	}

	plaintext, err := b.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, ErrCannotOpen
	}
	return plaintext, nil
}

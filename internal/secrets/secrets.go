// Package secrets decrypts transport credentials stored at rest.
// Ciphertexts are AES-256-GCM, base64-encoded, with the nonce prepended.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrInvalidKey = errors.New("secrets: key must be 32 bytes of hex")

type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a codec from a hex-encoded 256-bit key.
func NewCodec(hexKey string) (*Codec, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secrets: cipher init: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secrets: gcm init: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext with a random nonce. Used by the transport
// configuration write path and by tests.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secrets: nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Failure here means the
// stored secret is corrupt or was written under a different key; it is
// never a "not configured" condition.
func (c *Codec) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("secrets: decode: %w", err)
	}

	if len(raw) < c.aead.NonceSize() {
		return "", errors.New("secrets: ciphertext shorter than nonce")
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("secrets: decrypt: %w", err)
	}

	return string(plaintext), nil
}

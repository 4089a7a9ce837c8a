// Package fieldcipher provides AES-256-GCM encryption of individual PII
// fields. Ciphertexts are base64(nonce || sealed) so they survive any JSON
// document store unchanged.
package fieldcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"crm_dashboard_backend/platform/metrics"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the AES-256 key length.
const KeySize = 32

const hkdfInfo = "crm-dashboard field cipher v1"

// ErrEmptySecret is returned when no key material is configured.
var ErrEmptySecret = errors.New("field cipher secret is empty")

// Cipher encrypts and decrypts single string fields.
type Cipher struct {
	aead cipher.AEAD
}

// New builds a cipher from secret. A 32-byte secret is used as the key;
// anything else is stretched to 32 bytes with HKDF-SHA256.
func New(secret []byte) (*Cipher, error) {
	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

func deriveKey(secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if len(secret) == KeySize {
		return append([]byte(nil), secret...), nil
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext under a fresh random nonce. The empty string
// stays empty.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Any failure returns the input
// unchanged; callers never see an error from this path.
func (c *Cipher) Decrypt(encoded string) string {
	plain, _ := c.Open(encoded)
	return plain
}

// Open is Decrypt that also reports whether decryption succeeded. The
// empty string counts as success.
func (c *Cipher) Open(encoded string) (string, bool) {
	if encoded == "" {
		return "", true
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fallback(encoded)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize+c.aead.Overhead() {
		return fallback(encoded)
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return fallback(encoded)
	}
	return string(plaintext), true
}

func fallback(raw string) (string, bool) {
	metrics.DecryptFallbackCounter.Inc()
	return raw, false
}

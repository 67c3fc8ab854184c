package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Codec encrypts OAuth tokens at rest with AES-GCM. Every value it writes
// carries the "v1:" prefix so the encoding is versioned; values without the
// prefix were written by an older subsystem in an unknown format and are
// refused rather than guessed at; they stay flagged for manual migration.
type Codec struct {
	aead cipher.AEAD
}

const versionPrefix = "v1:"

// ErrLegacyCredential marks a stored credential in a pre-versioned format.
var ErrLegacyCredential = errors.New("credential stored in legacy format, manual migration required")

func NewCodec(key string) (*Codec, error) {
	trimmed := strings.TrimSpace(key)
	switch len(trimmed) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("credential key must be 16, 24 or 32 bytes, got %d", len(trimmed))
	}
	block, err := aes.NewCipher([]byte(trimmed))
	if err != nil {
		return nil, fmt.Errorf("init aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Codec{aead: aead}, nil
}

func (c *Codec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return versionPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Codec) Decrypt(stored string) (string, error) {
	if stored == "" {
		return "", nil
	}
	if !strings.HasPrefix(stored, versionPrefix) {
		return "", ErrLegacyCredential
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, versionPrefix))
	if err != nil {
		return "", fmt.Errorf("decode credential: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", errors.New("credential ciphertext truncated")
	}
	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt credential: %w", err)
	}
	return string(plaintext), nil
}

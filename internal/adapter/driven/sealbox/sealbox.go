// Package sealbox encrypts short secrets (provider access tokens) for storage
// at rest with AES-256-GCM.
package sealbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// Box seals and opens values with a fixed AES-256-GCM key.
// A nil *Box is valid: Seal and Open fail with driven.ErrEncryptionKeyNotSet,
// and the Optional variants degrade to storing nothing.
type Box struct {
	aead cipher.AEAD
}

// New creates a Box from a 32-byte key.
func New(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("sealbox key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &Box{aead: gcm}, nil
}

// Seal encrypts plaintext and returns a base64 string containing the nonce
// (12 bytes) prepended to the ciphertext.
func (b *Box) Seal(plaintext string) (string, error) {
	if b == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// nonce || ciphertext || tag
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (b *Box) Open(encoded string) (string, error) {
	if b == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	nonceSize := b.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

// SealOptional seals plaintext when the box has a key. With a nil box, or an
// empty plaintext, it returns "" so nothing sensitive is stored.
func (b *Box) SealOptional(plaintext string) (string, error) {
	if b == nil || plaintext == "" {
		return "", nil
	}
	return b.Seal(plaintext)
}

// OpenOptional is the counterpart of SealOptional.
func (b *Box) OpenOptional(encoded string) (string, error) {
	if b == nil || encoded == "" {
		return "", nil
	}
	return b.Open(encoded)
}

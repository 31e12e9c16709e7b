package kv

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize          = 32 // AES-256
	nonceSize        = 12 // GCM standard nonce size
	saltSize         = 16
	pbkdf2Iterations = 100000

	// SaltKey is the reserved key holding the per-store salt
	SaltKey = "_taskdeck_salt"
)

// ErrDecrypt is returned when a stored value cannot be opened with the key
var ErrDecrypt = errors.New("kv: decryption failed: invalid passphrase or corrupted data")

// Sealed encrypts every value with AES-256-GCM before handing it to the
// wrapped store. The key is derived from a passphrase with PBKDF2.
type Sealed struct {
	inner Store
	aead  cipher.AEAD
}

// NewSealed wraps inner. The salt is read from inner, or generated and stored
// on first use.
func NewSealed(ctx context.Context, inner Store, passphrase string) (*Sealed, error) {
	if passphrase == "" {
		return nil, errors.New("kv: empty passphrase")
	}

	salt, err := inner.Get(ctx, SaltKey)
	if errors.Is(err, ErrNotFound) {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		if err := inner.Put(ctx, SaltKey, salt); err != nil {
			return nil, fmt.Errorf("failed to store salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read salt: %w", err)
	}

	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Sealed{inner: inner, aead: gcm}, nil
}

// Get reads and decrypts the value under key. The key name is bound as
// additional data so ciphertexts cannot be swapped between keys.
func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(data) < nonceSize {
		return nil, ErrDecrypt
	}

	plaintext, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], []byte(key))
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// Put encrypts value and stores nonce + ciphertext
func (s *Sealed) Put(ctx context.Context, key string, value []byte) error {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	return s.inner.Put(ctx, key, s.aead.Seal(nonce, nonce, value, []byte(key)))
}

// Close closes the wrapped store
func (s *Sealed) Close() error {
	return s.inner.Close()
}

// Package secrets handles the encrypted investor-password envelope.
// The format is hex(iv):hex(ciphertext):hex(authTag) with AES-256-GCM, a
// 16-byte IV, and a key taken from the first 32 bytes of the configured
// secret. It must stay bit-exact with the upstream component that
// produces the envelopes.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	ivLength  = 16
	keyLength = 32
	tagLength = 16
)

// ErrDecryption is returned for a malformed envelope or a failed
// integrity check. Per-instance: the scheduler logs it and skips the
// instance for the cycle.
var ErrDecryption = errors.New("secrets: decryption failed")

// Box encrypts and decrypts credential envelopes with a fixed key.
type Box struct {
	key []byte
}

// NewBox derives a Box from the configured secret. The secret must be at
// least 32 bytes; only the first 32 are used.
func NewBox(secret string) (*Box, error) {
	if len(secret) < keyLength {
		return nil, fmt.Errorf("encryption key must be at least %d bytes, got %d", keyLength, len(secret))
	}
	return &Box{key: []byte(secret[:keyLength])}, nil
}

// Encrypt seals plaintext into an envelope with a random IV.
func (b *Box) Encrypt(plaintext string) (string, error) {
	gcm, err := b.gcm()
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	// Seal returns ciphertext||tag; the envelope keeps them as separate fields.
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(iv),
		hex.EncodeToString(ciphertext),
		hex.EncodeToString(tag),
	), nil
}

// Decrypt opens an envelope and returns the plaintext credential.
// Returns ErrDecryption if the envelope does not split into exactly three
// non-empty hex fields or the authentication tag fails to verify.
func (b *Box) Decrypt(envelope string) (string, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", fmt.Errorf("%w: invalid envelope format", ErrDecryption)
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != ivLength {
		return "", fmt.Errorf("%w: invalid iv field", ErrDecryption)
	}

	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext field", ErrDecryption)
	}

	tag, err := hex.DecodeString(parts[2])
	if err != nil || len(tag) != tagLength {
		return "", fmt.Errorf("%w: invalid auth tag field", ErrDecryption)
	}

	gcm, err := b.gcm()
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: integrity check failed", ErrDecryption)
	}

	return string(plaintext), nil
}

// gcm builds the AEAD with the 16-byte nonce size the envelope format uses.
func (b *Box) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(b.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return gcm, nil
}

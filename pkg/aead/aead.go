// Package aead implements the canonical AEAD envelope used throughout
// zkauth: AES-256-GCM with a 12-byte random IV and a 16-byte tag, each
// field held separately in hex. This is the flattened, JSON-oriented
// cousin of pkg/backend/symmetric's length-prefixed EncryptedData wire
// format — spec.md's data model calls for {ciphertext, iv, tag} as
// independent hex strings, not a single binary blob.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

const (
	// IVSize is the standard GCM nonce size in bytes.
	IVSize = 12
	// TagSize is the GCM authentication tag size in bytes.
	TagSize = 16
	// KeySize is the AES-256 key size in bytes.
	KeySize = 32
)

// Result is the canonical AEAD envelope: {ciphertext, iv, tag} all in hex,
// plus the algorithm that produced it. Algorithm is left empty by Seal
// and by pkg/sharing's share envelopes, which are always AES-256-GCM per
// spec.md §4.5; only the SelectOptimal-driven MasterKey.EncryptData path
// stamps it, so MasterKey.DecryptData treats an empty Algorithm as
// AES-256-GCM. Open itself ignores Algorithm.
type Result struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	Tag        string `json:"tag"`
	Algorithm  string `json:"algorithm,omitempty"`
}

// Seal encrypts plaintext under key (must be 32 bytes) with AES-256-GCM,
// no additional data, and a fresh random 12-byte IV.
func Seal(key, plaintext []byte) (*Result, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: aead key must be %d bytes, got %d", zkerrors.ErrInvalidInput, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithTagSize(block, TagSize)
	if err != nil {
		return nil, fmt.Errorf("aead: failed to create gcm: %w", err)
	}

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("aead: failed to generate iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ciphertext := sealed[:len(sealed)-TagSize]
	tag := sealed[len(sealed)-TagSize:]

	return &Result{
		Ciphertext: hex.EncodeToString(ciphertext),
		IV:         hex.EncodeToString(iv),
		Tag:        hex.EncodeToString(tag),
	}, nil
}

// Open decrypts a Result under key. Any tag mismatch, truncation, or
// malformed hex fails with ErrAuthenticationFailure.
func Open(key []byte, r *Result) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: aead key must be %d bytes, got %d", zkerrors.ErrInvalidInput, KeySize, len(key))
	}
	if r == nil {
		return nil, fmt.Errorf("%w: nil aead result", zkerrors.ErrAuthenticationFailure)
	}

	iv, err := hex.DecodeString(r.IV)
	if err != nil || len(iv) != IVSize {
		return nil, fmt.Errorf("%w: malformed iv", zkerrors.ErrAuthenticationFailure)
	}
	tag, err := hex.DecodeString(r.Tag)
	if err != nil || len(tag) != TagSize {
		return nil, fmt.Errorf("%w: malformed tag", zkerrors.ErrAuthenticationFailure)
	}
	ciphertext, err := hex.DecodeString(r.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed ciphertext", zkerrors.ErrAuthenticationFailure)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithTagSize(block, TagSize)
	if err != nil {
		return nil, fmt.Errorf("aead: failed to create gcm: %w", err)
	}

	sealed := append(append([]byte{}, ciphertext...), tag...)
	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", zkerrors.ErrAuthenticationFailure, err)
	}
	return plaintext, nil
}

package aead

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

// SealChaCha20 encrypts plaintext with ChaCha20-Poly1305, the software-only
// alternative SelectOptimal chooses on CPUs without AES-NI. The envelope
// shape matches Result so callers don't need to branch on algorithm when
// storing the ciphertext.
func SealChaCha20(key, plaintext []byte) (*Result, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: chacha20poly1305 key must be %d bytes, got %d",
			zkerrors.ErrInvalidInput, chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("aead: failed to create chacha20poly1305: %w", err)
	}
	iv := make([]byte, aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("aead: failed to generate nonce: %w", err)
	}
	sealed := aead.Seal(nil, iv, plaintext, nil)
	ciphertext := sealed[:len(sealed)-TagSize]
	tag := sealed[len(sealed)-TagSize:]
	return &Result{
		Ciphertext: hex.EncodeToString(ciphertext),
		IV:         hex.EncodeToString(iv),
		Tag:        hex.EncodeToString(tag),
	}, nil
}

// OpenChaCha20 decrypts a Result produced by SealChaCha20.
func OpenChaCha20(key []byte, r *Result) ([]byte, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: chacha20poly1305 key must be %d bytes, got %d",
			zkerrors.ErrInvalidInput, chacha20poly1305.KeySize, len(key))
	}
	if r == nil {
		return nil, fmt.Errorf("%w: nil aead result", zkerrors.ErrAuthenticationFailure)
	}
	iv, err := hex.DecodeString(r.IV)
	if err != nil {
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
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("aead: failed to create chacha20poly1305: %w", err)
	}
	if len(iv) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: malformed nonce", zkerrors.ErrAuthenticationFailure)
	}
	sealed := append(append([]byte{}, ciphertext...), tag...)
	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", zkerrors.ErrAuthenticationFailure, err)
	}
	return plaintext, nil
}

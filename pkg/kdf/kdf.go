// Package kdf collects the hash and key-derivation primitives spec.md §4.3
// names: SHA-256, HMAC-SHA-256, PBKDF2, and HKDF-SHA-256. It is grounded on
// pkg/adapters/kdf's PBKDF2Adapter/HKDFAdapter, flattened to plain
// functions since zkauth has exactly one purpose per algorithm rather than
// pluggable KDF selection.
package kdf

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2Iterations is the fixed iteration count spec.md §2/§4.3 mandates
// for the Ed25519 signature seed derivation.
const PBKDF2Iterations = 100_000

// SHA256 returns the 32-byte SHA-256 digest of data.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// HMACSHA256 returns the 32-byte HMAC-SHA-256 of msg keyed by key.
func HMACSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// PBKDF2SHA256 derives a keyLen-byte key from password and salt using
// PBKDF2-HMAC-SHA256 at PBKDF2Iterations rounds.
func PBKDF2SHA256(password, salt []byte, keyLen int) []byte {
	return pbkdf2.Key(password, salt, PBKDF2Iterations, keyLen, sha256.New)
}

// HKDFSHA256 derives L bytes from ikm using HKDF-SHA256 with the given
// salt and info, per RFC 5869.
func HKDFSHA256(ikm, salt, info []byte, l int) ([]byte, error) {
	r := hkdf.New(sha256.New, ikm, salt, info)
	out := make([]byte, l)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("kdf: hkdf expand failed: %w", err)
	}
	return out, nil
}

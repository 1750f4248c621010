// Package masterkey implements the 256-bit user master key: generation,
// hashing, and the AEAD helpers keyed either by the raw key itself or by a
// key derived from it. Grounded on pkg/backend/software's raw
// symmetric-key handling (generate, hex-encode, keep both forms around).
package masterkey

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jeremyhahn/zkauth/pkg/aead"
	"github.com/jeremyhahn/zkauth/pkg/field"
	"github.com/jeremyhahn/zkauth/pkg/kdf"
	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

// Size is the master key length in bytes (256 bits).
const Size = 32

// topBitsMask clears the top two bits of the first byte so the key, read
// as a big-endian integer, is below 2^254. The sharing field's modulus is
// itself below 2^254, so Generate also redraws any masked key that is not
// below field.Modulus. See DESIGN.md Open Question 1: this is spec.md §9's
// option (a), applied at generation time so every master key is
// unconditionally invertible through pkg/sharing.
const topBitsMask = 0x3F

// MasterKey is a 256-bit key held in both raw and hex form, plus its
// creation time.
type MasterKey struct {
	Raw       []byte
	Key       string // lowercase hex of Raw
	CreatedAt time.Time
}

// Generate creates a fresh master key from 32 cryptographically random
// bytes, with the top two bits cleared per topBitsMask, redrawing until
// the key is below field.Modulus.
func Generate() (*MasterKey, error) {
	raw := make([]byte, Size)
	for {
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("masterkey: failed to read random bytes: %w", err)
		}
		raw[0] &= topBitsMask
		if new(big.Int).SetBytes(raw).Cmp(field.Modulus) < 0 {
			break
		}
	}
	return &MasterKey{
		Raw:       raw,
		Key:       hex.EncodeToString(raw),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// FromHex reconstructs a MasterKey from a hex string, failing with
// ErrInvalidInput unless it decodes to exactly Size bytes.
func FromHex(h string) (*MasterKey, error) {
	raw, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("%w: master key is not valid hex: %v", zkerrors.ErrInvalidInput, err)
	}
	if len(raw) != Size {
		return nil, fmt.Errorf("%w: master key must be %d bytes, got %d", zkerrors.ErrInvalidInput, Size, len(raw))
	}
	return &MasterKey{
		Raw:       raw,
		Key:       hex.EncodeToString(raw),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Hash returns SHA-256(mk.Raw) as lowercase hex, the masterKeyHash field
// of RegisterResult.
func (mk *MasterKey) Hash() string {
	return hex.EncodeToString(kdf.SHA256(mk.Raw))
}

// DeriveAEADKey returns SHA-256(unhex(pk)), the key used to encrypt
// individual share envelopes (spec.md §4.4).
func DeriveAEADKey(pk string) ([]byte, error) {
	raw, err := hex.DecodeString(pk)
	if err != nil {
		return nil, fmt.Errorf("%w: pk is not valid hex: %v", zkerrors.ErrInvalidInput, err)
	}
	sum := kdf.SHA256(raw)
	return sum, nil
}

// EncryptWithPK encrypts data under DeriveAEADKey(pk).
func EncryptWithPK(pk string, data []byte) (*aead.Result, error) {
	key, err := DeriveAEADKey(pk)
	if err != nil {
		return nil, err
	}
	return aead.Seal(key, data)
}

// DecryptWithPK decrypts a Result produced by EncryptWithPK.
func DecryptWithPK(pk string, r *aead.Result) ([]byte, error) {
	key, err := DeriveAEADKey(pk)
	if err != nil {
		return nil, err
	}
	return aead.Open(key, r)
}

// EncryptData encrypts data under mk.Raw directly, for application data a
// caller protects with the master key recovered by login. The algorithm is chosen by
// aead.SelectOptimal, favoring ChaCha20-Poly1305 over AES-256-GCM on
// hardware without AES-NI, and stamped onto the result so DecryptData
// can dispatch to the matching cipher.
func (mk *MasterKey) EncryptData(data []byte) (*aead.Result, error) {
	var (
		r   *aead.Result
		err error
	)
	algorithm := aead.SelectOptimal()
	switch algorithm {
	case aead.AlgorithmChaCha20Poly1305:
		r, err = aead.SealChaCha20(mk.Raw, data)
	default:
		r, err = aead.Seal(mk.Raw, data)
	}
	if err != nil {
		return nil, err
	}
	r.Algorithm = algorithm
	return r, nil
}

// DecryptData decrypts a Result produced by EncryptData, dispatching on
// r.Algorithm. A Result with no Algorithm set (every pre-existing
// envelope, and every share envelope from pkg/sharing) is treated as
// AES-256-GCM, EncryptData's and Seal's shared original algorithm.
func (mk *MasterKey) DecryptData(r *aead.Result) ([]byte, error) {
	if r != nil && r.Algorithm == aead.AlgorithmChaCha20Poly1305 {
		return aead.OpenChaCha20(mk.Raw, r)
	}
	return aead.Open(mk.Raw, r)
}

// DeriveWrappingKey computes SHA-256("zkauth-wrap-v1:" + userId + ":" +
// lower(trim(email))), the key used to encrypt shares in credential-only
// login mode (spec.md §4.4/§4.8).
func DeriveWrappingKey(userID, email string) []byte {
	norm := normalizeEmail(email)
	return kdf.SHA256([]byte("zkauth-wrap-v1:" + userID + ":" + norm))
}

// GenerateUserID computes "zkauth:" + sha256(unhex(pk))[0:16 hex chars].
func GenerateUserID(pk string) (string, error) {
	raw, err := hex.DecodeString(pk)
	if err != nil {
		return "", fmt.Errorf("%w: pk is not valid hex: %v", zkerrors.ErrInvalidInput, err)
	}
	sum := hex.EncodeToString(kdf.SHA256(raw))
	return "zkauth:" + sum[:16], nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Package field implements arithmetic modulo the BN254 scalar field, the
// prime field the threshold secret sharing scheme in pkg/sharing operates
// over.
//
// This mirrors the shape of pkg/crypto/secretsharing's GF(256) arithmetic
// (a handful of free functions plus one type carrying the modulus) but is
// generalized to a ~254-bit prime via math/big, since master keys are
// 256-bit values that must be reconstructed exactly rather than mixed
// byte-by-byte in GF(256).
package field

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

// Modulus is the BN254 scalar field prime.
var Modulus, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// Element is a value in [0, Modulus).
type Element struct {
	v *big.Int
}

// Zero returns the additive identity.
func Zero() Element {
	return Element{v: new(big.Int)}
}

// One returns the multiplicative identity.
func One() Element {
	return Element{v: big.NewInt(1)}
}

// FromBigInt reduces an arbitrary big.Int modulo Modulus.
func FromBigInt(x *big.Int) Element {
	v := new(big.Int).Mod(x, Modulus)
	return Element{v: v}
}

// FromUint64 builds an Element from a small unsigned integer, used for
// share indices 1..255.
func FromUint64(x uint64) Element {
	return Element{v: new(big.Int).SetUint64(x)}
}

// FromBytes reduces big-endian bytes modulo Modulus.
func FromBytes(b []byte) Element {
	return FromBigInt(new(big.Int).SetBytes(b))
}

// ParseDecimal parses a base-10 string produced by String, failing with
// zkerrors.ErrInvalidInput if the string is not a valid integer.
func ParseDecimal(s string) (Element, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Element{}, fmt.Errorf("%w: not a decimal integer: %q", zkerrors.ErrInvalidInput, s)
	}
	return FromBigInt(v), nil
}

// String renders the element as a base-10 string, the transport encoding
// spec.md mandates for ShareData.
func (e Element) String() string {
	return e.v.String()
}

// Hex renders the element as 64-char zero-padded lowercase hex.
func (e Element) Hex() string {
	return fmt.Sprintf("%064x", e.v)
}

// Bytes returns the element's big-endian byte representation, not padded.
func (e Element) Bytes() []byte {
	return e.v.Bytes()
}

// Bytes32 returns the element's big-endian byte representation, left-padded
// with zeros to exactly 32 bytes. Used when a field element must round-trip
// through a fixed-width byte slice, such as a reconstructed master key.
func (e Element) Bytes32() []byte {
	raw := e.v.Bytes()
	out := make([]byte, 32)
	copy(out[32-len(raw):], raw)
	return out
}

// IsZero reports whether the element is the additive identity.
func (e Element) IsZero() bool {
	return e.v.Sign() == 0
}

// Equal reports whether two elements represent the same residue.
func (e Element) Equal(o Element) bool {
	return e.v.Cmp(o.v) == 0
}

// Add returns e + o mod p.
func (e Element) Add(o Element) Element {
	return FromBigInt(new(big.Int).Add(e.v, o.v))
}

// Sub returns e - o mod p.
func (e Element) Sub(o Element) Element {
	return FromBigInt(new(big.Int).Sub(e.v, o.v))
}

// Neg returns -e mod p.
func (e Element) Neg() Element {
	return FromBigInt(new(big.Int).Neg(e.v))
}

// Mul returns e * o mod p.
func (e Element) Mul(o Element) Element {
	return FromBigInt(new(big.Int).Mul(e.v, o.v))
}

// Inverse returns the multiplicative inverse of e mod p using the extended
// Euclidean algorithm (big.Int.ModInverse). Fails with ErrInvalidInput when
// e is zero, since zero has no inverse.
func (e Element) Inverse() (Element, error) {
	if e.IsZero() {
		return Element{}, fmt.Errorf("%w: cannot invert zero", zkerrors.ErrInvalidInput)
	}
	inv := new(big.Int).ModInverse(e.v, Modulus)
	if inv == nil {
		return Element{}, fmt.Errorf("%w: no modular inverse exists", zkerrors.ErrInvalidInput)
	}
	return Element{v: inv}, nil
}

// Random draws a uniformly random field element by rejection sampling: it
// reads 32 cryptographically random bytes, clears the top two bits (Modulus
// is a 254-bit prime), and redraws until the value is below Modulus.
func Random() (Element, error) {
	buf := make([]byte, 32)
	for {
		if _, err := rand.Read(buf); err != nil {
			return Element{}, fmt.Errorf("field: failed to read random bytes: %w", err)
		}
		buf[0] &= 0x3F
		v := new(big.Int).SetBytes(buf)
		if v.Cmp(Modulus) < 0 {
			return Element{v: v}, nil
		}
	}
}

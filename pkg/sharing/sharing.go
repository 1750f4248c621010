// Package sharing implements Shamir secret sharing of a MasterKey over
// pkg/field's BN254 scalar field, plus the AEAD envelope each share is
// stored under. It follows the shape of pkg/threshold/shamir's
// Split/Combine pair, generalized from GF(256) byte-wise sharing to a
// single big-integer secret shared over a large prime field, which is
// required for a 256-bit master key to survive exact reconstruction
// (see DESIGN.md's pkg/sharing entry).
package sharing

import (
	"encoding/json"
	"fmt"

	"github.com/jeremyhahn/zkauth/pkg/aead"
	"github.com/jeremyhahn/zkauth/pkg/field"
	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

// MaxShares is the largest total share count spec.md §4.5 permits, so
// share indices run 1..255.
const MaxShares = 255

// ShareData is a single (x, y) point on the sharing polynomial.
type ShareData struct {
	X field.Element `json:"x"`
	Y field.Element `json:"y"`
}

// MarshalJSON encodes a ShareData as {"x": "<decimal>", "y": "<decimal>"},
// the transport encoding spec.md §3 mandates.
func (s ShareData) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X string `json:"x"`
		Y string `json:"y"`
	}{X: s.X.String(), Y: s.Y.String()})
}

// UnmarshalJSON decodes a ShareData from {"x": "<decimal>", "y": "<decimal>"}.
func (s *ShareData) UnmarshalJSON(b []byte) error {
	var raw struct {
		X string `json:"x"`
		Y string `json:"y"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	x, err := field.ParseDecimal(raw.X)
	if err != nil {
		return fmt.Errorf("%w: share x is not a decimal integer", zkerrors.ErrInvalidInput)
	}
	y, err := field.ParseDecimal(raw.Y)
	if err != nil {
		return fmt.Errorf("%w: share y is not a decimal integer", zkerrors.ErrInvalidInput)
	}
	s.X = x
	s.Y = y
	return nil
}

// SplitResult pairs the raw shares from Split with the polynomial degree
// used, so callers can sanity-check T without re-deriving it.
type SplitResult struct {
	Shares    []ShareData
	Threshold int
}

// Split generates n shares of secret under a (threshold-1)-degree random
// polynomial with the secret as its constant term, evaluated at x = 1..n.
// secret must already be reduced into the field (see pkg/masterkey's
// top-bits masking).
func Split(secret field.Element, threshold, n int) (*SplitResult, error) {
	if threshold < 2 {
		return nil, fmt.Errorf("%w: threshold must be at least 2, got %d", zkerrors.ErrInvalidInput, threshold)
	}
	if n < threshold {
		return nil, fmt.Errorf("%w: n (%d) must be >= threshold (%d)", zkerrors.ErrInvalidInput, n, threshold)
	}
	if n > MaxShares {
		return nil, fmt.Errorf("%w: n (%d) exceeds maximum of %d", zkerrors.ErrInvalidInput, n, MaxShares)
	}

	coeffs := make([]field.Element, threshold)
	coeffs[0] = secret
	for i := 1; i < threshold; i++ {
		c, err := field.Random()
		if err != nil {
			return nil, fmt.Errorf("sharing: failed to generate coefficient: %w", err)
		}
		coeffs[i] = c
	}

	shares := make([]ShareData, n)
	for i := 0; i < n; i++ {
		x := field.FromUint64(uint64(i + 1))
		shares[i] = ShareData{X: x, Y: evalPolynomial(coeffs, x)}
	}
	return &SplitResult{Shares: shares, Threshold: threshold}, nil
}

func evalPolynomial(coeffs []field.Element, x field.Element) field.Element {
	// Horner's method, highest degree first.
	result := field.Zero()
	for i := len(coeffs) - 1; i >= 0; i-- {
		result = result.Mul(x).Add(coeffs[i])
	}
	return result
}

// Combine reconstructs the secret from at least threshold shares via
// Lagrange interpolation at x = 0. Any duplicate x coordinate among the
// supplied shares is a malformed input — a caller passed the same share
// twice rather than gathering distinct ones — and fails with
// ErrInvalidInput rather than ErrInsufficientShares.
func Combine(shares []ShareData) (field.Element, error) {
	if len(shares) < 2 {
		return field.Zero(), fmt.Errorf("%w: need at least 2 shares, got %d", zkerrors.ErrInsufficientShares, len(shares))
	}
	seen := make(map[string]bool, len(shares))
	for _, s := range shares {
		k := s.X.Hex()
		if seen[k] {
			return field.Zero(), fmt.Errorf("%w: duplicate share x coordinate %s", zkerrors.ErrInvalidInput, k)
		}
		seen[k] = true
	}

	secret := field.Zero()
	for i, si := range shares {
		num := field.One()
		den := field.One()
		for j, sj := range shares {
			if i == j {
				continue
			}
			num = num.Mul(sj.X.Neg())
			den = den.Mul(si.X.Sub(sj.X))
		}
		denInv, err := den.Inverse()
		if err != nil {
			return field.Zero(), fmt.Errorf("%w: singular interpolation matrix", zkerrors.ErrInsufficientShares)
		}
		term := si.Y.Mul(num).Mul(denInv)
		secret = secret.Add(term)
	}
	return secret, nil
}

// EncryptShare seals a share's JSON encoding under key (typically
// masterkey.DeriveAEADKey(pk)), producing the envelope stored at each
// backend.
func EncryptShare(key []byte, share ShareData) (*aead.Result, error) {
	plaintext, err := json.Marshal(share)
	if err != nil {
		return nil, fmt.Errorf("sharing: failed to marshal share: %w", err)
	}
	return aead.Seal(key, plaintext)
}

// EncryptShareBytes seals arbitrary plaintext (such as a registration
// metadata record) under key, reusing the same envelope shape as
// EncryptShare for callers that store non-share data alongside shares.
func EncryptShareBytes(key, plaintext []byte) (*aead.Result, error) {
	return aead.Seal(key, plaintext)
}

// DecryptShare opens an envelope produced by EncryptShare.
func DecryptShare(key []byte, r *aead.Result) (ShareData, error) {
	plaintext, err := aead.Open(key, r)
	if err != nil {
		return ShareData{}, err
	}
	var share ShareData
	if err := json.Unmarshal(plaintext, &share); err != nil {
		return ShareData{}, fmt.Errorf("%w: malformed share plaintext", zkerrors.ErrAuthenticationFailure)
	}
	return share, nil
}

// ChainForIndex derives a deterministic per-index tag ("share-1",
// "share-2", ...) once used to pick a backend chain for a given share
// index. AuthCore pairs shares with backends directly by configuration
// order instead (see DESIGN.md Open Question 3); this helper is kept for
// callers that want a stable, index-derived label without threading
// AuthCore's backend list through.
func ChainForIndex(i int) string {
	return fmt.Sprintf("share-%d", i)
}

// Package twofactor implements the optional second factor: RFC 6238
// TOTP, one-time backup codes, and a signed email-OTP challenge. No
// library in the retrieval pack provides TOTP (see DESIGN.md's
// pkg/twofactor entry), so it is hand-rolled directly against the
// standard library HMAC/base32 primitives the way pkg/crypto's other
// hand-rolled primitives are: small, dependency-free, and thoroughly
// tested against the RFC's own test vectors.
package twofactor

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Step is the RFC 6238 time-step size.
const Step = 30 * time.Second

// Digits is the number of decimal digits in a generated code.
const Digits = 6

// Window is how many steps before/after the current one are accepted,
// tolerating modest clock drift between client and server.
const Window = 1

// GenerateSecret base32-encodes raw (without padding) as a TOTP secret.
// Callers typically pass 20 random bytes (160 bits).
func GenerateSecret(raw []byte) string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
}

// Code computes the RFC 6238 TOTP code for secret (base32) at time t.
func Code(secretBase32 string, t time.Time) (string, error) {
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secretBase32)
	if err != nil {
		return "", fmt.Errorf("twofactor: invalid base32 secret: %w", err)
	}
	counter := uint64(t.Unix()) / uint64(Step.Seconds())
	return hotp(key, counter), nil
}

// GenerateURI builds the otpauth://totp/ URI an authenticator app scans
// to enroll secretBase32 under issuer/account, per RFC 6238's provisioning
// convention.
func GenerateURI(secretBase32, issuer, account string) string {
	label := url.PathEscape(issuer) + ":" + url.PathEscape(account)
	q := url.Values{}
	q.Set("secret", secretBase32)
	q.Set("issuer", issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprintf("%d", Digits))
	q.Set("period", fmt.Sprintf("%d", int(Step.Seconds())))
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}

// Verify reports whether code matches secretBase32 within ±Window steps
// of t, per RFC 6238's clock-skew tolerance. code is trimmed of
// surrounding whitespace first; anything that isn't exactly Digits
// decimal digits after trimming is rejected without touching the secret.
func Verify(secretBase32, code string, t time.Time) (bool, error) {
	code = strings.TrimSpace(code)
	if len(code) != Digits {
		return false, nil
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false, nil
		}
	}

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secretBase32)
	if err != nil {
		return false, fmt.Errorf("twofactor: invalid base32 secret: %w", err)
	}
	counter := int64(t.Unix()) / int64(Step.Seconds())
	for delta := -Window; delta <= Window; delta++ {
		candidate := hotp(key, uint64(counter+int64(delta)))
		if hmac.Equal([]byte(candidate), []byte(code)) {
			return true, nil
		}
	}
	return false, nil
}

// hotp implements RFC 4226 HOTP with SHA-1 and Digits output digits.
func hotp(key []byte, counter uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(buf[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	code := (uint32(sum[offset])&0x7f)<<24 |
		uint32(sum[offset+1])<<16 |
		uint32(sum[offset+2])<<8 |
		uint32(sum[offset+3])

	mod := uint32(1)
	for i := 0; i < Digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", Digits, code%mod)
}

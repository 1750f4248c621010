package twofactor

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeremyhahn/zkauth/pkg/aead"
	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

// TwoFAState is a user's persisted 2FA enrollment: a TOTP secret, the
// hashes of their remaining backup codes, and the security email
// enrollment is bound to. Enroll sets TOTPEnabled to true; nothing in
// this module clears it. A superseded enrollment is not marked in its
// state: commitlog.Select picks the youngest pointer, and pkg/authcore's
// FetchTwoFactor treats a pointer that fails to decrypt to a state with
// this field boolean-typed as not satisfying the state predicate at all
// (see spec.md §4.9).
type TwoFAState struct {
	TOTPSecret      string     `json:"totpSecret"`
	TOTPEnabled     bool       `json:"totpEnabled"`
	TOTPEnabledAt   *time.Time `json:"totpEnabledAt,omitempty"`
	TOTPBackupCodes []string   `json:"totpBackupCodes"`
	SecurityEmail   string     `json:"securityEmail"`
	EmailOTPEnabled bool       `json:"emailOtpEnabled"`
}

// TwoFAPointer is the envelope a backend stores for a user's 2FA state:
// the AEAD-sealed TwoFAState plus enough metadata to select the newest
// record when more than one pointer exists for the same lookup key
// (see pkg/commitlog.Select).
type TwoFAPointer struct {
	LookupID  string       `json:"lookupId"`
	Envelope  *aead.Result `json:"envelope"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Enroll generates a new TOTP secret and backup codes for securityEmail,
// returning both the state to persist (sealed by the caller under the
// user's master key) and the plaintext codes to show the user exactly
// once.
func Enroll(securityEmail string) (*TwoFAState, []string, error) {
	secretRaw := make([]byte, 20)
	if _, err := rand.Read(secretRaw); err != nil {
		return nil, nil, fmt.Errorf("twofactor: failed to generate totp secret: %w", err)
	}
	codes, err := GenerateBackupCodes()
	if err != nil {
		return nil, nil, err
	}
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = HashBackupCode(c)
	}
	now := time.Now().UTC()
	return &TwoFAState{
		TOTPSecret:      GenerateSecret(secretRaw),
		TOTPEnabled:     true,
		TOTPEnabledAt:   &now,
		TOTPBackupCodes: hashes,
		SecurityEmail:   securityEmail,
	}, codes, nil
}

// Seal encrypts a TwoFAState under key (typically the user's master key).
func Seal(key []byte, state *TwoFAState) (*aead.Result, error) {
	plaintext, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("twofactor: failed to marshal state: %w", err)
	}
	return aead.Seal(key, plaintext)
}

// Open decrypts a TwoFAState sealed by Seal.
func Open(key []byte, r *aead.Result) (*TwoFAState, error) {
	plaintext, err := aead.Open(key, r)
	if err != nil {
		return nil, err
	}
	var state TwoFAState
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return nil, fmt.Errorf("%w: malformed 2fa state plaintext", zkerrors.ErrAuthenticationFailure)
	}
	return &state, nil
}

// EmailOTPChallenge is the signed, stateless email-OTP challenge spec.md
// §4.9 describes: the server hands the client Code (delivered out of
// band, e.g. by email) alongside Signature and ExpiresAt, and the client
// can accept the code locally by recomputing Signature itself rather
// than round-tripping to a server verify endpoint.
type EmailOTPChallenge struct {
	Code      string    `json:"code"`
	Signature string    `json:"signature"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssueEmailOTPChallenge generates a fresh 6-digit code for email/userID
// and signs it as signature = sha256(sha256(email+":"+userId+":"+normalizedCode)+":"+masterKeyHash).
// Binding masterKeyHash into the signature means a party who does not
// already know the user's master key hash cannot forge acceptance of a
// guessed code, even though the check itself needs no server round trip.
func IssueEmailOTPChallenge(email, userID, masterKeyHash string, ttl time.Duration) (*EmailOTPChallenge, error) {
	code, err := randomDigits(6)
	if err != nil {
		return nil, err
	}
	return &EmailOTPChallenge{
		Code:      code,
		Signature: signEmailOTP(email, userID, code, masterKeyHash),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

// VerifyEmailOTPChallenge recomputes the deterministic signature for code
// under email/userID/masterKeyHash and compares it against ch.Signature,
// rejecting expired challenges without ever inspecting server-side state.
func VerifyEmailOTPChallenge(ch *EmailOTPChallenge, email, userID, masterKeyHash, code string, now time.Time) bool {
	if ch == nil || now.After(ch.ExpiresAt) {
		return false
	}
	want := signEmailOTP(email, userID, code, masterKeyHash)
	return hmac.Equal([]byte(want), []byte(ch.Signature))
}

func signEmailOTP(email, userID, code, masterKeyHash string) string {
	inner := sha256.Sum256([]byte(email + ":" + userID + ":" + normalizeOTPCode(code)))
	outer := sha256.Sum256([]byte(hex.EncodeToString(inner[:]) + ":" + masterKeyHash))
	return hex.EncodeToString(outer[:])
}

func normalizeOTPCode(code string) string {
	return strings.TrimSpace(code)
}

func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = byte('0' + int(b)%10)
	}
	return string(out), nil
}

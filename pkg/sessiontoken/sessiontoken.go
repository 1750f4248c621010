// Package sessiontoken issues and verifies the Ed25519-signed session
// tokens AuthCore hands back after a successful login. It reuses
// golang-jwt/jwt/v5's EdDSA signing method as a raw Ed25519 sign/verify
// primitive, the same special case pkg/encoding/jwt's signing method
// registration takes for Ed25519 keys, but wraps the result in zkauth's
// own {payload, signature, publicKey} envelope rather than a compact JWS,
// since spec.md §4.10 pins that wire shape.
package sessiontoken

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

// Payload is the claim set embedded in every session token.
type Payload struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// envelope is the wire format: base64(JSON({payload, signature, publicKey})).
type envelope struct {
	Payload   Payload `json:"payload"`
	Signature string  `json:"signature"`
	PublicKey string  `json:"publicKey"`
}

// SessionToken is a decoded, verified session token.
type SessionToken struct {
	Payload Payload
}

// signingMethod is used purely for its Sign/Verify implementation over a
// raw message and an ed25519.PrivateKey/PublicKey; zkauth never produces
// or consumes the three-segment JWS it normally builds.
var signingMethod = jwt.SigningMethodEdDSA

// Create signs payload with priv and returns the base64 wire token.
func Create(priv ed25519.PrivateKey, payload Payload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("sessiontoken: failed to marshal payload: %w", err)
	}
	sigBytes, err := signingMethod.Sign(string(body), priv)
	if err != nil {
		return "", fmt.Errorf("sessiontoken: failed to sign payload: %w", err)
	}
	env := envelope{
		Payload:   payload,
		Signature: base64.RawURLEncoding.EncodeToString(sigBytes),
		PublicKey: base64.RawURLEncoding.EncodeToString(priv.Public().(ed25519.PublicKey)),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("sessiontoken: failed to marshal envelope: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Verify decodes and checks a wire token's signature and expiry against
// pub. It fails with ErrSessionExpired past ExpiresAt and
// ErrAuthenticationFailure on any signature or decoding failure.
func Verify(token string, pub ed25519.PublicKey, now time.Time) (*SessionToken, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed session token", zkerrors.ErrAuthenticationFailure)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed session token envelope", zkerrors.ErrAuthenticationFailure)
	}
	body, err := json.Marshal(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("sessiontoken: failed to re-marshal payload: %w", err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(env.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed session token signature", zkerrors.ErrAuthenticationFailure)
	}
	envPub, err := base64.RawURLEncoding.DecodeString(env.PublicKey)
	if err != nil || len(envPub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: malformed session token public key", zkerrors.ErrAuthenticationFailure)
	}
	if !ed25519.PublicKey(envPub).Equal(pub) {
		return nil, fmt.Errorf("%w: session token public key mismatch", zkerrors.ErrAuthenticationFailure)
	}
	if err := signingMethod.Verify(string(body), sig, pub); err != nil {
		return nil, fmt.Errorf("%w: %v", zkerrors.ErrAuthenticationFailure, err)
	}
	if now.After(env.Payload.ExpiresAt) {
		return nil, zkerrors.ErrSessionExpired
	}
	return &SessionToken{Payload: env.Payload}, nil
}

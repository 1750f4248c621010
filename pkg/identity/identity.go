// Package identity derives every deterministic, non-secret identifier
// zkauth needs from a user's public key and email: per-backend lookup
// keys, per-share opaque handles, the 2FA lookup identifier, and the seed
// used to derive an Ed25519 signing key. Grounded on pkg/backend/software's
// deterministic-derivation style (HMAC over a fixed domain string) and on
// pkg/encoding/jwt's Ed25519 key handling for the signature-seed clamp.
package identity

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jeremyhahn/zkauth/pkg/kdf"
	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

// NormEmail lowercases and trims an email address, the canonical form
// every identity derivation in this package operates on.
func NormEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// derivePrefix fixes the domain separation for every lookup identifier
// this package derives, so a hash collision in one deployment's purpose
// strings can never alias into another deployment's identifier space.
const derivePrefix = "zkauth-lookup-v3-decentralized"

// Derive computes HMAC-SHA256(key=userID, msg=derivePrefix+":"+NormEmail(email)+":"+purpose)
// as lowercase hex, the base primitive every other identifier in this
// package is built from.
func Derive(userID, email, purpose string) string {
	msg := derivePrefix + ":" + NormEmail(email) + ":" + purpose
	return hex.EncodeToString(kdf.HMACSHA256([]byte(userID), []byte(msg)))
}

// UserIdentifier derives the canonical zkauth user identifier from a
// verified public key, delegating to the same "zkauth:" + truncated-hash
// convention masterkey.GenerateUserID uses so both packages agree without
// creating an import cycle between them.
func UserIdentifier(pk string) (string, error) {
	raw, err := hex.DecodeString(pk)
	if err != nil {
		return "", fmt.Errorf("%w: pk is not valid hex", zkerrors.ErrInvalidInput)
	}
	sum := sha256.Sum256(raw)
	return "zkauth:" + hex.EncodeToString(sum[:])[:16], nil
}

// BackendLookupID derives the identifier a specific storage backend chain
// uses to key a user's stored share, namespaced by the backend's tag
// (e.g. "zcash", "starknet", "solana") so the same userID/email pair
// produces unlinkable identifiers across backends.
func BackendLookupID(userID, email, backendTag string) string {
	return Derive(userID, email, "backend:"+backendTag)
}

// ShareOpaqueID derives the opaque, UUID-shaped identifier for one
// purpose ("data", "iv", "tag", or "proof") of share index within a
// user's split, per spec.md §4.6: a v4-formatted UUID built from
// derive("share:<index>:<purpose>") with the version and variant nibbles
// forced. Distinct purposes and indices always produce distinct,
// unlinkable identifiers for the same (userID, email) pair.
func ShareOpaqueID(userID, email string, index int, purpose string) string {
	digest, err := hex.DecodeString(Derive(userID, email, fmt.Sprintf("share:%d:%s", index, purpose)))
	if err != nil {
		// Derive always returns valid hex; this is unreachable.
		panic("identity: derive produced non-hex output")
	}
	var u uuid.UUID
	copy(u[:], digest[:len(u)])
	u[6] = (u[6] & 0x0F) | 0x40 // version 4
	u[8] = (u[8] & 0x3F) | 0x80 // RFC 4122 variant
	return u.String()
}

// TwoFactorLookupID derives the identifier used to key a user's 2FA
// enrollment state.
func TwoFactorLookupID(userID, email string) string {
	return Derive(userID, email, "2fa")
}

// signatureSeedSalt is the fixed PBKDF2 salt for every signature seed
// this package derives. It is not user-specific: the password half of
// the derivation (userID + secretPhrase) is what supplies uniqueness and
// secrecy.
const signatureSeedSalt = "zkAuth-v1.9-ed25519-seed"

// SignatureSeed derives 32 bytes of Ed25519 seed material from userID and
// the caller's secretPhrase via PBKDF2-SHA256 under a fixed salt, then
// applies the standard Ed25519 clamp. secretPhrase is the user's own
// secret (never derivable from userID or email alone); without it this
// seed, and therefore every session token signed from it, cannot be
// reproduced by an attacker who only knows a user's public identifiers.
func SignatureSeed(userID, secretPhrase string) []byte {
	seed := kdf.PBKDF2SHA256([]byte(userID+secretPhrase), []byte(signatureSeedSalt), ed25519.SeedSize)
	seed[0] &= 0xF8
	seed[31] = (seed[31] & 0x7F) | 0x40
	return seed
}

// DeriveSigningKey builds a deterministic Ed25519 private key from userID
// and secretPhrase via SignatureSeed. The same (userID, secretPhrase) pair
// always reproduces the same key pair, which lets AuthCore re-derive
// signing keys on demand instead of persisting them.
func DeriveSigningKey(userID, secretPhrase string) ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(SignatureSeed(userID, secretPhrase))
}

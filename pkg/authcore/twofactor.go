package authcore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeremyhahn/zkauth/pkg/aead"
	"github.com/jeremyhahn/zkauth/pkg/commitlog"
	"github.com/jeremyhahn/zkauth/pkg/identity"
	"github.com/jeremyhahn/zkauth/pkg/masterkey"
	"github.com/jeremyhahn/zkauth/pkg/twofactor"
	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

// twoFactorBackend is always the first configured backend: 2FA state is
// small, single-record data that doesn't need threshold distribution the
// way a master key share does.
func (a *AuthCore) twoFactorBackend() interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
} {
	return a.cfg.Backends[0]
}

// EnrollTwoFactor generates a fresh TOTP secret and backup codes for
// userID/email, seals the resulting state under the caller's master key, and
// appends it as a new commitlog.Pointer at the 2FA backend. Appending
// (rather than overwriting) lets FetchTwoFactor always resolve the
// newest enrollment even if an older pointer is still present.
func (a *AuthCore) EnrollTwoFactor(ctx context.Context, mk *masterkey.MasterKey, userID, email string) ([]string, error) {
	state, codes, err := twofactor.Enroll(email)
	if err != nil {
		return nil, err
	}
	env, err := twofactor.Seal(mk.Raw, state)
	if err != nil {
		return nil, err
	}
	if err := a.appendTwoFactorPointer(ctx, userID, email, env); err != nil {
		return nil, err
	}
	return codes, nil
}

// FetchTwoFactor resolves the newest stored TwoFAPointer for userID/email
// whose envelope decrypts under mk to a state with a boolean-typed
// totpEnabled field, per spec.md §4.9. A missing pointer, or a lookup key
// with no pointer that satisfies the predicate, is reported as (nil,
// false, nil) rather than an error: 2FA is optional, and a caller asking
// "is this user enrolled" should not have to distinguish "no" from a
// storage failure.
func (a *AuthCore) FetchTwoFactor(ctx context.Context, mk *masterkey.MasterKey, userID, email string) (*twofactor.TwoFAState, bool, error) {
	lookupID := identity.TwoFactorLookupID(userID, email)
	raw, err := a.twoFactorBackend().Get(ctx, twoFactorStorageKey(lookupID))
	if err != nil {
		return nil, false, nil
	}
	var pointers []twofactor.TwoFAPointer
	if err := json.Unmarshal(raw, &pointers); err != nil {
		return nil, false, fmt.Errorf("%w: malformed 2fa pointer list", zkerrors.ErrAuthenticationFailure)
	}

	// A pointer whose envelope fails to decrypt or parse doesn't satisfy
	// the "state with a boolean totpEnabled" predicate at all, so it's
	// excluded before youngest-wins selection rather than treated as a
	// hard error: an older, still-valid pointer may sit alongside it.
	var candidates []twofactor.TwoFAPointer
	states := make([]*twofactor.TwoFAState, 0, len(pointers))
	for _, p := range pointers {
		state, err := twofactor.Open(mk.Raw, p.Envelope)
		if err != nil {
			continue
		}
		candidates = append(candidates, p)
		states = append(states, state)
	}
	if len(candidates) == 0 {
		return nil, false, nil
	}

	entries := make([]commitlog.Pointer, len(candidates))
	for i, p := range candidates {
		entries[i] = commitlog.Pointer{LookupID: p.LookupID, CreatedAt: p.CreatedAt}
	}
	idx := commitlog.Select(entries, lookupID)
	if idx < 0 {
		return nil, false, nil
	}
	return states[idx], true, nil
}

// VerifyTwoFactor checks code against userID/email's newest TOTP
// enrollment, tolerating the standard RFC 6238 clock-skew window.
func (a *AuthCore) VerifyTwoFactor(ctx context.Context, mk *masterkey.MasterKey, userID, email, code string, now time.Time) (bool, error) {
	state, found, err := a.FetchTwoFactor(ctx, mk, userID, email)
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("%w: no 2fa enrollment for user %s", zkerrors.ErrNotRegistered, userID)
	}
	return twofactor.Verify(state.TOTPSecret, code, now)
}

// IssueEmailOTPChallenge generates a deterministic, signed email-OTP
// challenge for userID/email, binding it to mk's hash so a client can
// verify a correctly delivered code locally, via VerifyEmailOTPChallenge,
// without a server round trip.
func (a *AuthCore) IssueEmailOTPChallenge(mk *masterkey.MasterKey, userID, email string, ttl time.Duration) (*twofactor.EmailOTPChallenge, error) {
	return twofactor.IssueEmailOTPChallenge(email, userID, mk.Hash(), ttl)
}

// VerifyEmailOTPChallenge checks a client-submitted code against a
// challenge issued by IssueEmailOTPChallenge for the same mk/userID/email.
func (a *AuthCore) VerifyEmailOTPChallenge(ch *twofactor.EmailOTPChallenge, mk *masterkey.MasterKey, userID, email, code string, now time.Time) bool {
	return twofactor.VerifyEmailOTPChallenge(ch, email, userID, mk.Hash(), code, now)
}

func (a *AuthCore) appendTwoFactorPointer(ctx context.Context, userID, email string, env *aead.Result) error {
	lookupID := identity.TwoFactorLookupID(userID, email)
	key := twoFactorStorageKey(lookupID)

	var pointers []twofactor.TwoFAPointer
	if raw, err := a.twoFactorBackend().Get(ctx, key); err == nil {
		_ = json.Unmarshal(raw, &pointers)
	}

	pointers = append(pointers, twofactor.TwoFAPointer{
		LookupID:  lookupID,
		Envelope:  env,
		CreatedAt: time.Now().UTC(),
	})

	raw, err := json.Marshal(pointers)
	if err != nil {
		return fmt.Errorf("authcore: failed to marshal 2fa pointer list: %w", err)
	}
	return a.twoFactorBackend().Put(ctx, key, raw)
}

func twoFactorStorageKey(lookupID string) string { return lookupID + ":2fa" }

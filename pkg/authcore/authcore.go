package authcore

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jeremyhahn/zkauth/pkg/aead"
	"github.com/jeremyhahn/zkauth/pkg/backendref"
	"github.com/jeremyhahn/zkauth/pkg/field"
	"github.com/jeremyhahn/zkauth/pkg/identity"
	"github.com/jeremyhahn/zkauth/pkg/masterkey"
	"github.com/jeremyhahn/zkauth/pkg/sessiontoken"
	"github.com/jeremyhahn/zkauth/pkg/sharing"
	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

// metaRecord is the small, redundantly-stored registration record every
// backend keeps alongside its share, letting Login verify a reconstructed
// master key without a separate registry service.
type metaRecord struct {
	MasterKeyHash string `json:"masterKeyHash"`
	Threshold     int    `json:"threshold"`
	TotalShares   int    `json:"totalShares"`
}

func metaKey(lookupID string) string { return lookupID + ":meta" }

// AuthCore drives Register and Login across a fixed set of storage
// backends, splitting and reconstructing a per-user master key via
// pkg/sharing.
type AuthCore struct {
	cfg AuthCoreConfig

	mu    sync.Mutex
	audit []RegistrationAudit
}

// New validates cfg and returns a ready AuthCore.
func New(cfg AuthCoreConfig) (*AuthCore, error) {
	effective, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	return &AuthCore{cfg: effective}, nil
}

// IsRegistered reports whether a user identified by pk/email has already
// completed Register, per spec.md §4.8's threshold-honesty rule:
// isRegistered(uid) = (count of backends where has(uid)) >= T. A single
// backend losing its record is not enough to flip this to false as long
// as at least Threshold other backends still hold one.
func (a *AuthCore) IsRegistered(ctx context.Context, pk, email string) (bool, error) {
	userID, err := masterkey.GenerateUserID(pk)
	if err != nil {
		return false, err
	}
	count := 0
	for _, b := range a.cfg.Backends {
		lookupID := identity.BackendLookupID(userID, email, b.Tag())
		has, err := b.Has(ctx, metaKey(lookupID))
		if err != nil {
			return false, err
		}
		if has {
			count++
		}
	}
	return count >= a.cfg.Threshold, nil
}

// Register generates a fresh master key, splits it across a.cfg.Backends
// at a.cfg.Threshold, and stores each encrypted share plus a redundant
// metadata record at every backend. Unlike Login, Register is not
// tolerant of backend failures: if any Put fails, the whole registration
// fails so a user never ends up with a share silently missing.
func (a *AuthCore) Register(ctx context.Context, pk, email string) (*RegisterResult, error) {
	start := time.Now()
	result, err := a.register(ctx, pk, email)
	a.cfg.Metrics.ObserveDuration("register", time.Since(start))
	if err != nil {
		a.cfg.Metrics.RegisterTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	a.cfg.Metrics.RegisterTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (a *AuthCore) register(ctx context.Context, pk, email string) (*RegisterResult, error) {
	userID, err := masterkey.GenerateUserID(pk)
	if err != nil {
		return nil, err
	}

	if registered, err := a.IsRegistered(ctx, pk, email); err != nil {
		return nil, err
	} else if registered {
		a.recordAudit("register", userID, AuditOutcomeFailure, "already registered")
		return nil, fmt.Errorf("%w: user %s", zkerrors.ErrAlreadyRegistered, userID)
	}

	mk, err := masterkey.Generate()
	if err != nil {
		return nil, err
	}
	aeadKey, err := masterkey.DeriveAEADKey(pk)
	if err != nil {
		return nil, err
	}

	n := len(a.cfg.Backends)
	split, err := sharing.Split(field.FromBytes(mk.Raw), a.cfg.Threshold, n)
	if err != nil {
		return nil, err
	}

	meta := metaRecord{MasterKeyHash: mk.Hash(), Threshold: a.cfg.Threshold, TotalShares: n}
	metaPlaintext, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("authcore: failed to marshal metadata: %w", err)
	}

	shares := make([]backendref.EncryptedShare, 0, n)
	for i, b := range a.cfg.Backends {
		lookupID := identity.BackendLookupID(userID, email, b.Tag())
		shareIndex := i + 1

		env, err := sharing.EncryptShare(aeadKey, split.Shares[i])
		if err != nil {
			a.recordAudit("register", userID, AuditOutcomeFailure, fmt.Sprintf("encrypt share for %s: %v", b.Tag(), err))
			return nil, err
		}
		share := backendref.EncryptedShare{
			ShareIndex:    shareIndex,
			EncryptedData: env.Ciphertext,
			IV:            env.IV,
			Tag:           env.Tag,
			Chain:         b.Tag(),
		}
		receipt, err := b.PutShare(ctx, lookupID, share)
		if err != nil {
			a.recordAudit("register", userID, AuditOutcomeFailure, fmt.Sprintf("store share at %s: %v", b.Tag(), err))
			return nil, fmt.Errorf("%w: backend %s: %v", zkerrors.ErrBackendUnavailable, b.Tag(), err)
		}
		share.Receipt = receipt

		metaEnv, err := sharing.EncryptShareBytes(aeadKey, metaPlaintext)
		if err != nil {
			return nil, err
		}
		metaEnvBytes, err := json.Marshal(metaEnv)
		if err != nil {
			return nil, fmt.Errorf("authcore: failed to marshal metadata envelope: %w", err)
		}
		if err := b.Put(ctx, metaKey(lookupID), metaEnvBytes); err != nil {
			a.recordAudit("register", userID, AuditOutcomeFailure, fmt.Sprintf("store metadata at %s: %v", b.Tag(), err))
			return nil, fmt.Errorf("%w: backend %s: %v", zkerrors.ErrBackendUnavailable, b.Tag(), err)
		}

		for _, purpose := range shareOpaquePurposes {
			a.cfg.Logger.Debugf("authcore: share %d/%d at %s opaque[%s]=%s", shareIndex, n, b.Tag(), purpose,
				identity.ShareOpaqueID(userID, email, shareIndex, purpose))
		}

		shares = append(shares, share)
	}

	a.recordAudit("register", userID, AuditOutcomeSuccess, fmt.Sprintf("split across %d backends, threshold %d", n, a.cfg.Threshold))
	return &RegisterResult{
		UserID:        userID,
		MasterKeyHash: meta.MasterKeyHash,
		Threshold:     a.cfg.Threshold,
		TotalShares:   n,
		Shares:        shares,
	}, nil
}

// shareOpaquePurposes are the four opaque per-share identifiers spec.md
// §4.6 derives, one per component of a stored share, for callers (e.g.
// audit logging) that want to reference share material without
// disclosing (userID, email, shareIndex) directly.
var shareOpaquePurposes = []string{"data", "iv", "tag", "proof"}

// Login reconstructs a user's master key from whichever configured
// backends respond successfully. Unlike Register, Login tolerates
// backend failures as long as at least a.cfg.Threshold shares are
// recovered.
func (a *AuthCore) Login(ctx context.Context, pk, email string) (*LoginResult, error) {
	start := time.Now()
	result, err := a.login(ctx, pk, email)
	a.cfg.Metrics.ObserveDuration("login", time.Since(start))
	if err != nil {
		a.cfg.Metrics.LoginTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	a.cfg.Metrics.LoginTotal.WithLabelValues("success").Inc()
	a.cfg.Metrics.SharesUsed.Observe(float64(result.SharesUsed))
	return result, nil
}

func (a *AuthCore) login(ctx context.Context, pk, email string) (*LoginResult, error) {
	userID, err := masterkey.GenerateUserID(pk)
	if err != nil {
		return nil, err
	}

	if registered, err := a.IsRegistered(ctx, pk, email); err != nil {
		return nil, err
	} else if !registered {
		a.recordAudit("login", userID, AuditOutcomeFailure, "not registered")
		return nil, fmt.Errorf("%w: user %s", zkerrors.ErrNotRegistered, userID)
	}

	aeadKey, err := masterkey.DeriveAEADKey(pk)
	if err != nil {
		return nil, err
	}

	var shares []sharing.ShareData
	var usedBackends []string
	var meta *metaRecord

	for _, b := range a.cfg.Backends {
		lookupID := identity.BackendLookupID(userID, email, b.Tag())

		encShare, err := b.GetShare(ctx, lookupID)
		if err != nil {
			a.cfg.Logger.Warnf("authcore: backend %s unavailable during login for %s: %v", b.Tag(), userID, err)
			continue
		}
		env := aead.Result{Ciphertext: encShare.EncryptedData, IV: encShare.IV, Tag: encShare.Tag}
		share, err := sharing.DecryptShare(aeadKey, &env)
		if err != nil {
			a.cfg.Logger.Warnf("authcore: backend %s share failed to decrypt for %s: %v", b.Tag(), userID, err)
			continue
		}

		if meta == nil {
			if metaBytes, err := b.Get(ctx, metaKey(lookupID)); err == nil {
				var metaEnv aead.Result
				if err := json.Unmarshal(metaBytes, &metaEnv); err == nil {
					if plaintext, err := aead.Open(aeadKey, &metaEnv); err == nil {
						var m metaRecord
						if err := json.Unmarshal(plaintext, &m); err == nil {
							meta = &m
						}
					}
				}
			}
		}

		shares = append(shares, share)
		usedBackends = append(usedBackends, b.Tag())

		if meta != nil && len(shares) >= meta.Threshold {
			break
		}
	}

	if meta == nil {
		a.recordAudit("login", userID, AuditOutcomeFailure, "no backend returned registration metadata")
		return nil, fmt.Errorf("%w: unable to recover registration metadata", zkerrors.ErrAuthenticationFailure)
	}
	if len(shares) < meta.Threshold {
		a.recordAudit("login", userID, AuditOutcomeFailure, fmt.Sprintf("recovered %d/%d shares", len(shares), meta.Threshold))
		return nil, fmt.Errorf("%w: recovered %d of %d required shares", zkerrors.ErrInsufficientShares, len(shares), meta.Threshold)
	}

	secret, err := sharing.Combine(shares)
	if err != nil {
		a.recordAudit("login", userID, AuditOutcomeFailure, err.Error())
		return nil, err
	}

	mk, err := masterkey.FromHex(hex.EncodeToString(secret.Bytes32()))
	if err != nil {
		return nil, err
	}
	if mk.Hash() != meta.MasterKeyHash {
		a.recordAudit("login", userID, AuditOutcomeFailure, "reconstructed master key hash mismatch")
		return nil, fmt.Errorf("%w: reconstructed master key does not match registration record", zkerrors.ErrAuthenticationFailure)
	}

	a.recordAudit("login", userID, AuditOutcomeSuccess, fmt.Sprintf("recovered %d/%d shares from %v", len(shares), meta.TotalShares, usedBackends))
	return &LoginResult{
		UserID:     userID,
		Email:      email,
		MasterKey:  mk,
		SharesUsed: len(shares),
		Backends:   usedBackends,
	}, nil
}

// CreateSession issues a signed, time-limited session token for a
// successful LoginResult, using an Ed25519 key deterministically derived
// from the user's identity and secretPhrase (the same secret credential
// passed to Login as pk). Without secretPhrase the signing key cannot be
// reproduced, so a session token can never be forged from userID/email
// alone.
func (a *AuthCore) CreateSession(result *LoginResult, secretPhrase string) (*Session, error) {
	priv := identity.DeriveSigningKey(result.UserID, secretPhrase)
	now := time.Now().UTC()
	payload := sessiontoken.Payload{
		UserID:    result.UserID,
		Email:     result.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(a.cfg.SessionTTL),
	}
	token, err := sessiontoken.Create(priv, payload)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, UserID: result.UserID, ExpiresAt: payload.ExpiresAt}, nil
}

// VerifySession checks a token issued by CreateSession for the user
// identified by userID, given the same secretPhrase used at CreateSession
// time.
func VerifySession(token, userID, secretPhrase string, now time.Time) (*sessiontoken.SessionToken, error) {
	priv := identity.DeriveSigningKey(userID, secretPhrase)
	pub := priv.Public().(ed25519.PublicKey)
	return sessiontoken.Verify(token, pub, now)
}

// AuditLog returns a snapshot of the most recent registration/login
// events, oldest first.
func (a *AuthCore) AuditLog() []RegistrationAudit {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]RegistrationAudit, len(a.audit))
	copy(out, a.audit)
	return out
}

func (a *AuthCore) recordAudit(operation, userID string, outcome AuditOutcome, detail string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.audit = append(a.audit, RegistrationAudit{
		Operation: operation,
		UserID:    userID,
		Outcome:   outcome,
		Detail:    detail,
		At:        time.Now().UTC(),
	})
	if len(a.audit) > a.cfg.AuditCapacity {
		a.audit = a.audit[len(a.audit)-a.cfg.AuditCapacity:]
	}
}

// Package authcore wires field, aead, kdf, masterkey, sharing, identity,
// backendref, twofactor, and sessiontoken into the two operations
// zkauth exists for: Register and Login. Grounded on pkg/backend/threshold,
// whose Register/Recover pair drives a fixed set of Backend
// implementations through split/store and fetch/combine in the same
// shape this package generalizes to a multi-chain, opaque-share model.
package authcore

import (
	"fmt"
	"time"

	"github.com/jeremyhahn/zkauth/pkg/backendref"
	"github.com/jeremyhahn/zkauth/pkg/logging"
	"github.com/jeremyhahn/zkauth/pkg/metrics"
	"github.com/jeremyhahn/zkauth/pkg/sharing"
	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

// DefaultSessionTTL is the lifetime of a session token issued by
// CreateSession when AuthCoreConfig.SessionTTL is unset, matching
// spec.md §4.8's createSession default of 86 400 000 ms.
const DefaultSessionTTL = 24 * time.Hour

// DefaultAuditCapacity bounds the in-process RegistrationAudit ring
// buffer when AuthCoreConfig.AuditCapacity is unset.
const DefaultAuditCapacity = 256

// AuthCoreConfig configures an AuthCore instance.
type AuthCoreConfig struct {
	// Backends is the fixed, ordered list of storage chains a master key
	// is split across. Order determines which share index each backend
	// receives.
	Backends []backendref.Backend

	// Threshold is the minimum number of shares required to reconstruct
	// a master key. Must satisfy 2 <= Threshold <= len(Backends).
	Threshold int

	// SessionTTL is how long tokens issued by CreateSession remain valid.
	SessionTTL time.Duration

	// AuditCapacity bounds the in-process registration audit ring buffer.
	AuditCapacity int

	// Logger receives structured diagnostics. Defaults to
	// logging.DefaultLogger() when nil.
	Logger *logging.Logger

	// Metrics receives operation counters and histograms. Defaults to
	// metrics.Default when nil.
	Metrics *metrics.Collector
}

// Validate checks the configuration's invariants and fills in defaults,
// returning the effective configuration.
func (c AuthCoreConfig) Validate() (AuthCoreConfig, error) {
	if len(c.Backends) == 0 {
		return c, fmt.Errorf("%w: at least one backend is required", zkerrors.ErrConfigError)
	}
	if c.Threshold < 2 {
		return c, fmt.Errorf("%w: threshold must be at least 2, got %d", zkerrors.ErrConfigError, c.Threshold)
	}
	if c.Threshold > len(c.Backends) {
		return c, fmt.Errorf("%w: threshold (%d) exceeds backend count (%d)", zkerrors.ErrConfigError, c.Threshold, len(c.Backends))
	}
	if len(c.Backends) > sharing.MaxShares {
		return c, fmt.Errorf("%w: backend count (%d) exceeds maximum of %d", zkerrors.ErrConfigError, len(c.Backends), sharing.MaxShares)
	}
	seen := make(map[string]bool, len(c.Backends))
	for _, b := range c.Backends {
		if b == nil {
			return c, fmt.Errorf("%w: backend list contains a nil entry", zkerrors.ErrConfigError)
		}
		if seen[b.Tag()] {
			return c, fmt.Errorf("%w: duplicate backend tag %q", zkerrors.ErrConfigError, b.Tag())
		}
		seen[b.Tag()] = true
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.AuditCapacity <= 0 {
		c.AuditCapacity = DefaultAuditCapacity
	}
	if c.Logger == nil {
		c.Logger = logging.DefaultLogger()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.Default
	}
	return c, nil
}

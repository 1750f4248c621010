package authcore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/zkauth/pkg/backendref"
	"github.com/jeremyhahn/zkauth/pkg/metrics"
	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

func newTestCore(t *testing.T, threshold int, backends ...backendref.Backend) *AuthCore {
	t.Helper()
	core, err := New(AuthCoreConfig{
		Backends:  backends,
		Threshold: threshold,
		Metrics:   metrics.NewCollector(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return core
}

func TestRegisterAndLoginHappyPath(t *testing.T) {
	ctx := context.Background()
	core := newTestCore(t, 2, backendref.NewZcashBackend(), backendref.NewStarknetBackend(), backendref.NewSolanaBackend())

	pk := strings.Repeat("11", 32)
	regResult, err := core.Register(ctx, pk, "person@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, regResult.Threshold)
	assert.Equal(t, 3, regResult.TotalShares)
	require.Len(t, regResult.Shares, 3)
	for i, share := range regResult.Shares {
		assert.Equal(t, i+1, share.ShareIndex)
		assert.NotEmpty(t, share.Receipt)
	}

	loginResult, err := core.Login(ctx, pk, "person@example.com")
	require.NoError(t, err)
	assert.Equal(t, regResult.UserID, loginResult.UserID)
	assert.Equal(t, regResult.MasterKeyHash, loginResult.MasterKey.Hash())
	assert.Equal(t, 2, loginResult.SharesUsed)

	session, err := core.CreateSession(loginResult, pk)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	verified, err := VerifySession(session.Token, loginResult.UserID, pk, time.Now())
	require.NoError(t, err)
	assert.Equal(t, loginResult.UserID, verified.Payload.UserID)
}

func TestRegisterRejectsDuplicateRegistration(t *testing.T) {
	ctx := context.Background()
	core := newTestCore(t, 2, backendref.NewZcashBackend(), backendref.NewStarknetBackend())
	pk := strings.Repeat("22", 32)

	_, err := core.Register(ctx, pk, "person@example.com")
	require.NoError(t, err)

	_, err = core.Register(ctx, pk, "person@example.com")
	assert.ErrorIs(t, err, zkerrors.ErrAlreadyRegistered)
}

func TestLoginTolerantOfBackendFailure(t *testing.T) {
	ctx := context.Background()
	zcash := backendref.NewZcashBackend()
	starknet := backendref.NewStarknetBackend()
	solana := backendref.NewSolanaBackend()
	core := newTestCore(t, 2, zcash, starknet, solana)

	pk := strings.Repeat("33", 32)
	_, err := core.Register(ctx, pk, "person@example.com")
	require.NoError(t, err)

	failing := &failingBackend{Backend: solana}
	tolerant := newTestCore(t, 2, zcash, starknet, failing)

	result, err := tolerant.Login(ctx, pk, "person@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, result.SharesUsed)
}

func TestLoginFailsBelowThreshold(t *testing.T) {
	ctx := context.Background()
	zcash := backendref.NewZcashBackend()
	starknet := backendref.NewStarknetBackend()
	solana := backendref.NewSolanaBackend()
	core := newTestCore(t, 3, zcash, starknet, solana)

	pk := strings.Repeat("44", 32)
	_, err := core.Register(ctx, pk, "person@example.com")
	require.NoError(t, err)

	failA := &failingBackend{Backend: starknet}
	failB := &failingBackend{Backend: solana}
	tolerant := newTestCore(t, 3, zcash, failA, failB)

	_, err = tolerant.Login(ctx, pk, "person@example.com")
	assert.ErrorIs(t, err, zkerrors.ErrInsufficientShares)
}

func TestLoginFailsWithWrongPK(t *testing.T) {
	ctx := context.Background()
	core := newTestCore(t, 2, backendref.NewZcashBackend(), backendref.NewStarknetBackend())

	pk := strings.Repeat("55", 32)
	_, err := core.Register(ctx, pk, "person@example.com")
	require.NoError(t, err)

	wrongPK := strings.Repeat("66", 32)
	_, err = core.Login(ctx, wrongPK, "person@example.com")
	assert.Error(t, err)
}

func TestAuditLogRecordsOutcomes(t *testing.T) {
	ctx := context.Background()
	core := newTestCore(t, 2, backendref.NewZcashBackend(), backendref.NewStarknetBackend())
	pk := strings.Repeat("77", 32)

	_, err := core.Register(ctx, pk, "person@example.com")
	require.NoError(t, err)
	_, err = core.Login(ctx, pk, "person@example.com")
	require.NoError(t, err)

	log := core.AuditLog()
	require.Len(t, log, 2)
	assert.Equal(t, AuditOutcomeSuccess, log[0].Outcome)
	assert.Equal(t, AuditOutcomeSuccess, log[1].Outcome)
}

// failingBackend wraps a working Backend but always fails GetShare,
// simulating an unreachable storage chain during Login.
type failingBackend struct {
	backendref.Backend
}

func (f *failingBackend) GetShare(ctx context.Context, userID string) (*backendref.EncryptedShare, error) {
	return nil, assert.AnError
}
